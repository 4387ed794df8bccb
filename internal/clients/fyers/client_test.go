package fyers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmenon/pennywatch/internal/modules/execution"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	client, err := NewClient("CLIENTID", "token", log)
	require.NoError(t, err)
	client.baseURL = srv.URL
	return client
}

func instruction() execution.TradeInstruction {
	return execution.TradeInstruction{
		Symbol:      "FCL",
		FyersSymbol: "NSE:FCL-EQ",
		Side:        execution.SideBuy,
		Qty:         2,
		Price:       42,
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	_, err := NewClient("", "token", log)
	require.Error(t, err)

	_, err = NewClient("CLIENTID", "", log)
	require.Error(t, err)
}

func TestPlaceMarketOrder_SendsOrderAndParsesResponse(t *testing.T) {
	var got orderRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/sync", r.URL.Path)
		assert.Equal(t, "CLIENTID:token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"s":"ok","code":1101,"message":"Order submitted","id":"123"}`))
	})

	resp, err := client.PlaceMarketOrder(context.Background(), instruction())

	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "123", resp.OrderID)

	assert.Equal(t, "NSE:FCL-EQ", got.Symbol)
	assert.Equal(t, 2, got.Qty)
	assert.Equal(t, 2, got.Type)
	assert.Equal(t, 1, got.Side)
	assert.Equal(t, "CNC", got.ProductType)
	assert.Equal(t, "pennyauto", got.OrderTag)
}

func TestPlaceMarketOrder_SellSide(t *testing.T) {
	var got orderRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"s":"ok"}`))
	})

	instr := instruction()
	instr.Side = execution.SideSell
	_, err := client.PlaceMarketOrder(context.Background(), instr)

	require.NoError(t, err)
	assert.Equal(t, -1, got.Side)
}

func TestPlaceMarketOrder_BrokerRejectionIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"s":"error","code":-99,"message":"margin shortfall"}`))
	})

	resp, err := client.PlaceMarketOrder(context.Background(), instruction())

	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, "margin shortfall", resp.Message)
}

func TestPlaceMarketOrder_RetriesServerErrors(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"s":"ok","id":"123"}`))
	})

	resp, err := client.PlaceMarketOrder(context.Background(), instruction())

	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, 3, attempts)
}

func TestPlaceMarketOrder_AuthFailureIsPermanent(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.PlaceMarketOrder(context.Background(), instruction())

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
