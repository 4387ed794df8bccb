// Package fyers is a minimal FYERS API v3 order-placement client.
package fyers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/rmenon/pennywatch/internal/modules/execution"
)

const defaultBaseURL = "https://api-t1.fyers.in/api/v3"

// Client places orders through the FYERS REST API. Implements
// execution.BrokerClient.
type Client struct {
	client      *http.Client
	baseURL     string
	clientID    string
	accessToken string
	log         zerolog.Logger
}

// NewClient creates a new FYERS client. Both credentials are required.
func NewClient(clientID, accessToken string, log zerolog.Logger) (*Client, error) {
	if clientID == "" || accessToken == "" {
		return nil, fmt.Errorf("FYERS_CLIENT_ID and FYERS_ACCESS_TOKEN must be set")
	}

	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     defaultBaseURL,
		clientID:    clientID,
		accessToken: accessToken,
		log:         log.With().Str("client", "fyers").Logger(),
	}, nil
}

// orderRequest is the FYERS v3 sync-order payload.
type orderRequest struct {
	Symbol       string  `json:"symbol"`
	Qty          int     `json:"qty"`
	Type         int     `json:"type"`
	Side         int     `json:"side"`
	ProductType  string  `json:"productType"`
	LimitPrice   float64 `json:"limitPrice"`
	StopPrice    float64 `json:"stopPrice"`
	Validity     string  `json:"validity"`
	DisclosedQty int     `json:"disclosedQty"`
	OfflineOrder bool    `json:"offlineOrder"`
	OrderTag     string  `json:"orderTag"`
}

// PlaceMarketOrder places a CNC market order. Transient transport failures
// are retried with exponential backoff; a broker-level rejection is returned
// as a response, not an error.
func (c *Client) PlaceMarketOrder(ctx context.Context, instr execution.TradeInstruction) (execution.OrderResponse, error) {
	side := 1
	if instr.Side == execution.SideSell {
		side = -1
	}

	payload := orderRequest{
		Symbol:      instr.FyersSymbol,
		Qty:         instr.Qty,
		Type:        2, // Market
		Side:        side,
		ProductType: "CNC",
		Validity:    "DAY",
		// Must be alphanumeric only
		OrderTag: "pennyauto",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return execution.OrderResponse{}, fmt.Errorf("failed to marshal order: %w", err)
	}

	c.log.Info().
		Str("symbol", instr.FyersSymbol).
		Str("side", instr.Side).
		Int("qty", instr.Qty).
		Msg("Placing order")

	var resp execution.OrderResponse
	operation := func() error {
		var opErr error
		resp, opErr = c.postOrder(ctx, body)
		return opErr
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return execution.OrderResponse{}, fmt.Errorf("order placement failed for %s: %w", instr.FyersSymbol, err)
	}

	c.log.Info().
		Str("symbol", instr.FyersSymbol).
		Str("status", resp.Status).
		Str("order_id", resp.OrderID).
		Msg("Order response")
	return resp, nil
}

func (c *Client) postOrder(ctx context.Context, body []byte) (execution.OrderResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders/sync", bytes.NewReader(body))
	if err != nil {
		return execution.OrderResponse{}, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.clientID+":"+c.accessToken)

	httpResp, err := c.client.Do(req)
	if err != nil {
		return execution.OrderResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return execution.OrderResponse{}, fmt.Errorf("failed to read response: %w", err)
	}

	// Retry server-side failures, not client errors
	if httpResp.StatusCode >= 500 {
		return execution.OrderResponse{}, fmt.Errorf("server error %d: %s", httpResp.StatusCode, raw)
	}
	if httpResp.StatusCode >= 400 && httpResp.StatusCode != http.StatusBadRequest {
		return execution.OrderResponse{}, backoff.Permanent(fmt.Errorf("request rejected %d: %s", httpResp.StatusCode, raw))
	}

	var resp execution.OrderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return execution.OrderResponse{}, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	return resp, nil
}
