// Package execution places orders for recommendations and swing signals,
// with a per-day dedup ledger as the audit trail.
package execution

import "context"

// Execution status vocabulary. The ledger schema enforces it; dedup only
// counts StatusOK rows as executed.
const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusException = "exception"
)

// Order sides.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// TradeInstruction is one order to place: the tradable symbol, size, and the
// levels it was recommended at.
type TradeInstruction struct {
	Symbol      string  `json:"symbol"`
	FyersSymbol string  `json:"fyers_symbol"`
	Exchange    string  `json:"exchange"`
	Name        string  `json:"name"`
	Side        string  `json:"side"`
	Qty         int     `json:"qty"`
	Price       float64 `json:"price"`
	StopLoss    float64 `json:"stop_loss"`
	Target1     float64 `json:"target1"`
	Target2     float64 `json:"target2"`
}

// OrderResponse is the broker's answer to an order placement.
type OrderResponse struct {
	Status  string `json:"s"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	OrderID string `json:"id"`
}

// OK reports whether the broker accepted the order.
func (r OrderResponse) OK() bool {
	return r.Status == "ok"
}

// BrokerClient places orders with the upstream broker.
type BrokerClient interface {
	PlaceMarketOrder(ctx context.Context, instr TradeInstruction) (OrderResponse, error)
}

// Record is one row of the execution ledger.
type Record struct {
	ID           int64   `json:"id"`
	ExecutedDate string  `json:"executed_date"`
	ExecutedTime string  `json:"executed_time"`
	Symbol       string  `json:"symbol"`
	FyersSymbol  string  `json:"fyers_symbol"`
	Side         string  `json:"side"`
	Qty          int     `json:"qty"`
	Price        float64 `json:"price"`
	Status       string  `json:"status"`
	RawResponse  string  `json:"raw_response,omitempty"`
}
