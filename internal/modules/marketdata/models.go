// Package marketdata resolves OHLCV price history for exchange+symbol pairs.
package marketdata

import "time"

// Candle is a single EOD OHLCV bar. Only the date is mandatory; any missing
// source column is carried as nil, not zero.
type Candle struct {
	Date   time.Time `json:"date"`
	Open   *float64  `json:"open,omitempty"`
	High   *float64  `json:"high,omitempty"`
	Low    *float64  `json:"low,omitempty"`
	Close  *float64  `json:"close,omitempty"`
	Volume *int64    `json:"volume,omitempty"`
}

// History is the ordered (ascending by date) price series for one
// exchange+symbol pair. An empty history is the sentinel for "no data" and is
// never an error.
type History struct {
	Exchange string   `json:"exchange"`
	Symbol   string   `json:"symbol"`
	Candles  []Candle `json:"candles"`
}

// Empty reports whether the history holds no bars.
func (h History) Empty() bool {
	return len(h.Candles) == 0
}

// Closes returns the valid close prices in date order, skipping bars whose
// close is missing.
func (h History) Closes() []float64 {
	closes := make([]float64, 0, len(h.Candles))
	for _, c := range h.Candles {
		if c.Close != nil {
			closes = append(closes, *c.Close)
		}
	}
	return closes
}

// Source is any provider of historical prices: EOD CSV files, the history
// database, or API-backed feeds.
type Source interface {
	// GetHistory returns the price series for an exchange+symbol pair,
	// truncated to the trailing lookbackDays when positive. Unknown symbols
	// and missing backing stores yield an empty history, not an error.
	GetHistory(exchange, symbol string, lookbackDays int) (History, error)
}
