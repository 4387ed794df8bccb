// Package technicals derives moving averages, volatility, and a trend
// classification from EOD price history.
package technicals

// Trend is the closed set of trend classifications. Downstream scoring
// branches on these exact strings, so they are typed constants rather than
// free text.
type Trend string

const (
	// TrendInsufficientData - fewer than 50 closes, no MA hierarchy yet
	TrendInsufficientData Trend = "No clear trend (insufficient data)"
	// TrendUptrendShortTerm - price and SMA20 above SMA50, no SMA200 yet
	TrendUptrendShortTerm Trend = "Uptrend (short-term)"
	// TrendDowntrendShortTerm - price and SMA20 below SMA50, no SMA200 yet
	TrendDowntrendShortTerm Trend = "Downtrend (short-term)"
	// TrendSideways - no directional alignment of the MA hierarchy
	TrendSideways Trend = "Sideways / Choppy"
	// TrendStrongUptrend - full bullish MA alignment above SMA200
	TrendStrongUptrend Trend = "Strong uptrend"
	// TrendUptrend - price above SMA50 with SMA20 at or above SMA50
	TrendUptrend Trend = "Uptrend"
	// TrendDowntrend - price below SMA50 with SMA20 below SMA50 below SMA200
	TrendDowntrend Trend = "Downtrend"
	// TrendStrongDowntrend - full bearish MA alignment below SMA200
	TrendStrongDowntrend Trend = "Strong downtrend"
	// TrendNoData - no EOD history at all; assigned by the scanner, never by
	// classifyTrend
	TrendNoData Trend = "No trend (no EOD data)"
)

// String returns the label text.
func (t Trend) String() string {
	return string(t)
}

// Snapshot is the per-symbol technical picture derived from one scan's price
// history. SMA and volatility fields stay nil until enough bars exist.
type Snapshot struct {
	Exchange         string   `json:"exchange"`
	Symbol           string   `json:"symbol"`
	LastClose        float64  `json:"last_close"`
	SMA20            *float64 `json:"sma20,omitempty"`
	SMA50            *float64 `json:"sma50,omitempty"`
	SMA200           *float64 `json:"sma200,omitempty"`
	VolatilityAnnual *float64 `json:"volatility_annual,omitempty"`
	Trend            Trend    `json:"trend"`
}
