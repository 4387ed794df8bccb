// Package recommendations turns ranked scan candidates into sized,
// actionable trade recommendations.
package recommendations

import "github.com/rmenon/pennywatch/internal/modules/technicals"

// TradeRecommendation is one sized, tradable row derived from a scan
// candidate. Monetary fields are rounded to 2 decimals at build time.
type TradeRecommendation struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Exchange    string `json:"exchange"`
	Name        string `json:"name"`
	FyersSymbol string `json:"fyers_symbol"`

	CMP              float64 `json:"cmp"`
	EntryLow         float64 `json:"entry_low"`
	EntryHigh        float64 `json:"entry_high"`
	RecommendedEntry float64 `json:"recommended_entry"`
	StopLoss         float64 `json:"stop_loss"`
	Target1          float64 `json:"target1"`
	Target2          float64 `json:"target2"`
	RiskPerShare     float64 `json:"risk_per_share"`

	Qty             int     `json:"qty"`
	CapitalRequired float64 `json:"capital_required"`
	RiskOnTrade     float64 `json:"risk_on_trade"`
	RRToTarget2     float64 `json:"rr_to_target2"`

	FundamentalScore float64          `json:"fundamental_score"`
	TechnicalScore   float64          `json:"technical_score"`
	TotalScore       float64          `json:"total_score"`
	RiskFlag         string           `json:"risk_flag"`
	TrendLabel       technicals.Trend `json:"trend_label"`

	RecommendationTime string `json:"recommendation_time"`
}
