// Package scanner screens the fundamental universe and ranks penny-stock
// candidates by combined fundamental and technical score.
package scanner

import "github.com/rmenon/pennywatch/internal/modules/technicals"

// Risk flag vocabulary.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// PennyCandidate is one ranked row of a scan run: the fundamental record it
// came from, the technical picture at scan time, the score breakdown, and the
// derived swing levels.
type PennyCandidate struct {
	Symbol      string `json:"symbol"`
	Exchange    string `json:"exchange"`
	Name        string `json:"name"`
	FyersSymbol string `json:"fyers_symbol,omitempty"`

	CMP             float64  `json:"cmp"`
	PE              *float64 `json:"pe,omitempty"`
	MarCapCr        *float64 `json:"mar_cap_cr,omitempty"`
	DivYldPct       *float64 `json:"div_yld_pct,omitempty"`
	NPQtrCr         *float64 `json:"np_qtr_cr,omitempty"`
	QtrProfitVarPct *float64 `json:"qtr_profit_var_pct,omitempty"`
	SalesQtrCr      *float64 `json:"sales_qtr_cr,omitempty"`
	QtrSalesVarPct  *float64 `json:"qtr_sales_var_pct,omitempty"`
	ROCEPct         *float64 `json:"roce_pct,omitempty"`
	DebtEq          *float64 `json:"debt_eq,omitempty"`

	LastClose        *float64         `json:"last_close,omitempty"`
	SMA20            *float64         `json:"sma20,omitempty"`
	SMA50            *float64         `json:"sma50,omitempty"`
	SMA200           *float64         `json:"sma200,omitempty"`
	VolatilityAnnual *float64         `json:"volatility_annual,omitempty"`
	TrendLabel       technicals.Trend `json:"trend_label"`

	FundamentalScore float64 `json:"fundamental_score"`
	TechnicalScore   float64 `json:"technical_score"`
	TotalScore       float64 `json:"total_score"`
	RiskFlag         string  `json:"risk_flag"`

	EntryLow     float64 `json:"entry_low"`
	EntryHigh    float64 `json:"entry_high"`
	StopLoss     float64 `json:"stop_loss"`
	Target1      float64 `json:"target1"`
	Target2      float64 `json:"target2"`
	RiskPerShare float64 `json:"risk_per_share"`
}
