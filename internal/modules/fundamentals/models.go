// Package fundamentals loads and normalizes the fundamental universe that the
// penny scanner screens.
package fundamentals

// Record is one normalized fundamental row for a single symbol.
// Optional ratios are nil when the source column is missing or unparsable;
// downstream stages must treat nil as "unknown", never as zero.
type Record struct {
	Symbol          string   `json:"symbol"`
	Name            string   `json:"name"`
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
	YFSymbol        string   `json:"yf_symbol,omitempty"`
	FyersSymbol     string   `json:"fyers_symbol,omitempty"`
	Exchange        string   `json:"exchange"` // "NSE" or "BSE"
}
