package scanner

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmenon/pennywatch/internal/modules/technicals"
)

const candidateColumns = `symbol, exchange, name, cmp, fyers_symbol, pe, mar_cap_cr,
	div_yld_pct, np_qtr_cr, qtr_profit_var_pct, sales_qtr_cr, qtr_sales_var_pct,
	roce_pct, debt_eq, last_close, sma20, sma50, sma200, volatility_annual,
	trend_label, fundamental_score, technical_score, total_score, risk_flag,
	entry_low, entry_high, stop_loss, target1, target2, risk_per_share,
	rank, scanned_at`

// Repository persists the ranked candidate table in ledger.db. Each scan run
// replaces the previous table wholesale.
type Repository struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewRepository creates a new candidate repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repo", "candidates").Logger(),
	}
}

// ReplaceAll swaps the candidate table for this run's ranked list in one
// transaction. Rank is the 1-based position in the given order.
func (r *Repository) ReplaceAll(candidates []PennyCandidate) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM candidates"); err != nil {
		return fmt.Errorf("failed to clear candidates: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO candidates (` + candidateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare candidate insert: %w", err)
	}
	defer stmt.Close()

	scannedAt := r.now().Unix()
	for i, c := range candidates {
		_, err := stmt.Exec(
			c.Symbol, c.Exchange, c.Name, c.CMP, nullString(c.FyersSymbol),
			nullFloat(c.PE), nullFloat(c.MarCapCr), nullFloat(c.DivYldPct),
			nullFloat(c.NPQtrCr), nullFloat(c.QtrProfitVarPct),
			nullFloat(c.SalesQtrCr), nullFloat(c.QtrSalesVarPct),
			nullFloat(c.ROCEPct), nullFloat(c.DebtEq),
			nullFloat(c.LastClose), nullFloat(c.SMA20), nullFloat(c.SMA50),
			nullFloat(c.SMA200), nullFloat(c.VolatilityAnnual),
			c.TrendLabel.String(), c.FundamentalScore, c.TechnicalScore,
			c.TotalScore, c.RiskFlag,
			c.EntryLow, c.EntryHigh, c.StopLoss, c.Target1, c.Target2,
			c.RiskPerShare, i+1, scannedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert candidate %s: %w", c.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit candidates: %w", err)
	}

	r.log.Info().Int("count", len(candidates)).Msg("Candidate table replaced")
	return nil
}

// GetAll returns the latest ranked candidate table in rank order.
func (r *Repository) GetAll() ([]PennyCandidate, error) {
	rows, err := r.db.Query(`SELECT ` + candidateColumns + ` FROM candidates ORDER BY rank ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []PennyCandidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}
	return candidates, nil
}

func scanCandidate(rows *sql.Rows) (PennyCandidate, error) {
	var c PennyCandidate
	var fyersSymbol sql.NullString
	var pe, marCap, divYld, npQtr, profitVar, salesQtr, salesVar, roce, debt sql.NullFloat64
	var lastClose, sma20, sma50, sma200, vol sql.NullFloat64
	var trendLabel string
	var rank int
	var scannedAt int64

	err := rows.Scan(
		&c.Symbol, &c.Exchange, &c.Name, &c.CMP, &fyersSymbol,
		&pe, &marCap, &divYld, &npQtr, &profitVar, &salesQtr, &salesVar,
		&roce, &debt, &lastClose, &sma20, &sma50, &sma200, &vol,
		&trendLabel, &c.FundamentalScore, &c.TechnicalScore, &c.TotalScore,
		&c.RiskFlag, &c.EntryLow, &c.EntryHigh, &c.StopLoss, &c.Target1,
		&c.Target2, &c.RiskPerShare, &rank, &scannedAt,
	)
	if err != nil {
		return c, fmt.Errorf("failed to scan candidate: %w", err)
	}

	c.FyersSymbol = fyersSymbol.String
	c.PE = floatPtr(pe)
	c.MarCapCr = floatPtr(marCap)
	c.DivYldPct = floatPtr(divYld)
	c.NPQtrCr = floatPtr(npQtr)
	c.QtrProfitVarPct = floatPtr(profitVar)
	c.SalesQtrCr = floatPtr(salesQtr)
	c.QtrSalesVarPct = floatPtr(salesVar)
	c.ROCEPct = floatPtr(roce)
	c.DebtEq = floatPtr(debt)
	c.LastClose = floatPtr(lastClose)
	c.SMA20 = floatPtr(sma20)
	c.SMA50 = floatPtr(sma50)
	c.SMA200 = floatPtr(sma200)
	c.VolatilityAnnual = floatPtr(vol)
	c.TrendLabel = technicals.Trend(trendLabel)
	return c, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
