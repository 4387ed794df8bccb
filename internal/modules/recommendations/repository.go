package recommendations

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rmenon/pennywatch/internal/modules/technicals"
)

const recommendationColumns = `id, symbol, exchange, name, fyers_symbol, cmp,
	entry_low, entry_high, recommended_entry, stop_loss, target1, target2,
	risk_per_share, qty, capital_required, risk_on_trade, rr_to_target2,
	fundamental_score, technical_score, total_score, risk_flag, trend_label,
	recommendation_time`

// Repository persists the recommendation table in ledger.db. Each run
// replaces the previous table wholesale; the execution log, not this table,
// is the durable audit trail.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new recommendation repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "recommendations").Logger(),
	}
}

// ReplaceAll swaps the recommendation table for this run's rows in one
// transaction.
func (r *Repository) ReplaceAll(recs []TradeRecommendation) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM recommendations"); err != nil {
		return fmt.Errorf("failed to clear recommendations: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO recommendations (` + recommendationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare recommendation insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		_, err := stmt.Exec(
			rec.ID, rec.Symbol, rec.Exchange, rec.Name, rec.FyersSymbol,
			rec.CMP, rec.EntryLow, rec.EntryHigh, rec.RecommendedEntry,
			rec.StopLoss, rec.Target1, rec.Target2, rec.RiskPerShare,
			rec.Qty, rec.CapitalRequired, rec.RiskOnTrade, rec.RRToTarget2,
			rec.FundamentalScore, rec.TechnicalScore, rec.TotalScore,
			rec.RiskFlag, rec.TrendLabel.String(), rec.RecommendationTime,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recommendation %s: %w", rec.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recommendations: %w", err)
	}

	r.log.Info().Int("count", len(recs)).Msg("Recommendation table replaced")
	return nil
}

// GetAll returns the latest recommendations in descending total-score order.
func (r *Repository) GetAll() ([]TradeRecommendation, error) {
	rows, err := r.db.Query(`SELECT ` + recommendationColumns + ` FROM recommendations ORDER BY total_score DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []TradeRecommendation
	for rows.Next() {
		var rec TradeRecommendation
		var trendLabel string
		err := rows.Scan(
			&rec.ID, &rec.Symbol, &rec.Exchange, &rec.Name, &rec.FyersSymbol,
			&rec.CMP, &rec.EntryLow, &rec.EntryHigh, &rec.RecommendedEntry,
			&rec.StopLoss, &rec.Target1, &rec.Target2, &rec.RiskPerShare,
			&rec.Qty, &rec.CapitalRequired, &rec.RiskOnTrade, &rec.RRToTarget2,
			&rec.FundamentalScore, &rec.TechnicalScore, &rec.TotalScore,
			&rec.RiskFlag, &trendLabel, &rec.RecommendationTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		rec.TrendLabel = technicals.Trend(trendLabel)
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendations: %w", err)
	}
	return recs, nil
}
