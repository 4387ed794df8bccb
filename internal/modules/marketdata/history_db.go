package marketdata

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// HistoryDB serves price history from history.db and is the durable store
// the EOD CSV is synced into. Implements Source.
type HistoryDB struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewHistoryDB creates a new history database accessor.
func NewHistoryDB(db *sql.DB, log zerolog.Logger) *HistoryDB {
	return &HistoryDB{
		db:  db,
		now: time.Now,
		log: log.With().Str("component", "history_db").Logger(),
	}
}

// GetHistory returns the stored series for an exchange+symbol pair in
// ascending date order. An unknown pair yields an empty history.
func (h *HistoryDB) GetHistory(exchange, symbol string, lookbackDays int) (History, error) {
	exchange = strings.ToUpper(strings.TrimSpace(exchange))
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	hist := History{Exchange: exchange, Symbol: symbol}

	query := `
		SELECT date, open, high, low, close, volume
		FROM daily_prices
		WHERE exchange = ? AND symbol = ?
	`
	args := []interface{}{exchange, symbol}

	if lookbackDays > 0 {
		cutoff := h.now().AddDate(0, 0, -lookbackDays).Unix()
		query += " AND date >= ?"
		args = append(args, cutoff)
	}
	query += " ORDER BY date ASC"

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return hist, fmt.Errorf("failed to query daily prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dateUnix int64
		var open, high, low, closePrice sql.NullFloat64
		var volume sql.NullInt64

		if err := rows.Scan(&dateUnix, &open, &high, &low, &closePrice, &volume); err != nil {
			return hist, fmt.Errorf("failed to scan daily price: %w", err)
		}

		hist.Candles = append(hist.Candles, Candle{
			Date:   time.Unix(dateUnix, 0).UTC(),
			Open:   nullableFloat(open),
			High:   nullableFloat(high),
			Low:    nullableFloat(low),
			Close:  nullableFloat(closePrice),
			Volume: nullableInt(volume),
		})
	}

	if err := rows.Err(); err != nil {
		return hist, fmt.Errorf("error iterating daily prices: %w", err)
	}

	if hist.Empty() {
		h.log.Warn().
			Str("exchange", exchange).
			Str("symbol", symbol).
			Msg("No stored EOD data; scanner will skip technicals")
	}

	return hist, nil
}

// ReplaceHistory inserts or replaces the stored series for one
// exchange+symbol pair in a single transaction.
func (h *HistoryDB) ReplaceHistory(exchange, symbol string, candles []Candle) error {
	exchange = strings.ToUpper(strings.TrimSpace(exchange))
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO daily_prices
		(exchange, symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.Exec(
			exchange,
			symbol,
			c.Date.Unix(),
			nullFloatArg(c.Open),
			nullFloatArg(c.High),
			nullFloatArg(c.Low),
			nullFloatArg(c.Close),
			nullIntArg(c.Volume),
		)
		if err != nil {
			return fmt.Errorf("failed to insert daily price for %s:%s: %w", exchange, symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	h.log.Debug().
		Str("exchange", exchange).
		Str("symbol", symbol).
		Int("bars", len(candles)).
		Msg("Historical prices synced")
	return nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullableInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func nullFloatArg(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullIntArg(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
