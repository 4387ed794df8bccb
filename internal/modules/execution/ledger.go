package execution

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Ledger is the append-only execution log in ledger.db. Nothing is ever
// updated or deleted; dedup reads the success set for a given day.
type Ledger struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewLedger creates a new execution ledger.
func NewLedger(db *sql.DB, log zerolog.Logger) *Ledger {
	return &Ledger{
		db:  db,
		log: log.With().Str("repo", "executions").Logger(),
	}
}

// Append writes one execution record.
func (l *Ledger) Append(rec Record) error {
	_, err := l.db.Exec(`
		INSERT INTO executions
		(executed_date, executed_time, symbol, fyers_symbol, side, qty, price, status, raw_response)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ExecutedDate, rec.ExecutedTime, strings.ToUpper(rec.Symbol),
		rec.FyersSymbol, rec.Side, rec.Qty, rec.Price, rec.Status,
		rec.RawResponse,
	)
	if err != nil {
		return fmt.Errorf("failed to append execution for %s: %w", rec.Symbol, err)
	}
	return nil
}

// ExecutedOn returns the set of symbols with a successful execution on the
// given date. Failed and exception rows do not count, so a failed order may
// be retried on a later run the same day.
func (l *Ledger) ExecutedOn(date string) (map[string]bool, error) {
	rows, err := l.db.Query(`
		SELECT DISTINCT symbol FROM executions
		WHERE executed_date = ? AND status = ?
	`, date, StatusOK)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	executed := make(map[string]bool)
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan execution symbol: %w", err)
		}
		executed[strings.ToUpper(symbol)] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}
	return executed, nil
}

// CountExecutedOn returns the number of successful executions on a date, used
// as the open-position count for pre-open sizing.
func (l *Ledger) CountExecutedOn(date string) (int, error) {
	var count int
	err := l.db.QueryRow(`
		SELECT COUNT(DISTINCT symbol) FROM executions
		WHERE executed_date = ? AND status = ?
	`, date, StatusOK).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count executions: %w", err)
	}
	return count, nil
}

// GetByDate returns all ledger rows for one day, newest first.
func (l *Ledger) GetByDate(date string) ([]Record, error) {
	rows, err := l.db.Query(`
		SELECT id, executed_date, executed_time, symbol, fyers_symbol, side, qty, price, status, raw_response
		FROM executions
		WHERE executed_date = ?
		ORDER BY id DESC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// GetRecent returns the most recent ledger rows across all days.
func (l *Ledger) GetRecent(limit int) ([]Record, error) {
	rows, err := l.db.Query(`
		SELECT id, executed_date, executed_time, symbol, fyers_symbol, side, qty, price, status, raw_response
		FROM executions
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		var raw sql.NullString
		err := rows.Scan(
			&rec.ID, &rec.ExecutedDate, &rec.ExecutedTime, &rec.Symbol,
			&rec.FyersSymbol, &rec.Side, &rec.Qty, &rec.Price, &rec.Status, &raw,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		rec.RawResponse = raw.String
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}
	return records, nil
}
