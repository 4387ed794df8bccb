package strategy

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository persists daily swing signals in ledger.db, keyed by
// (symbol, signal_date) so re-running a scan for the same day upserts rather
// than duplicates.
type Repository struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewRepository creates a new signal repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repo", "signals").Logger(),
	}
}

// SaveAll upserts a batch of signals in one transaction.
func (r *Repository) SaveAll(signals []Signal) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO signals (symbol, side, entry_price, signal_date, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare signal insert: %w", err)
	}
	defer stmt.Close()

	createdAt := r.now().Unix()
	for _, sig := range signals {
		if _, err := stmt.Exec(sig.Symbol, sig.Side, sig.EntryPrice, sig.SignalDate, createdAt); err != nil {
			return fmt.Errorf("failed to insert signal %s: %w", sig.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit signals: %w", err)
	}

	r.log.Info().Int("count", len(signals)).Msg("Signals saved")
	return nil
}

// GetByDate returns all signals for one trading day.
func (r *Repository) GetByDate(date string) ([]Signal, error) {
	rows, err := r.db.Query(`
		SELECT symbol, side, entry_price, signal_date
		FROM signals
		WHERE signal_date = ?
		ORDER BY symbol ASC
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	return collectSignals(rows)
}

// GetLatest returns the signals of the most recent scan day. Signals are
// dated by the last candle of the scan that produced them, so the batch the
// next pre-open pass must execute is always the newest stored day, not the
// current one.
func (r *Repository) GetLatest() ([]Signal, error) {
	rows, err := r.db.Query(`
		SELECT symbol, side, entry_price, signal_date
		FROM signals
		WHERE signal_date = (SELECT MAX(signal_date) FROM signals)
		ORDER BY symbol ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest signals: %w", err)
	}
	defer rows.Close()

	return collectSignals(rows)
}

func collectSignals(rows *sql.Rows) ([]Signal, error) {
	var signals []Signal
	for rows.Next() {
		var sig Signal
		if err := rows.Scan(&sig.Symbol, &sig.Side, &sig.EntryPrice, &sig.SignalDate); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, sig)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating signals: %w", err)
	}
	return signals, nil
}
