package fundamentals

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// UniverseRepository mirrors the loaded fundamentals table into universe.db
// so the dashboard can serve the universe without re-reading the CSV.
type UniverseRepository struct {
	universeDB *sql.DB
	log        zerolog.Logger
}

// fundamentalsColumns is the list of columns for the fundamentals table.
// Column order must match scanRecord() expectations.
const fundamentalsColumns = `symbol, name, exchange, cmp, pe, mar_cap_cr, div_yld_pct,
np_qtr_cr, qtr_profit_var_pct, sales_qtr_cr, qtr_sales_var_pct, roce_pct, debt_eq,
yf_symbol, fyers_symbol`

// NewUniverseRepository creates a new universe repository.
func NewUniverseRepository(universeDB *sql.DB, log zerolog.Logger) *UniverseRepository {
	return &UniverseRepository{
		universeDB: universeDB,
		log:        log.With().Str("repo", "universe").Logger(),
	}
}

// ReplaceAll replaces the mirrored fundamentals table with the given records
// in a single transaction. The table is rebuilt wholesale on each load; a
// failed replace leaves the previous contents intact.
func (r *UniverseRepository) ReplaceAll(records []Record) error {
	tx, err := r.universeDB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM fundamentals"); err != nil {
		return fmt.Errorf("failed to clear fundamentals: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO fundamentals
		(symbol, name, exchange, cmp, pe, mar_cap_cr, div_yld_pct,
		 np_qtr_cr, qtr_profit_var_pct, sales_qtr_cr, qtr_sales_var_pct,
		 roce_pct, debt_eq, yf_symbol, fyers_symbol, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, rec := range records {
		_, err := stmt.Exec(
			strings.ToUpper(strings.TrimSpace(rec.Symbol)),
			rec.Name,
			rec.Exchange,
			rec.CMP,
			nullFloat(rec.PE),
			nullFloat(rec.MarCapCr),
			nullFloat(rec.DivYldPct),
			nullFloat(rec.NPQtrCr),
			nullFloat(rec.QtrProfitVarPct),
			nullFloat(rec.SalesQtrCr),
			nullFloat(rec.QtrSalesVarPct),
			nullFloat(rec.ROCEPct),
			nullFloat(rec.DebtEq),
			nullString(rec.YFSymbol),
			nullString(rec.FyersSymbol),
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert fundamentals row %s: %w", rec.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().Int("count", len(records)).Msg("Fundamentals mirror replaced")
	return nil
}

// GetAll returns every mirrored record in file order. The scanner breaks
// score ties by first-seen input order, so the mirror must hand records back
// exactly as ReplaceAll inserted them.
func (r *UniverseRepository) GetAll() ([]Record, error) {
	query := "SELECT " + fundamentalsColumns + " FROM fundamentals ORDER BY rowid"

	rows, err := r.universeDB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fundamentals: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fundamentals row: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fundamentals: %w", err)
	}

	return records, nil
}

// scanRecord scans a database row into a Record.
func scanRecord(rows *sql.Rows) (Record, error) {
	var rec Record
	var pe, marCap, divYld, npQtr, qtrProfit, salesQtr, qtrSales, roce, debtEq sql.NullFloat64
	var yfSymbol, fyersSymbol sql.NullString

	err := rows.Scan(
		&rec.Symbol,
		&rec.Name,
		&rec.Exchange,
		&rec.CMP,
		&pe,
		&marCap,
		&divYld,
		&npQtr,
		&qtrProfit,
		&salesQtr,
		&qtrSales,
		&roce,
		&debtEq,
		&yfSymbol,
		&fyersSymbol,
	)
	if err != nil {
		return rec, err
	}

	rec.PE = floatPtr(pe)
	rec.MarCapCr = floatPtr(marCap)
	rec.DivYldPct = floatPtr(divYld)
	rec.NPQtrCr = floatPtr(npQtr)
	rec.QtrProfitVarPct = floatPtr(qtrProfit)
	rec.SalesQtrCr = floatPtr(salesQtr)
	rec.QtrSalesVarPct = floatPtr(qtrSales)
	rec.ROCEPct = floatPtr(roce)
	rec.DebtEq = floatPtr(debtEq)
	if yfSymbol.Valid {
		rec.YFSymbol = yfSymbol.String
	}
	if fyersSymbol.Valid {
		rec.FyersSymbol = fyersSymbol.String
	}

	return rec, nil
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
