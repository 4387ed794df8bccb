package fundamentals

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Load when the fundamentals file is absent.
// A missing universe is fatal to a scan run, unlike missing price history.
var ErrNotFound = errors.New("fundamentals file not found")

// Repository loads and validates fundamentals from a CSV universe file and
// provides domain records to the scanner. The whole table is rebuilt on each
// Load; records with missing or invalid CMP are dropped, never partially
// constructed.
type Repository struct {
	path    string
	records map[string]Record
	order   []string // symbols in file order, preserved for stable iteration
	log     zerolog.Logger
}

// NewRepository creates a fundamentals repository backed by the given CSV file.
func NewRepository(path string, log zerolog.Logger) *Repository {
	return &Repository{
		path: path,
		log:  log.With().Str("repo", "fundamentals").Logger(),
	}
}

// Load reads the full universe from disk, replacing any previously loaded
// records. Returns ErrNotFound when the backing file does not exist.
func (r *Repository) Load() ([]Record, error) {
	f, err := os.Open(r.path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s (expected columns: symbol,name,cmp,pe,mar_cap_cr,div_yld_pct,np_qtr_cr,qtr_profit_var_pct,sales_qtr_cr,qtr_sales_var_pct,roce_pct,debt_eq,yf_symbol,fyers_symbol)", ErrNotFound, r.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open fundamentals file %s: %w", r.path, err)
	}
	defer f.Close()

	records, err := r.parse(f)
	if err != nil {
		return nil, err
	}

	r.records = make(map[string]Record, len(records))
	r.order = r.order[:0]
	for _, rec := range records {
		if _, seen := r.records[rec.Symbol]; !seen {
			r.order = append(r.order, rec.Symbol)
		}
		r.records[rec.Symbol] = rec
	}

	r.log.Info().Int("count", len(records)).Str("path", r.path).Msg("Loaded fundamental records")
	return records, nil
}

// GetAll returns every loaded record in file order, lazily triggering a
// single Load when nothing has been loaded yet.
func (r *Repository) GetAll() ([]Record, error) {
	if len(r.records) == 0 {
		return r.Load()
	}

	out := make([]Record, 0, len(r.order))
	for _, sym := range r.order {
		out = append(out, r.records[sym])
	}
	return out, nil
}

// Get performs a case-insensitive lookup into the most recent load.
func (r *Repository) Get(symbol string) (*Record, error) {
	if len(r.records) == 0 {
		if _, err := r.Load(); err != nil {
			return nil, err
		}
	}

	rec, ok := r.records[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// parse reads CSV rows into records. Per-row defects are logged and skipped;
// only a missing header or unreadable file is fatal.
func (r *Repository) parse(src io.Reader) ([]Record, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1 // tolerate ragged rows
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fundamentals header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["symbol"]; !ok {
		return nil, fmt.Errorf("fundamentals file %s is missing required column: symbol", r.path)
	}
	if _, ok := cols["cmp"]; !ok {
		return nil, fmt.Errorf("fundamentals file %s is missing required column: cmp", r.path)
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			r.log.Warn().Err(err).Msg("Skipping malformed fundamentals row")
			continue
		}

		field := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		symbol := strings.ToUpper(field("symbol"))
		if symbol == "" {
			continue
		}

		cmp := safeFloat(field("cmp"))
		if cmp == nil || *cmp <= 0 {
			r.log.Warn().Str("symbol", symbol).Msg("Skipping record because CMP is missing or invalid")
			continue
		}

		fyersSymbol := field("fyers_symbol")
		yfSymbol := field("yf_symbol")

		records = append(records, Record{
			Symbol:          symbol,
			Name:            field("name"),
			CMP:             *cmp,
			PE:              safeFloat(field("pe")),
			MarCapCr:        safeFloat(field("mar_cap_cr")),
			DivYldPct:       safeFloat(field("div_yld_pct")),
			NPQtrCr:         safeFloat(field("np_qtr_cr")),
			QtrProfitVarPct: safeFloat(field("qtr_profit_var_pct")),
			SalesQtrCr:      safeFloat(field("sales_qtr_cr")),
			QtrSalesVarPct:  safeFloat(field("qtr_sales_var_pct")),
			ROCEPct:         safeFloat(field("roce_pct")),
			DebtEq:          safeFloat(field("debt_eq")),
			YFSymbol:        yfSymbol,
			FyersSymbol:     fyersSymbol,
			Exchange:        inferExchange(field("exchange"), fyersSymbol, yfSymbol),
		})
	}

	return records, nil
}

// inferExchange resolves the exchange tag in strict precedence order:
// explicit column, broker symbol prefix, quote symbol suffix, default NSE.
func inferExchange(explicit, fyersSymbol, yfSymbol string) string {
	if ex := strings.ToUpper(strings.TrimSpace(explicit)); ex != "" {
		return ex
	}

	upper := strings.ToUpper(fyersSymbol)
	switch {
	case strings.HasPrefix(upper, "NSE:"):
		return "NSE"
	case strings.HasPrefix(upper, "BSE:"):
		return "BSE"
	}

	upper = strings.ToUpper(yfSymbol)
	switch {
	case strings.HasSuffix(upper, ".NS"):
		return "NSE"
	case strings.HasSuffix(upper, ".BO"):
		return "BSE"
	}

	return "NSE"
}

// safeFloat parses a numeric field, returning nil for anything unparsable.
func safeFloat(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &f
}
