package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CSVSource serves price history from a local CSV generated from NSE/BSE
// bhavcopies. Expected columns: exchange,symbol,date,close plus optional
// open,high,low,volume (bhavcopy aliases close_price and tottrdqty are
// normalized). The file is read once and cached for the lifetime of the
// source; each pipeline run constructs a fresh source.
type CSVSource struct {
	path   string
	loaded bool
	series map[pairKey][]Candle
	pairs  []Pair
	now    func() time.Time
	log    zerolog.Logger
}

// Pair identifies one exchange+symbol series present in the backing file.
type Pair struct {
	Exchange string
	Symbol   string
}

type pairKey struct {
	exchange string
	symbol   string
}

// dateLayouts are the formats accepted for the date column.
var dateLayouts = []string{"2006-01-02", "02-Jan-2006", "2006-01-02 15:04:05"}

// NewCSVSource creates a price source over the given EOD CSV file.
func NewCSVSource(path string, log zerolog.Logger) *CSVSource {
	return &CSVSource{
		path: path,
		now:  time.Now,
		log:  log.With().Str("component", "eod_csv_source").Logger(),
	}
}

// GetHistory returns the series for an exchange+symbol pair. A missing file
// or unknown pair resolves to an empty history with a warning; only a
// malformed file (missing required columns) is an error.
func (s *CSVSource) GetHistory(exchange, symbol string, lookbackDays int) (History, error) {
	exchange = strings.ToUpper(strings.TrimSpace(exchange))
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	hist := History{Exchange: exchange, Symbol: symbol}

	if err := s.load(); err != nil {
		return hist, err
	}

	candles, ok := s.series[pairKey{exchange, symbol}]
	if !ok {
		s.log.Warn().
			Str("exchange", exchange).
			Str("symbol", symbol).
			Msg("No EOD data found; scanner will skip technicals")
		return hist, nil
	}

	if lookbackDays > 0 {
		cutoff := s.now().AddDate(0, 0, -lookbackDays)
		for _, c := range candles {
			if !c.Date.Before(cutoff) {
				hist.Candles = append(hist.Candles, c)
			}
		}
	} else {
		hist.Candles = append(hist.Candles, candles...)
	}

	return hist, nil
}

// Pairs lists every distinct exchange+symbol series in the file, in first-seen
// order. Used by the history sync job.
func (s *CSVSource) Pairs() ([]Pair, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.pairs, nil
}

func (s *CSVSource) load() error {
	if s.loaded {
		return nil
	}

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		s.log.Warn().Str("path", s.path).Msg("EOD prices file not found; scanner will skip technicals")
		s.series = map[pairKey][]Candle{}
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open EOD prices file %s: %w", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		s.series = map[pairKey][]Candle{}
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read EOD prices header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	// Normalize bhavcopy column aliases
	if _, ok := cols["close"]; !ok {
		if idx, ok := cols["close_price"]; ok {
			cols["close"] = idx
		}
	}
	if _, ok := cols["volume"]; !ok {
		if idx, ok := cols["tottrdqty"]; ok {
			cols["volume"] = idx
		}
	}

	for _, required := range []string{"exchange", "symbol", "date", "close"} {
		if _, ok := cols[required]; !ok {
			return fmt.Errorf("EOD prices file %s is missing required column: %s", s.path, required)
		}
	}

	series := map[pairKey][]Candle{}
	var pairs []Pair
	rowCount := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.log.Warn().Err(err).Msg("Skipping malformed EOD row")
			continue
		}

		field := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		exchange := strings.ToUpper(field("exchange"))
		symbol := strings.ToUpper(field("symbol"))
		if exchange == "" || symbol == "" {
			continue
		}

		date, ok := parseDate(field("date"))
		if !ok {
			s.log.Warn().Str("symbol", symbol).Str("date", field("date")).Msg("Skipping EOD row with unparsable date")
			continue
		}

		key := pairKey{exchange, symbol}
		if _, seen := series[key]; !seen {
			pairs = append(pairs, Pair{Exchange: exchange, Symbol: symbol})
		}

		series[key] = append(series[key], Candle{
			Date:   date,
			Open:   parseFloat(field("open")),
			High:   parseFloat(field("high")),
			Low:    parseFloat(field("low")),
			Close:  parseFloat(field("close")),
			Volume: parseInt(field("volume")),
		})
		rowCount++
	}

	for key := range series {
		candles := series[key]
		sort.SliceStable(candles, func(i, j int) bool {
			return candles[i].Date.Before(candles[j].Date)
		})
		series[key] = candles
	}

	s.series = series
	s.pairs = pairs
	s.loaded = true
	s.log.Info().Int("rows", rowCount).Str("path", s.path).Msg("Loaded EOD prices")
	return nil
}

func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseFloat(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseInt(v string) *int64 {
	if v == "" {
		return nil
	}
	// Some bhavcopy exports carry volume as a float
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		return nil
	}
	i := int64(f)
	return &i
}
