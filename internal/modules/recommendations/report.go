package recommendations

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WriteReport exports recommendations as the CSV artifact the auto trader
// and external consumers read. Written via temp file + rename so readers
// never observe a partial file.
func WriteReport(path string, recs []TradeRecommendation) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".penny_reco_*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	header := []string{
		"symbol", "exchange", "name", "fyers_symbol", "cmp",
		"entry_low", "entry_high", "recommended_entry", "stop_loss",
		"target1", "target2", "risk_per_share", "qty", "capital_required",
		"risk_on_trade", "rr_to_target2", "fundamental_score",
		"technical_score", "total_score", "risk_flag", "trend_label",
		"recommendation_time",
	}
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, rec := range recs {
		row := []string{
			rec.Symbol,
			rec.Exchange,
			rec.Name,
			rec.FyersSymbol,
			formatFloat(rec.CMP),
			formatFloat(rec.EntryLow),
			formatFloat(rec.EntryHigh),
			formatFloat(rec.RecommendedEntry),
			formatFloat(rec.StopLoss),
			formatFloat(rec.Target1),
			formatFloat(rec.Target2),
			formatFloat(rec.RiskPerShare),
			strconv.Itoa(rec.Qty),
			formatFloat(rec.CapitalRequired),
			formatFloat(rec.RiskOnTrade),
			formatFloat(rec.RRToTarget2),
			formatFloat(rec.FundamentalScore),
			formatFloat(rec.TechnicalScore),
			formatFloat(rec.TotalScore),
			rec.RiskFlag,
			rec.TrendLabel.String(),
			rec.RecommendationTime,
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write report row for %s: %w", rec.Symbol, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp report file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
