package scanner

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WriteReport exports the ranked candidate table as a CSV artifact for
// external consumers (dashboards, sheets). The file is written to a temporary
// path and renamed so readers never observe a partial report.
func WriteReport(path string, candidates []PennyCandidate) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".penny_report_*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	header := []string{
		"rank", "symbol", "exchange", "name", "fyers_symbol", "cmp",
		"last_close", "trend", "volatility_annual",
		"fundamental_score", "technical_score", "total_score", "risk_flag",
		"entry_low", "entry_high", "stop_loss", "target1", "target2",
		"risk_per_share",
	}
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for i, c := range candidates {
		row := []string{
			strconv.Itoa(i + 1),
			c.Symbol,
			c.Exchange,
			c.Name,
			c.FyersSymbol,
			formatFloat(c.CMP),
			formatFloatPtr(c.LastClose),
			c.TrendLabel.String(),
			formatFloatPtr(c.VolatilityAnnual),
			formatFloat(c.FundamentalScore),
			formatFloat(c.TechnicalScore),
			formatFloat(c.TotalScore),
			c.RiskFlag,
			formatFloat(c.EntryLow),
			formatFloat(c.EntryHigh),
			formatFloat(c.StopLoss),
			formatFloat(c.Target1),
			formatFloat(c.Target2),
			formatFloat(c.RiskPerShare),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write report row for %s: %w", c.Symbol, err)
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

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
