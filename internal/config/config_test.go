package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRiskSettings_MissingFileKeepsDefaults(t *testing.T) {
	cfg := &Config{Risk: DefaultRiskSettings(), Scan: DefaultScanSettings()}

	err := cfg.LoadRiskSettings(filepath.Join(t.TempDir(), "risk_settings.yaml"))

	require.NoError(t, err)
	assert.Equal(t, 500.0, cfg.Risk.Capital)
	assert.Equal(t, 0.05, cfg.Risk.MaxRiskPct)
	assert.Equal(t, 100.0, cfg.Scan.MaxPrice)
	assert.Equal(t, 8.0, cfg.Scan.MinScore)
}

func TestLoadRiskSettings_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk_settings.yaml")
	content := `
risk:
  capital: 100000
  risk_per_trade_pct: 2.0
  max_open_positions: 8
  max_risk_pct: 0.02
  top_n: 5
scan:
  max_price: 50
  min_roce: 15
  max_debt_eq: 0.8
  min_score: 8.0
  lookback_days: 250
  universe: ["NSE:FCL-EQ", "NSE:MCLOUD-EQ"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := &Config{Risk: DefaultRiskSettings(), Scan: DefaultScanSettings()}
	require.NoError(t, cfg.LoadRiskSettings(path))

	assert.Equal(t, 100000.0, cfg.Risk.Capital)
	assert.Equal(t, 2.0, cfg.Risk.RiskPerTradePct)
	assert.Equal(t, 8, cfg.Risk.MaxOpenPositions)
	assert.Equal(t, 5, cfg.Risk.TopN)
	assert.Equal(t, 50.0, cfg.Scan.MaxPrice)
	assert.Equal(t, []string{"NSE:FCL-EQ", "NSE:MCLOUD-EQ"}, cfg.Scan.Universe)
	assert.InDelta(t, 2000.0, cfg.Risk.MaxRiskPerTrade(), 1e-9)
}

func TestLoadRiskSettings_MalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk_settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("risk: [not a mapping"), 0644))

	cfg := &Config{Risk: DefaultRiskSettings(), Scan: DefaultScanSettings()}
	assert.Error(t, cfg.LoadRiskSettings(path))
}
