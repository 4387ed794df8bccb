package scheduler

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmenon/pennywatch/internal/config"
	"github.com/rmenon/pennywatch/internal/modules/fundamentals"
	"github.com/rmenon/pennywatch/internal/modules/marketdata"
	"github.com/rmenon/pennywatch/internal/modules/strategy"
)

type crossingSource struct{}

// GetHistory returns a series ending in a fresh bullish MA cross for every
// symbol, so each scanned symbol yields a signal.
func (crossingSource) GetHistory(exchange, symbol string, _ int) (marketdata.History, error) {
	hist := marketdata.History{Exchange: exchange, Symbol: symbol}
	closes := []float64{20, 18, 16, 14, 12, 10, 8, 9, 12, 30}
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := range closes {
		c := closes[i]
		candle := marketdata.Candle{Date: start.AddDate(0, 0, i), Close: &c}
		if i == len(closes)-1 {
			v := int64(5000)
			candle.Volume = &v
		}
		hist.Candles = append(hist.Candles, candle)
	}
	return hist, nil
}

func setupSignalsDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE signals (
			symbol       TEXT NOT NULL,
			side         TEXT NOT NULL,
			entry_price  REAL NOT NULL,
			signal_date  TEXT NOT NULL,
			created_at   INTEGER NOT NULL,
			PRIMARY KEY (symbol, signal_date)
		)
	`)
	require.NoError(t, err)
	return db
}

func newSwingScanJob(t *testing.T, universe []string) (*SwingScanJob, *strategy.Repository) {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	path := filepath.Join(t.TempDir(), "penny_fundamentals.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"symbol,name,cmp,fyers_symbol\nfcl,Fineotex Chemical,42,NSE:FCL-EQ\nmcloud,,88.5,NSE:MCLOUD-EQ\n",
	), 0644))

	cfg := &config.Config{
		Scan: config.ScanSettings{LookbackDays: 30, Universe: universe},
		Strategy: config.StrategySettings{
			MAShort:     3,
			MALong:      5,
			MinVolume:   1000,
			Lookback:    6,
			StopLossPct: 5.0,
		},
	}

	signals := strategy.NewRepository(setupSignalsDB(t), log)
	job := NewSwingScanJob(
		fundamentals.NewRepository(path, log),
		crossingSource{},
		strategy.NewSwingTrend(cfg.Strategy, log),
		signals,
		cfg,
		log,
	)
	return job, signals
}

func TestSwingScanJob_ConfiguredUniverseRestrictsScan(t *testing.T) {
	job, signals := newSwingScanJob(t, []string{"fcl"})

	require.NoError(t, job.Run())

	got, err := signals.GetLatest()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "FCL", got[0].Symbol)
}

func TestSwingScanJob_EmptyUniverseScansAllFundamentals(t *testing.T) {
	job, signals := newSwingScanJob(t, nil)

	require.NoError(t, job.Run())

	got, err := signals.GetLatest()
	require.NoError(t, err)
	require.Len(t, got, 2)
}
