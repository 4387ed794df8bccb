package marketdata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePricesCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eod_prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCSVSource_MissingFileYieldsEmptyHistory(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	src := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"), log)

	hist, err := src.GetHistory("NSE", "FCL", 250)

	require.NoError(t, err)
	assert.True(t, hist.Empty())
}

func TestCSVSource_UnknownSymbolYieldsEmptyHistory(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	path := writePricesCSV(t, `exchange,symbol,date,close
NSE,FCL,2025-01-02,41.5
`)
	src := NewCSVSource(path, log)

	hist, err := src.GetHistory("NSE", "UNKNOWN", 250)

	require.NoError(t, err)
	assert.True(t, hist.Empty())
}

func TestCSVSource_FiltersByPairAndSortsAscending(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	path := writePricesCSV(t, `exchange,symbol,date,close
NSE,FCL,2025-01-03,42.0
NSE,FCL,2025-01-02,41.5
BSE,FCL,2025-01-02,99.0
NSE,MCLOUD,2025-01-02,88.5
`)
	src := NewCSVSource(path, log)

	hist, err := src.GetHistory("nse", "fcl", 0)

	require.NoError(t, err)
	require.Len(t, hist.Candles, 2)
	assert.Equal(t, "2025-01-02", hist.Candles[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2025-01-03", hist.Candles[1].Date.Format("2006-01-02"))
	assert.Equal(t, []float64{41.5, 42.0}, hist.Closes())
}

func TestCSVSource_LookbackCutoff(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	path := writePricesCSV(t, `exchange,symbol,date,close
NSE,FCL,2024-01-02,30.0
NSE,FCL,2025-08-01,41.5
NSE,FCL,2025-08-04,42.0
`)
	src := NewCSVSource(path, log)
	src.now = func() time.Time {
		return time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
	}

	hist, err := src.GetHistory("NSE", "FCL", 30)

	require.NoError(t, err)
	assert.Equal(t, []float64{41.5, 42.0}, hist.Closes())
}

func TestCSVSource_NormalizesBhavcopyAliases(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	path := writePricesCSV(t, `exchange,symbol,date,close_price,tottrdqty
NSE,FCL,02-Jan-2025,"41.5","1,200"
`)
	src := NewCSVSource(path, log)

	hist, err := src.GetHistory("NSE", "FCL", 0)

	require.NoError(t, err)
	require.Len(t, hist.Candles, 1)
	require.NotNil(t, hist.Candles[0].Close)
	assert.Equal(t, 41.5, *hist.Candles[0].Close)
	require.NotNil(t, hist.Candles[0].Volume)
	assert.Equal(t, int64(1200), *hist.Candles[0].Volume)
}

func TestCSVSource_MissingRequiredColumnFails(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	path := writePricesCSV(t, `exchange,symbol,date
NSE,FCL,2025-01-02
`)
	src := NewCSVSource(path, log)

	_, err := src.GetHistory("NSE", "FCL", 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "close")
}

func TestCSVSource_SkipsRowsWithUnparsableDates(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	path := writePricesCSV(t, `exchange,symbol,date,close
NSE,FCL,not-a-date,41.5
NSE,FCL,2025-01-02,42.0
`)
	src := NewCSVSource(path, log)

	hist, err := src.GetHistory("NSE", "FCL", 0)

	require.NoError(t, err)
	assert.Equal(t, []float64{42.0}, hist.Closes())
}

func TestCSVSource_PairsInFirstSeenOrder(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	path := writePricesCSV(t, `exchange,symbol,date,close
NSE,MCLOUD,2025-01-02,88.5
NSE,FCL,2025-01-02,41.5
NSE,MCLOUD,2025-01-03,89.0
`)
	src := NewCSVSource(path, log)

	pairs, err := src.Pairs()

	require.NoError(t, err)
	assert.Equal(t, []Pair{
		{Exchange: "NSE", Symbol: "MCLOUD"},
		{Exchange: "NSE", Symbol: "FCL"},
	}, pairs)
}
