package marketdata

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHistoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE daily_prices (
			exchange TEXT NOT NULL,
			symbol   TEXT NOT NULL,
			date     INTEGER NOT NULL,
			open     REAL,
			high     REAL,
			low      REAL,
			close    REAL,
			volume   INTEGER,
			PRIMARY KEY (exchange, symbol, date)
		)
	`)
	require.NoError(t, err)
	return db
}

func fp(v float64) *float64 { return &v }

func ip(v int64) *int64 { return &v }

func TestHistoryDB_RoundTrip(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	store := NewHistoryDB(setupHistoryDB(t), log)

	candles := []Candle{
		{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Close: fp(41.5), Volume: ip(1200)},
		{Date: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), Close: fp(42.0)},
	}
	require.NoError(t, store.ReplaceHistory("nse", "fcl", candles))

	hist, err := store.GetHistory("NSE", "FCL", 0)

	require.NoError(t, err)
	require.Len(t, hist.Candles, 2)
	assert.Equal(t, []float64{41.5, 42.0}, hist.Closes())
	require.NotNil(t, hist.Candles[0].Volume)
	assert.Equal(t, int64(1200), *hist.Candles[0].Volume)
	assert.Nil(t, hist.Candles[1].Volume)
	assert.Nil(t, hist.Candles[0].Open)
}

func TestHistoryDB_ReplaceIsIdempotent(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	store := NewHistoryDB(setupHistoryDB(t), log)

	candles := []Candle{
		{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Close: fp(41.5)},
	}
	require.NoError(t, store.ReplaceHistory("NSE", "FCL", candles))

	candles[0].Close = fp(43.0)
	require.NoError(t, store.ReplaceHistory("NSE", "FCL", candles))

	hist, err := store.GetHistory("NSE", "FCL", 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{43.0}, hist.Closes())
}

func TestHistoryDB_UnknownPairYieldsEmptyHistory(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	store := NewHistoryDB(setupHistoryDB(t), log)

	hist, err := store.GetHistory("NSE", "UNKNOWN", 250)

	require.NoError(t, err)
	assert.True(t, hist.Empty())
}

func TestHistoryDB_LookbackCutoff(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	store := NewHistoryDB(setupHistoryDB(t), log)
	store.now = func() time.Time {
		return time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
	}

	candles := []Candle{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: fp(30.0)},
		{Date: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), Close: fp(41.5)},
		{Date: time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC), Close: fp(42.0)},
	}
	require.NoError(t, store.ReplaceHistory("NSE", "FCL", candles))

	hist, err := store.GetHistory("NSE", "FCL", 30)

	require.NoError(t, err)
	assert.Equal(t, []float64{41.5, 42.0}, hist.Closes())
}

func TestSyncService_ImportsAllSeries(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	path := writePricesCSV(t, `exchange,symbol,date,close
NSE,FCL,2025-01-02,41.5
NSE,FCL,2025-01-03,42.0
BSE,MCLOUD,2025-01-02,88.5
`)
	src := NewCSVSource(path, log)
	store := NewHistoryDB(setupHistoryDB(t), log)
	svc := NewSyncService(src, store, log)

	synced, err := svc.Sync()

	require.NoError(t, err)
	assert.Equal(t, 2, synced)

	hist, err := store.GetHistory("NSE", "FCL", 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{41.5, 42.0}, hist.Closes())

	hist, err = store.GetHistory("BSE", "MCLOUD", 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{88.5}, hist.Closes())
}

func TestSyncService_MissingFileIsNoop(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	src := NewCSVSource("/nonexistent/eod_prices.csv", log)
	store := NewHistoryDB(setupHistoryDB(t), log)
	svc := NewSyncService(src, store, log)

	synced, err := svc.Sync()

	require.NoError(t, err)
	assert.Equal(t, 0, synced)
}
