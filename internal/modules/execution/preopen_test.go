package execution

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmenon/pennywatch/internal/config"
	"github.com/rmenon/pennywatch/internal/modules/risk"
	"github.com/rmenon/pennywatch/internal/modules/strategy"
)

type stubSignals struct {
	signals []strategy.Signal
	err     error
}

func (s stubSignals) GetLatest() ([]strategy.Signal, error) {
	return s.signals, s.err
}

func newPreopen(t *testing.T, signals []strategy.Signal, broker *stubBroker, riskCfg config.RiskSettings) (*PreopenExecutor, *Ledger) {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	ledger := NewLedger(setupLedgerDB(t), log)
	exec := NewPreopenExecutor(
		stubSignals{signals: signals},
		ledger,
		broker,
		risk.NewPositionSizer(riskCfg),
		config.StrategySettings{StopLossPct: 5.0},
		log,
	)
	exec.now = func() time.Time {
		return time.Date(2025, 8, 29, 9, 10, 0, 0, time.UTC)
	}
	return exec, ledger
}

func TestPreopen_SizesAndPlacesSignalOrders(t *testing.T) {
	// capital 10000, risk 1% -> budget 100; stop 5% of 100 -> risk/share 5 -> qty 20
	broker := &stubBroker{resp: OrderResponse{Status: "ok"}}
	exec, ledger := newPreopen(t, []strategy.Signal{
		{Symbol: "FCL", Side: strategy.SideBuy, EntryPrice: 100, SignalDate: "2025-08-29"},
	}, broker, config.RiskSettings{Capital: 10000, RiskPerTradePct: 1.0, MaxOpenPositions: 5})

	require.NoError(t, exec.RunOnce(context.Background()))

	require.Len(t, broker.placed, 1)
	assert.Equal(t, 20, broker.placed[0].Qty)
	assert.Equal(t, 100.0, broker.placed[0].Price)
	assert.Equal(t, 95.0, broker.placed[0].StopLoss)

	executed, err := ledger.ExecutedOn("2025-08-29")
	require.NoError(t, err)
	assert.True(t, executed["FCL"])
}

func TestPreopen_StopsAtMaxOpenPositions(t *testing.T) {
	broker := &stubBroker{resp: OrderResponse{Status: "ok"}}
	exec, _ := newPreopen(t, []strategy.Signal{
		{Symbol: "A", Side: strategy.SideBuy, EntryPrice: 100, SignalDate: "2025-08-29"},
		{Symbol: "B", Side: strategy.SideBuy, EntryPrice: 100, SignalDate: "2025-08-29"},
		{Symbol: "C", Side: strategy.SideBuy, EntryPrice: 100, SignalDate: "2025-08-29"},
	}, broker, config.RiskSettings{Capital: 10000, RiskPerTradePct: 1.0, MaxOpenPositions: 2})

	require.NoError(t, exec.RunOnce(context.Background()))

	// Third signal sizes to zero once two positions are open
	assert.Len(t, broker.placed, 2)
}

func TestPreopen_SkipsAlreadyExecutedToday(t *testing.T) {
	broker := &stubBroker{resp: OrderResponse{Status: "ok"}}
	exec, ledger := newPreopen(t, []strategy.Signal{
		{Symbol: "FCL", Side: strategy.SideBuy, EntryPrice: 100, SignalDate: "2025-08-29"},
	}, broker, config.RiskSettings{Capital: 10000, RiskPerTradePct: 1.0, MaxOpenPositions: 5})

	require.NoError(t, ledger.Append(record("FCL", "2025-08-29", StatusOK)))

	require.NoError(t, exec.RunOnce(context.Background()))

	assert.Empty(t, broker.placed)
}

func TestPreopen_RejectedOrderDoesNotConsumeAPosition(t *testing.T) {
	broker := &stubBroker{resp: OrderResponse{Status: "error", Message: "rejected"}}
	exec, ledger := newPreopen(t, []strategy.Signal{
		{Symbol: "A", Side: strategy.SideBuy, EntryPrice: 100, SignalDate: "2025-08-29"},
		{Symbol: "B", Side: strategy.SideBuy, EntryPrice: 100, SignalDate: "2025-08-29"},
	}, broker, config.RiskSettings{Capital: 10000, RiskPerTradePct: 1.0, MaxOpenPositions: 1})

	require.NoError(t, exec.RunOnce(context.Background()))

	// Both signals still get an attempt since neither fill succeeded
	assert.Len(t, broker.placed, 2)

	records, err := ledger.GetByDate("2025-08-29")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestPreopen_ExecutesPreviousCloseSignalsNextMorning(t *testing.T) {
	// Signals are dated by the scan's last candle; the pre-open pass fires
	// the following trading morning and must still pick them up.
	log := zerolog.New(nil).Level(zerolog.Disabled)
	db := setupLedgerDB(t)
	_, err := db.Exec(`
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

	repo := strategy.NewRepository(db, log)
	require.NoError(t, repo.SaveAll([]strategy.Signal{
		{Symbol: "FCL", Side: strategy.SideBuy, EntryPrice: 100, SignalDate: "2025-08-29"},
	}))

	broker := &stubBroker{resp: OrderResponse{Status: "ok"}}
	ledger := NewLedger(db, log)
	exec := NewPreopenExecutor(
		repo,
		ledger,
		broker,
		risk.NewPositionSizer(config.RiskSettings{Capital: 10000, RiskPerTradePct: 1.0, MaxOpenPositions: 5}),
		config.StrategySettings{StopLossPct: 5.0},
		log,
	)
	exec.now = func() time.Time {
		return time.Date(2025, 9, 1, 9, 10, 0, 0, time.UTC)
	}

	require.NoError(t, exec.RunOnce(context.Background()))

	require.Len(t, broker.placed, 1)
	assert.Equal(t, "FCL", broker.placed[0].Symbol)

	executed, err := ledger.ExecutedOn("2025-09-01")
	require.NoError(t, err)
	assert.True(t, executed["FCL"])
}

func TestPreopen_NoSignalsIsValid(t *testing.T) {
	broker := &stubBroker{resp: OrderResponse{Status: "ok"}}
	exec, _ := newPreopen(t, nil, broker, config.RiskSettings{Capital: 10000, RiskPerTradePct: 1.0, MaxOpenPositions: 5})

	require.NoError(t, exec.RunOnce(context.Background()))

	assert.Empty(t, broker.placed)
}
