package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmenon/pennywatch/internal/config"
	"github.com/rmenon/pennywatch/internal/modules/risk"
	"github.com/rmenon/pennywatch/internal/modules/strategy"
)

// SignalSource supplies the most recent batch of swing signals.
type SignalSource interface {
	GetLatest() ([]strategy.Signal, error)
}

// PreopenExecutor sizes and places orders for the previous scan's swing
// signals before the market opens. Sizing goes through the shared position
// sizer so it cannot diverge from the recommendation path.
type PreopenExecutor struct {
	signals     SignalSource
	ledger      *Ledger
	broker      BrokerClient
	sizer       *risk.PositionSizer
	stopLossPct float64
	now         func() time.Time
	log         zerolog.Logger
}

// NewPreopenExecutor creates a new pre-open executor.
func NewPreopenExecutor(
	signals SignalSource,
	ledger *Ledger,
	broker BrokerClient,
	sizer *risk.PositionSizer,
	strategySettings config.StrategySettings,
	log zerolog.Logger,
) *PreopenExecutor {
	return &PreopenExecutor{
		signals:     signals,
		ledger:      ledger,
		broker:      broker,
		sizer:       sizer,
		stopLossPct: strategySettings.StopLossPct,
		now:         time.Now,
		log:         log.With().Str("service", "preopen_executor").Logger(),
	}
}

// RunOnce places orders for the latest scan's signals. Signals are dated by
// the scan that produced them the previous close, so the executor takes the
// newest stored batch rather than looking for rows dated today. Symbols
// already executed today are skipped; zero-quantity sizings are skipped;
// broker failures are recorded and never abort the pass.
func (e *PreopenExecutor) RunOnce(ctx context.Context) error {
	today := e.now().Format("2006-01-02")

	signals, err := e.signals.GetLatest()
	if err != nil {
		return fmt.Errorf("failed to load signals: %w", err)
	}
	if len(signals) == 0 {
		e.log.Info().Msg("No signals to execute")
		return nil
	}

	executed, err := e.ledger.ExecutedOn(today)
	if err != nil {
		return fmt.Errorf("failed to load execution ledger: %w", err)
	}
	openPositions, err := e.ledger.CountExecutedOn(today)
	if err != nil {
		return fmt.Errorf("failed to count open positions: %w", err)
	}

	for _, sig := range signals {
		if executed[sig.Symbol] {
			e.log.Info().Str("symbol", sig.Symbol).Msg("Already executed today, skipping")
			continue
		}

		stopLoss := sig.EntryPrice * (1 - e.stopLossPct/100.0)
		qty := e.sizer.PositionSize(sig.EntryPrice, stopLoss, openPositions)
		if qty <= 0 {
			e.log.Warn().Str("symbol", sig.Symbol).Msg("Sized to zero, skipping")
			continue
		}

		instr := TradeInstruction{
			Symbol:      sig.Symbol,
			FyersSymbol: sig.Symbol,
			Side:        sig.Side,
			Qty:         qty,
			Price:       sig.EntryPrice,
			StopLoss:    stopLoss,
		}
		if e.placeAndRecord(ctx, instr) {
			openPositions++
		}
	}
	return nil
}

// placeAndRecord returns true when the order was accepted.
func (e *PreopenExecutor) placeAndRecord(ctx context.Context, instr TradeInstruction) bool {
	now := e.now()
	rec := Record{
		ExecutedDate: now.Format("2006-01-02"),
		ExecutedTime: now.Format("2006-01-02T15:04:05"),
		Symbol:       instr.Symbol,
		FyersSymbol:  instr.FyersSymbol,
		Side:         instr.Side,
		Qty:          instr.Qty,
		Price:        instr.Price,
	}

	resp, err := e.broker.PlaceMarketOrder(ctx, instr)
	ok := false
	switch {
	case err != nil:
		e.log.Error().Err(err).Str("symbol", instr.Symbol).Msg("Exception while placing order")
		rec.Status = StatusException
		rec.RawResponse = err.Error()
	case resp.OK():
		e.log.Info().Str("symbol", instr.Symbol).Int("qty", instr.Qty).Msg("Pre-open order placed")
		rec.Status = StatusOK
		rec.RawResponse = marshalResponse(resp)
		ok = true
	default:
		e.log.Error().Str("symbol", instr.Symbol).Str("message", resp.Message).Msg("Order rejected")
		rec.Status = StatusError
		rec.RawResponse = marshalResponse(resp)
	}

	if err := e.ledger.Append(rec); err != nil {
		e.log.Error().Err(err).Str("symbol", instr.Symbol).Msg("Failed to append execution record")
	}
	return ok
}
