package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rmenon/pennywatch/internal/modules/recommendations"
)

// NSE/BSE cash market hours, IST.
var (
	marketOpen  = 9*time.Hour + 15*time.Minute
	marketClose = 15*time.Hour + 30*time.Minute
)

// RecommendationSource supplies the rows the trader acts on.
type RecommendationSource interface {
	GetAll() ([]recommendations.TradeRecommendation, error)
}

// AutoTrader reads the recommendation table, skips symbols already executed
// today, and places BUY market orders through the broker client.
type AutoTrader struct {
	recs   RecommendationSource
	ledger *Ledger
	broker BrokerClient
	now    func() time.Time
	log    zerolog.Logger
}

// NewAutoTrader creates a new auto trader. Times are evaluated in IST
// regardless of host timezone.
func NewAutoTrader(recs RecommendationSource, ledger *Ledger, broker BrokerClient, log zerolog.Logger) *AutoTrader {
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		ist = time.FixedZone("IST", 5*3600+1800)
	}
	return &AutoTrader{
		recs:   recs,
		ledger: ledger,
		broker: broker,
		now:    func() time.Time { return time.Now().In(ist) },
		log:    log.With().Str("service", "auto_trader").Logger(),
	}
}

// RunOnce executes one trading pass. Outside market hours it is a no-op.
// Broker failures are recorded in the ledger and never abort the pass.
func (t *AutoTrader) RunOnce(ctx context.Context) error {
	now := t.now()
	if !withinMarketHours(now) {
		t.log.Info().
			Str("ist_time", now.Format("15:04:05")).
			Msg("Outside NSE cash-market hours, skipping auto-trades")
		return nil
	}

	instrs, err := t.buildInstructions(now)
	if err != nil {
		return err
	}
	if len(instrs) == 0 {
		t.log.Warn().Msg("No trade instructions to execute")
		return nil
	}

	for _, instr := range instrs {
		t.placeAndRecord(ctx, instr)
	}
	return nil
}

func (t *AutoTrader) buildInstructions(now time.Time) ([]TradeInstruction, error) {
	recs, err := t.recs.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendations: %w", err)
	}
	if len(recs) == 0 {
		t.log.Warn().Msg("Recommendation table is empty")
		return nil, nil
	}

	executed, err := t.ledger.ExecutedOn(now.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to load execution ledger: %w", err)
	}

	var instrs []TradeInstruction
	for _, rec := range recs {
		if executed[rec.Symbol] {
			t.log.Info().Str("symbol", rec.Symbol).Msg("Already executed today, skipping")
			continue
		}
		if rec.FyersSymbol == "" {
			t.log.Warn().Str("symbol", rec.Symbol).Msg("No tradable symbol, skipping auto-trade")
			continue
		}
		if rec.Qty <= 0 {
			t.log.Warn().Str("symbol", rec.Symbol).Msg("Non-positive qty, skipping auto-trade")
			continue
		}

		price := rec.RecommendedEntry
		if price <= 0 {
			price = rec.CMP
		}
		if price <= 0 {
			t.log.Warn().Str("symbol", rec.Symbol).Msg("Non-positive price, skipping auto-trade")
			continue
		}

		instrs = append(instrs, TradeInstruction{
			Symbol:      rec.Symbol,
			FyersSymbol: rec.FyersSymbol,
			Exchange:    rec.Exchange,
			Name:        rec.Name,
			Side:        SideBuy,
			Qty:         rec.Qty,
			Price:       price,
			StopLoss:    rec.StopLoss,
			Target1:     rec.Target1,
			Target2:     rec.Target2,
		})
	}
	return instrs, nil
}

func (t *AutoTrader) placeAndRecord(ctx context.Context, instr TradeInstruction) {
	now := t.now()
	rec := Record{
		ExecutedDate: now.Format("2006-01-02"),
		ExecutedTime: now.Format("2006-01-02T15:04:05"),
		Symbol:       instr.Symbol,
		FyersSymbol:  instr.FyersSymbol,
		Side:         instr.Side,
		Qty:          instr.Qty,
		Price:        instr.Price,
	}

	resp, err := t.broker.PlaceMarketOrder(ctx, instr)
	switch {
	case err != nil:
		t.log.Error().Err(err).Str("symbol", instr.Symbol).Msg("Exception while placing order")
		rec.Status = StatusException
		rec.RawResponse = err.Error()
	case resp.OK():
		t.log.Info().Str("symbol", instr.Symbol).Str("order_id", resp.OrderID).Msg("Order placed")
		rec.Status = StatusOK
		rec.RawResponse = marshalResponse(resp)
	default:
		t.log.Error().Str("symbol", instr.Symbol).Str("message", resp.Message).Msg("Order rejected")
		rec.Status = StatusError
		rec.RawResponse = marshalResponse(resp)
	}

	if err := t.ledger.Append(rec); err != nil {
		t.log.Error().Err(err).Str("symbol", instr.Symbol).Msg("Failed to append execution record")
	}
}

func marshalResponse(resp OrderResponse) string {
	raw, err := json.Marshal(resp)
	if err != nil {
		return resp.Message
	}
	return string(raw)
}

func withinMarketHours(now time.Time) bool {
	sinceMidnight := time.Duration(now.Hour())*time.Hour +
		time.Duration(now.Minute())*time.Minute +
		time.Duration(now.Second())*time.Second
	return sinceMidnight >= marketOpen && sinceMidnight <= marketClose
}
