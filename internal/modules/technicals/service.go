package technicals

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rmenon/pennywatch/internal/modules/marketdata"
	"github.com/rmenon/pennywatch/pkg/formulas"
)

// minVolatilityCloses is the minimum number of closes required before an
// annualized volatility is reported.
const minVolatilityCloses = 10

// Service builds technical snapshots from a price history source.
type Service struct {
	source marketdata.Source
	log    zerolog.Logger
}

// NewService creates a new technical analysis service.
func NewService(source marketdata.Source, log zerolog.Logger) *Service {
	return &Service{
		source: source,
		log:    log.With().Str("service", "technicals").Logger(),
	}
}

// BuildSnapshot derives the technical picture for one exchange+symbol pair.
// Returns (nil, nil) when no history or no valid closes exist; callers treat
// that as "skip technicals", not as a failure.
func (s *Service) BuildSnapshot(exchange, symbol string, lookbackDays int) (*Snapshot, error) {
	hist, err := s.source.GetHistory(exchange, symbol, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s:%s: %w", exchange, symbol, err)
	}

	closes := hist.Closes()
	if len(closes) == 0 {
		s.log.Debug().
			Str("exchange", exchange).
			Str("symbol", symbol).
			Msg("No usable closes, skipping snapshot")
		return nil, nil
	}

	snap := &Snapshot{
		Exchange:  exchange,
		Symbol:    symbol,
		LastClose: closes[len(closes)-1],
		SMA20:     formulas.CalculateSMA(closes, 20),
		SMA50:     formulas.CalculateSMA(closes, 50),
		SMA200:    formulas.CalculateSMA(closes, 200),
	}

	if len(closes) >= minVolatilityCloses {
		vol := formulas.AnnualizedVolatility(formulas.CalculateReturns(closes))
		snap.VolatilityAnnual = &vol
	}

	snap.Trend = classifyTrend(snap.LastClose, snap.SMA20, snap.SMA50, snap.SMA200)
	return snap, nil
}

// classifyTrend maps the close and MA hierarchy onto a trend label. The
// precedence of the branches is part of the contract: downstream scoring
// branches on the exact label text.
func classifyTrend(lastClose float64, sma20, sma50, sma200 *float64) Trend {
	if sma20 == nil || sma50 == nil {
		return TrendInsufficientData
	}

	if sma200 == nil {
		switch {
		case lastClose > *sma50 && *sma20 > *sma50:
			return TrendUptrendShortTerm
		case lastClose < *sma50 && *sma20 < *sma50:
			return TrendDowntrendShortTerm
		default:
			return TrendSideways
		}
	}

	switch {
	case lastClose > *sma200 && *sma20 > *sma50 && *sma50 > *sma200:
		return TrendStrongUptrend
	case lastClose > *sma50 && *sma20 >= *sma50:
		return TrendUptrend
	case lastClose < *sma50 && *sma20 < *sma50 && *sma50 <= *sma200:
		return TrendDowntrend
	case lastClose < *sma200 && *sma50 < *sma200:
		return TrendStrongDowntrend
	default:
		return TrendSideways
	}
}
