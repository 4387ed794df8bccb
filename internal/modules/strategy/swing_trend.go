// Package strategy generates swing entry signals from EOD price history.
package strategy

import (
	"github.com/rs/zerolog"

	"github.com/rmenon/pennywatch/internal/config"
	"github.com/rmenon/pennywatch/internal/modules/marketdata"
	"github.com/rmenon/pennywatch/pkg/formulas"
)

// Signal sides.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Signal is one swing entry signal for a trading day.
type Signal struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	EntryPrice float64 `json:"entry_price"`
	SignalDate string  `json:"signal_date"`
}

// SwingTrend signals a BUY when the short MA crosses above the long MA with
// price confirming above both, subject to a minimum-volume liquidity gate.
type SwingTrend struct {
	settings config.StrategySettings
	log      zerolog.Logger
}

// NewSwingTrend creates a swing-trend strategy.
func NewSwingTrend(settings config.StrategySettings, log zerolog.Logger) *SwingTrend {
	return &SwingTrend{
		settings: settings,
		log:      log.With().Str("component", "swing_trend").Logger(),
	}
}

// GenerateSignal evaluates one symbol's history. Returns nil when there is no
// entry: too little history, insufficient volume, or no bullish cross.
func (s *SwingTrend) GenerateSignal(symbol string, hist marketdata.History) *Signal {
	if len(hist.Candles) < s.settings.Lookback {
		return nil
	}

	closes := hist.Closes()
	if len(closes) < s.settings.MALong+1 {
		return nil
	}

	last := hist.Candles[len(hist.Candles)-1]
	if last.Close == nil {
		return nil
	}
	if last.Volume == nil || *last.Volume < s.settings.MinVolume {
		return nil
	}

	shortLast := formulas.CalculateSMA(closes, s.settings.MAShort)
	longLast := formulas.CalculateSMA(closes, s.settings.MALong)
	prevCloses := closes[:len(closes)-1]
	shortPrev := formulas.CalculateSMA(prevCloses, s.settings.MAShort)
	longPrev := formulas.CalculateSMA(prevCloses, s.settings.MALong)
	if shortLast == nil || longLast == nil || shortPrev == nil || longPrev == nil {
		return nil
	}

	bullishCross := *shortPrev <= *longPrev && *shortLast > *longLast
	if bullishCross && *last.Close > *shortLast && *last.Close > *longLast {
		s.log.Info().
			Str("symbol", symbol).
			Float64("entry_price", *last.Close).
			Msg("Bullish MA cross")
		return &Signal{
			Symbol:     symbol,
			Side:       SideBuy,
			EntryPrice: *last.Close,
			SignalDate: last.Date.Format("2006-01-02"),
		}
	}

	return nil
}
