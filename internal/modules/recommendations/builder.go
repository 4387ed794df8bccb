package recommendations

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rmenon/pennywatch/internal/modules/risk"
	"github.com/rmenon/pennywatch/internal/modules/scanner"
	"github.com/rmenon/pennywatch/pkg/formulas"
)

// Builder sizes the top scan candidates into trade recommendations under a
// total-capital and per-trade risk budget.
type Builder struct {
	totalCapital float64
	maxRiskPct   float64
	topN         int
	now          func() time.Time
	newID        func() string
	log          zerolog.Logger
}

// NewBuilder creates a recommendation builder. maxRiskPct is a fraction of
// total capital risked per trade (0.05 = 5%).
func NewBuilder(totalCapital, maxRiskPct float64, topN int, log zerolog.Logger) *Builder {
	return &Builder{
		totalCapital: totalCapital,
		maxRiskPct:   maxRiskPct,
		topN:         topN,
		now:          time.Now,
		newID:        uuid.NewString,
		log:          log.With().Str("service", "recommendations").Logger(),
	}
}

// Build converts a ranked candidate table into sized recommendations.
// Candidates without a tradable symbol, with non-positive risk per share, or
// too expensive for the capital budget are skipped, never fatal. An empty
// result is a valid outcome.
func (b *Builder) Build(candidates []scanner.PennyCandidate) []TradeRecommendation {
	tradable := make([]scanner.PennyCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.FyersSymbol == "" {
			b.log.Warn().Str("symbol", c.Symbol).Msg("No tradable symbol, dropping candidate")
			continue
		}
		tradable = append(tradable, c)
	}

	if len(tradable) == 0 {
		b.log.Warn().Msg("No candidates have a tradable symbol, nothing to recommend")
		return nil
	}
	if b.topN > 0 && len(tradable) > b.topN {
		tradable = tradable[:b.topN]
	}

	maxRiskPerTrade := b.totalCapital * b.maxRiskPct
	recTime := b.now().Format("2006-01-02T15:04:05")

	recs := make([]TradeRecommendation, 0, len(tradable))
	for _, c := range tradable {
		entry := c.CMP
		if c.LastClose != nil {
			entry = *c.LastClose
		}

		stopLoss := fallback(c.StopLoss, entry*0.8)
		target2 := fallback(c.Target2, entry*1.25)

		riskPerShare := entry - stopLoss
		if riskPerShare <= 0 {
			b.log.Warn().
				Str("symbol", c.Symbol).
				Float64("entry", entry).
				Float64("stop_loss", stopLoss).
				Msg("Non-positive risk per share, skipping")
			continue
		}

		qty := risk.SharesForBudget(maxRiskPerTrade, entry, stopLoss)
		capitalRequired := float64(qty) * entry
		if qty <= 0 || capitalRequired > b.totalCapital {
			b.log.Warn().
				Str("symbol", c.Symbol).
				Int("qty", qty).
				Float64("capital_required", capitalRequired).
				Float64("total_capital", b.totalCapital).
				Msg("Not enough capital to allocate, skipping")
			continue
		}

		recs = append(recs, TradeRecommendation{
			ID:                 b.newID(),
			Symbol:             c.Symbol,
			Exchange:           c.Exchange,
			Name:               c.Name,
			FyersSymbol:        c.FyersSymbol,
			CMP:                c.CMP,
			EntryLow:           formulas.Round2(fallback(c.EntryLow, entry*0.95)),
			EntryHigh:          formulas.Round2(fallback(c.EntryHigh, entry*1.02)),
			RecommendedEntry:   formulas.Round2(entry),
			StopLoss:           formulas.Round2(stopLoss),
			Target1:            formulas.Round2(fallback(c.Target1, entry*1.12)),
			Target2:            formulas.Round2(target2),
			RiskPerShare:       formulas.Round2(riskPerShare),
			Qty:                qty,
			CapitalRequired:    formulas.Round2(capitalRequired),
			RiskOnTrade:        formulas.Round2(float64(qty) * riskPerShare),
			RRToTarget2:        formulas.Round2((target2 - entry) / riskPerShare),
			FundamentalScore:   c.FundamentalScore,
			TechnicalScore:     c.TechnicalScore,
			TotalScore:         c.TotalScore,
			RiskFlag:           c.RiskFlag,
			TrendLabel:         c.TrendLabel,
			RecommendationTime: recTime,
		})
	}

	if len(recs) == 0 {
		b.log.Warn().Msg("No recommendations created")
	}
	return recs
}

func fallback(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
