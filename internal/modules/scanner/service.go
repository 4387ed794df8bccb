package scanner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rmenon/pennywatch/internal/config"
	"github.com/rmenon/pennywatch/internal/modules/fundamentals"
	"github.com/rmenon/pennywatch/internal/modules/technicals"
	"github.com/rmenon/pennywatch/pkg/formulas"
)

// FundamentalsSource supplies the universe to scan.
type FundamentalsSource interface {
	GetAll() ([]fundamentals.Record, error)
}

// SnapshotBuilder supplies the per-symbol technical picture.
type SnapshotBuilder interface {
	BuildSnapshot(exchange, symbol string, lookbackDays int) (*technicals.Snapshot, error)
}

// Service runs the penny scan: gate and score fundamentals, attach
// technicals, derive swing levels, rank.
type Service struct {
	source     FundamentalsSource
	technicals SnapshotBuilder
	filter     *Filter
	settings   config.ScanSettings
	log        zerolog.Logger
}

// NewService creates a new scanner service.
func NewService(source FundamentalsSource, tech SnapshotBuilder, settings config.ScanSettings, log zerolog.Logger) *Service {
	return &Service{
		source:     source,
		technicals: tech,
		filter:     NewFilter(settings),
		settings:   settings,
		log:        log.With().Str("service", "scanner").Logger(),
	}
}

// Scan screens the full universe and returns candidates sorted descending by
// total score. Ties keep first-seen universe order. An empty universe yields
// an empty table, not an error.
func (s *Service) Scan() ([]PennyCandidate, error) {
	records, err := s.source.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load fundamentals universe: %w", err)
	}

	candidates := make([]PennyCandidate, 0, len(records))
	for _, rec := range records {
		fscore := s.filter.Score(rec)
		if fscore == nil {
			continue
		}

		snap, err := s.technicals.BuildSnapshot(rec.Exchange, rec.Symbol, s.settings.LookbackDays)
		if err != nil {
			// Degrade to fundamentals-only scoring, never abort the scan
			s.log.Warn().Err(err).
				Str("symbol", rec.Symbol).
				Msg("Technical snapshot failed, scoring on fundamentals only")
			snap = nil
		}

		candidates = append(candidates, s.buildCandidate(rec, *fscore, snap))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].TotalScore > candidates[j].TotalScore
	})

	s.log.Info().
		Int("universe", len(records)).
		Int("candidates", len(candidates)).
		Msg("Penny scan complete")
	return candidates, nil
}

func (s *Service) buildCandidate(rec fundamentals.Record, fscore float64, snap *technicals.Snapshot) PennyCandidate {
	c := PennyCandidate{
		Symbol:           rec.Symbol,
		Exchange:         rec.Exchange,
		Name:             rec.Name,
		FyersSymbol:      rec.FyersSymbol,
		CMP:              rec.CMP,
		PE:               rec.PE,
		MarCapCr:         rec.MarCapCr,
		DivYldPct:        rec.DivYldPct,
		NPQtrCr:          rec.NPQtrCr,
		QtrProfitVarPct:  rec.QtrProfitVarPct,
		SalesQtrCr:       rec.SalesQtrCr,
		QtrSalesVarPct:   rec.QtrSalesVarPct,
		ROCEPct:          rec.ROCEPct,
		DebtEq:           rec.DebtEq,
		FundamentalScore: fscore,
		TrendLabel:       technicals.TrendNoData,
		RiskFlag:         s.filter.RiskFlag(rec),
	}

	base := rec.CMP
	if snap != nil {
		c.TrendLabel = snap.Trend
		c.SMA20 = snap.SMA20
		c.SMA50 = snap.SMA50
		c.SMA200 = snap.SMA200
		c.VolatilityAnnual = snap.VolatilityAnnual
		lastClose := snap.LastClose
		c.LastClose = &lastClose
		base = lastClose
		c.TechnicalScore = technicalScore(snap)
	}
	c.TotalScore = c.FundamentalScore + c.TechnicalScore

	c.EntryLow = formulas.Round2(base * 0.95)
	c.EntryHigh = formulas.Round2(base * 1.02)
	c.StopLoss = formulas.Round2(base * 0.8)
	c.Target1 = formulas.Round2(base * 1.12)
	c.Target2 = formulas.Round2(base * 1.25)
	c.RiskPerShare = formulas.Round2(base - c.StopLoss)

	return c
}

// technicalScore turns the trend label and volatility into score increments.
func technicalScore(snap *technicals.Snapshot) float64 {
	score := 0.0

	label := snap.Trend.String()
	switch {
	case snap.Trend == technicals.TrendStrongUptrend:
		score += 4.0
	case strings.HasPrefix(label, "Uptrend"):
		score += 2.5
	case strings.Contains(strings.ToLower(label), "downtrend"):
		score -= 2.0
	}

	if snap.VolatilityAnnual != nil {
		vol := *snap.VolatilityAnnual
		switch {
		case vol < 0.35:
			score += 2.0
		case vol < 0.6:
			score += 1.0
		case vol > 0.9:
			score -= 1.0
		}
	}

	return score
}
