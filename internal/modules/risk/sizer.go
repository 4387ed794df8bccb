// Package risk holds the shared position-sizing rule. Recommendation
// building and pre-open execution must size through the same formula so the
// two paths cannot silently diverge.
package risk

import (
	"math"

	"github.com/rmenon/pennywatch/internal/config"
)

// PositionSizer converts an entry/stop pair into a share quantity under the
// configured capital and per-trade risk budget.
type PositionSizer struct {
	settings config.RiskSettings
}

// NewPositionSizer creates a sizer over the given risk settings.
func NewPositionSizer(settings config.RiskSettings) *PositionSizer {
	return &PositionSizer{settings: settings}
}

// PositionSize returns the share quantity for a trade, or 0 when the open
// position limit is reached or the entry/stop distance is not positive.
func (s *PositionSizer) PositionSize(entry, stop float64, openPositions int) int {
	if openPositions >= s.settings.MaxOpenPositions {
		return 0
	}

	riskBudget := s.settings.Capital * s.settings.RiskPerTradePct / 100
	return SharesForBudget(riskBudget, entry, stop)
}

// SharesForBudget is the sizing core: floor(riskBudget / |entry - stop|),
// 0 when the distance is not positive. Every sizing path goes through this
// one formula.
func SharesForBudget(riskBudget, entry, stop float64) int {
	riskPerShare := math.Abs(entry - stop)
	if riskPerShare <= 0 {
		return 0
	}

	qty := int(math.Floor(riskBudget / riskPerShare))
	if qty < 0 {
		return 0
	}
	return qty
}
