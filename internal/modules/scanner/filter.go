package scanner

import (
	"github.com/rmenon/pennywatch/internal/config"
	"github.com/rmenon/pennywatch/internal/modules/fundamentals"
)

// Filter applies the penny-stock fundamental gates and additive scoring.
// Thresholds come from scan settings; the score tables themselves are fixed.
type Filter struct {
	settings config.ScanSettings
}

// NewFilter creates a filter over the given scan settings.
func NewFilter(settings config.ScanSettings) *Filter {
	return &Filter{settings: settings}
}

// Score returns the fundamental score for a record, or nil when the record
// fails a hard gate or the total falls below the minimum score.
func (f *Filter) Score(rec fundamentals.Record) *float64 {
	if rec.CMP > f.settings.MaxPrice {
		return nil
	}
	if rec.ROCEPct == nil || *rec.ROCEPct < f.settings.MinROCE {
		return nil
	}
	if rec.DebtEq == nil || *rec.DebtEq > f.settings.MaxDebtEq {
		return nil
	}

	score := 0.0

	if rec.PE != nil {
		pe := *rec.PE
		switch {
		case pe >= 10 && pe <= 30:
			score += 3.0
		case (pe >= 6 && pe < 10) || (pe > 30 && pe <= 45):
			score += 1.5
		}
	}

	roce := *rec.ROCEPct
	switch {
	case roce >= 25:
		score += 4.0
	case roce >= 18:
		score += 3.0
	case roce >= f.settings.MinROCE:
		score += 2.0
	}

	debt := *rec.DebtEq
	switch {
	case debt <= 0.1:
		score += 3.0
	case debt <= 0.4:
		score += 2.0
	case debt <= f.settings.MaxDebtEq:
		score += 1.0
	}

	if rec.QtrProfitVarPct != nil {
		switch {
		case *rec.QtrProfitVarPct >= 25:
			score += 2.0
		case *rec.QtrProfitVarPct >= f.settings.MinQtrProfitGrowth:
			score += 1.0
		}
	}

	if rec.QtrSalesVarPct != nil {
		switch {
		case *rec.QtrSalesVarPct >= 15:
			score += 2.0
		case *rec.QtrSalesVarPct >= f.settings.MinQtrSalesGrowth:
			score += 1.0
		}
	}

	if score < f.settings.MinScore {
		return nil
	}
	return &score
}

// RiskFlag classifies a record that passed the gates by leverage and size.
func (f *Filter) RiskFlag(rec fundamentals.Record) string {
	debt := 0.0
	if rec.DebtEq != nil {
		debt = *rec.DebtEq
	}
	marCap := 0.0
	if rec.MarCapCr != nil {
		marCap = *rec.MarCapCr
	}

	switch {
	case debt <= 0.1 && marCap >= 2000:
		return RiskLow
	case debt <= 0.4 && marCap >= 500:
		return RiskMedium
	default:
		return RiskHigh
	}
}
