package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmenon/pennywatch/internal/config"
	"github.com/rmenon/pennywatch/internal/modules/fundamentals"
)

func fptr(v float64) *float64 { return &v }

func passingRecord() fundamentals.Record {
	return fundamentals.Record{
		Symbol:          "FCL",
		CMP:             42,
		PE:              fptr(15),
		ROCEPct:         fptr(30),
		DebtEq:          fptr(0.05),
		QtrProfitVarPct: fptr(30),
		QtrSalesVarPct:  fptr(20),
	}
}

func TestScore_RejectsAboveMaxPrice(t *testing.T) {
	f := NewFilter(config.DefaultScanSettings())
	rec := passingRecord()
	rec.CMP = 101

	assert.Nil(t, f.Score(rec))
}

func TestScore_RejectsMissingOrLowROCE(t *testing.T) {
	f := NewFilter(config.DefaultScanSettings())

	rec := passingRecord()
	rec.ROCEPct = nil
	assert.Nil(t, f.Score(rec))

	rec = passingRecord()
	rec.ROCEPct = fptr(10)
	assert.Nil(t, f.Score(rec))
}

func TestScore_RejectsMissingOrHighDebt(t *testing.T) {
	f := NewFilter(config.DefaultScanSettings())

	rec := passingRecord()
	rec.DebtEq = nil
	assert.Nil(t, f.Score(rec))

	rec = passingRecord()
	rec.DebtEq = fptr(0.81)
	assert.Nil(t, f.Score(rec))
}

func TestScore_FullHouseIsFourteen(t *testing.T) {
	f := NewFilter(config.DefaultScanSettings())

	score := f.Score(passingRecord())

	require.NotNil(t, score)
	// PE 3 + ROCE 4 + debt 3 + profit growth 2 + sales growth 2
	assert.Equal(t, 14.0, *score)
}

func TestScore_PEBands(t *testing.T) {
	f := NewFilter(config.DefaultScanSettings())
	base := passingRecord()

	cases := []struct {
		name string
		pe   *float64
		want float64
	}{
		{"sweet spot low edge", fptr(10), 14.0},
		{"sweet spot high edge", fptr(30), 14.0},
		{"cheap band", fptr(7), 12.5},
		{"expensive band", fptr(40), 12.5},
		{"too cheap", fptr(5), 11.0},
		{"too expensive", fptr(50), 11.0},
		{"missing", nil, 11.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := base
			rec.PE = tc.pe
			score := f.Score(rec)
			require.NotNil(t, score)
			assert.Equal(t, tc.want, *score)
		})
	}
}

func TestScore_ROCEBands(t *testing.T) {
	f := NewFilter(config.DefaultScanSettings())

	cases := []struct {
		roce float64
		want float64
	}{
		{25, 14.0},
		{18, 13.0},
		{15, 12.0},
	}
	for _, tc := range cases {
		rec := passingRecord()
		rec.ROCEPct = fptr(tc.roce)
		score := f.Score(rec)
		require.NotNil(t, score)
		assert.Equal(t, tc.want, *score)
	}
}

func TestScore_DebtBands(t *testing.T) {
	f := NewFilter(config.DefaultScanSettings())

	cases := []struct {
		debt float64
		want float64
	}{
		{0.1, 14.0},
		{0.4, 13.0},
		{0.8, 12.0},
	}
	for _, tc := range cases {
		rec := passingRecord()
		rec.DebtEq = fptr(tc.debt)
		score := f.Score(rec)
		require.NotNil(t, score)
		assert.Equal(t, tc.want, *score)
	}
}

func TestScore_GrowthBands(t *testing.T) {
	f := NewFilter(config.DefaultScanSettings())

	rec := passingRecord()
	rec.QtrProfitVarPct = fptr(10)
	rec.QtrSalesVarPct = fptr(10)
	score := f.Score(rec)
	require.NotNil(t, score)
	assert.Equal(t, 12.0, *score) // 3+4+3 + 1 + 1

	rec.QtrProfitVarPct = fptr(-5)
	rec.QtrSalesVarPct = fptr(-5)
	score = f.Score(rec)
	require.NotNil(t, score)
	assert.Equal(t, 10.0, *score)

	rec.QtrProfitVarPct = nil
	rec.QtrSalesVarPct = nil
	score = f.Score(rec)
	require.NotNil(t, score)
	assert.Equal(t, 10.0, *score)
}

func TestScore_BelowMinScoreIsRejected(t *testing.T) {
	settings := config.DefaultScanSettings()
	f := NewFilter(settings)

	// Gates pass but only ROCE 2 + debt 1 + growth 0 = 3.0 < 8.0
	rec := fundamentals.Record{
		Symbol:          "WEAK",
		CMP:             50,
		ROCEPct:         fptr(15),
		DebtEq:          fptr(0.7),
		QtrProfitVarPct: fptr(-10),
		QtrSalesVarPct:  fptr(-10),
	}
	assert.Nil(t, f.Score(rec))

	settings.MinScore = 3.0
	score := NewFilter(settings).Score(rec)
	require.NotNil(t, score)
	assert.Equal(t, 3.0, *score)
}

func TestScore_IsDeterministic(t *testing.T) {
	f := NewFilter(config.DefaultScanSettings())
	rec := passingRecord()

	first := f.Score(rec)
	second := f.Score(rec)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}

func TestRiskFlag(t *testing.T) {
	f := NewFilter(config.DefaultScanSettings())

	cases := []struct {
		name   string
		debt   *float64
		marCap *float64
		want   string
	}{
		{"low debt large cap", fptr(0.05), fptr(2500), RiskLow},
		{"low debt mid cap", fptr(0.05), fptr(800), RiskMedium},
		{"moderate debt mid cap", fptr(0.3), fptr(600), RiskMedium},
		{"moderate debt small cap", fptr(0.3), fptr(100), RiskHigh},
		{"high debt large cap", fptr(0.6), fptr(5000), RiskHigh},
		{"missing market cap", fptr(0.05), nil, RiskHigh},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := passingRecord()
			rec.DebtEq = tc.debt
			rec.MarCapCr = tc.marCap
			assert.Equal(t, tc.want, f.RiskFlag(rec))
		})
	}
}
