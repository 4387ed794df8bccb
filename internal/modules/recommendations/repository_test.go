package recommendations

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmenon/pennywatch/internal/modules/technicals"
)

func setupLedger(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE recommendations (
			id                  TEXT PRIMARY KEY,
			symbol              TEXT NOT NULL,
			exchange            TEXT NOT NULL,
			name                TEXT NOT NULL DEFAULT '',
			fyers_symbol        TEXT NOT NULL,
			cmp                 REAL NOT NULL,
			entry_low           REAL NOT NULL,
			entry_high          REAL NOT NULL,
			recommended_entry   REAL NOT NULL,
			stop_loss           REAL NOT NULL,
			target1             REAL NOT NULL,
			target2             REAL NOT NULL,
			risk_per_share      REAL NOT NULL,
			qty                 INTEGER NOT NULL CHECK (qty > 0),
			capital_required    REAL NOT NULL,
			risk_on_trade       REAL NOT NULL,
			rr_to_target2       REAL NOT NULL,
			fundamental_score   REAL NOT NULL,
			technical_score     REAL NOT NULL,
			total_score         REAL NOT NULL,
			risk_flag           TEXT NOT NULL,
			trend_label         TEXT NOT NULL,
			recommendation_time TEXT NOT NULL
		)
	`)
	require.NoError(t, err)
	return db
}

func sampleRecommendation(id, symbol string, totalScore float64) TradeRecommendation {
	return TradeRecommendation{
		ID:                 id,
		Symbol:             symbol,
		Exchange:           "NSE",
		Name:               symbol + " Ltd",
		FyersSymbol:        "NSE:" + symbol + "-EQ",
		CMP:                100,
		EntryLow:           95,
		EntryHigh:          102,
		RecommendedEntry:   100,
		StopLoss:           80,
		Target1:            112,
		Target2:            125,
		RiskPerShare:       20,
		Qty:                1,
		CapitalRequired:    100,
		RiskOnTrade:        20,
		RRToTarget2:        1.25,
		FundamentalScore:   11,
		TechnicalScore:     2.5,
		TotalScore:         totalScore,
		RiskFlag:           "Medium",
		TrendLabel:         technicals.TrendUptrend,
		RecommendationTime: "2025-08-29T09:00:00",
	}
}

func TestRecommendationRepository_RoundTrip(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRepository(setupLedger(t), log)

	in := []TradeRecommendation{
		sampleRecommendation("a", "FCL", 13.5),
		sampleRecommendation("b", "MCLOUD", 16.0),
	}
	require.NoError(t, repo.ReplaceAll(in))

	out, err := repo.GetAll()

	require.NoError(t, err)
	require.Len(t, out, 2)
	// Ordered by total score descending
	assert.Equal(t, "MCLOUD", out[0].Symbol)
	assert.Equal(t, in[1], out[0])
	assert.Equal(t, in[0], out[1])
}

func TestRecommendationRepository_ReplaceAllClearsPreviousRun(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRepository(setupLedger(t), log)

	require.NoError(t, repo.ReplaceAll([]TradeRecommendation{sampleRecommendation("a", "OLD", 10)}))
	require.NoError(t, repo.ReplaceAll([]TradeRecommendation{sampleRecommendation("b", "NEW", 11)}))

	out, err := repo.GetAll()

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "NEW", out[0].Symbol)
}
