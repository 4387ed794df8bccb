package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// CalculateSMA calculates the Simple Moving Average over the last `length`
// closes. Returns nil when there are fewer closes than the window requires.
func CalculateSMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}

	sma := talib.Sma(closes, length)
	if len(sma) > 0 && !math.IsNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	// Fallback to plain mean of the trailing window
	mean := Mean(closes[len(closes)-length:])
	return &mean
}
