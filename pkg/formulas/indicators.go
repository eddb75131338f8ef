package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// CalculateRSI calculates the Relative Strength Index
//
// RSI Formula:
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Average Gain / Average Loss over N periods
//
// Returns the current RSI value (0-100) or nil if there is insufficient data
func CalculateRSI(closes []float64, length int) *float64 {
	if len(closes) < length+1 {
		return nil
	}

	rsi := talib.Rsi(closes, length)

	if len(rsi) > 0 && !math.IsNaN(rsi[len(rsi)-1]) {
		result := rsi[len(rsi)-1]
		return &result
	}

	return nil
}

// CalculateMFI calculates the Money Flow Index, a volume-weighted RSI over
// the typical price. Returns the current value (0-100) or nil if there is
// insufficient data.
func CalculateMFI(highs, lows, closes, volumes []float64, length int) *float64 {
	if len(closes) < length+1 {
		return nil
	}
	if len(highs) != len(closes) || len(lows) != len(closes) || len(volumes) != len(closes) {
		return nil
	}

	mfi := talib.Mfi(highs, lows, closes, volumes, length)

	if len(mfi) > 0 && !math.IsNaN(mfi[len(mfi)-1]) {
		result := mfi[len(mfi)-1]
		return &result
	}

	return nil
}
