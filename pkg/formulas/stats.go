package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// ZScore returns how many standard deviations value sits from the mean of
// data, or 0 when data has no spread
func ZScore(value float64, data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	sd := stat.StdDev(data, nil)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return (value - stat.Mean(data, nil)) / sd
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// Clamp bounds value to [lo, hi]
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Round3 rounds to 3 decimal places
func Round3(value float64) float64 {
	return math.Round(value*1000) / 1000
}
