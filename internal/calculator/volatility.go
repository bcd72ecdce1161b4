package calculator

import (
	"math"

	"AlgoSentinel/internal/model"
)

// CalculateReturns returns simple daily returns; index 0 is undefined.
func CalculateReturns(closes []float64) []model.Value {
	out := make([]model.Value, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		out[i] = model.Some(closes[i]/closes[i-1] - 1)
	}
	return out
}

// CalculateVolatility is the rolling sample standard deviation of daily
// returns over window returns. The first defined index is window.
func CalculateVolatility(closes []float64, window int) []model.Value {
	out := make([]model.Value, len(closes))
	if window < 2 {
		return out
	}
	returns := CalculateReturns(closes)
	for i := window; i < len(closes); i++ {
		mean := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if !returns[j].OK {
				ok = false
				break
			}
			mean += returns[j].V
		}
		if !ok {
			continue
		}
		mean /= float64(window)
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := returns[j].V - mean
			ss += d * d
		}
		out[i] = model.Some(math.Sqrt(ss / float64(window-1)))
	}
	return out
}

// CalculateLags returns lags[k][i] = values[i-k-1] for k in [0, n).
func CalculateLags(values []float64, n int) [][]model.Value {
	lags := make([][]model.Value, n)
	for k := 0; k < n; k++ {
		lags[k] = make([]model.Value, len(values))
		for i := k + 1; i < len(values); i++ {
			lags[k][i] = model.Some(values[i-k-1])
		}
	}
	return lags
}
