package calculator

import (
	"AlgoSentinel/internal/model"
)

// CalculateMACD returns the MACD line (EMA(fast) - EMA(slow)), its signal line
// (EMA(signal) of the MACD line) and the histogram.
func CalculateMACD(closes []float64, fast, slow, signal int) (line, sig, hist []model.Value) {
	n := len(closes)
	line = make([]model.Value, n)
	sig = make([]model.Value, n)
	hist = make([]model.Value, n)

	emaFast := CalculateEMA(closes, fast)
	emaSlow := CalculateEMA(closes, slow)

	first := -1
	for i := 0; i < n; i++ {
		if emaFast[i].OK && emaSlow[i].OK {
			line[i] = model.Some(emaFast[i].V - emaSlow[i].V)
			if first < 0 {
				first = i
			}
		}
	}
	if first < 0 {
		return line, sig, hist
	}

	macdValues := make([]float64, 0, n-first)
	for i := first; i < n; i++ {
		macdValues = append(macdValues, line[i].V)
	}
	for k, v := range CalculateEMA(macdValues, signal) {
		if !v.OK {
			continue
		}
		i := first + k
		sig[i] = v
		hist[i] = model.Some(line[i].V - v.V)
	}
	return line, sig, hist
}
