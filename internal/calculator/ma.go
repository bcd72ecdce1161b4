package calculator

import (
	"AlgoSentinel/internal/model"
)

// CalculateSMA computes the trailing simple moving average for every index.
// Index i is undefined until period values exist.
func CalculateSMA(values []float64, period int) []model.Value {
	out := make([]model.Value, len(values))
	if period <= 0 {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = model.Some(sum / float64(period))
		}
	}
	return out
}

// CalculateEMA computes an exponential moving average with alpha = 2/(span+1),
// seeded with the first value. Index i is reported once span values exist.
func CalculateEMA(values []float64, span int) []model.Value {
	out := make([]model.Value, len(values))
	if span <= 0 || len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	ema := values[0]
	for i, v := range values {
		if i > 0 {
			ema = alpha*v + (1-alpha)*ema
		}
		if i >= span-1 {
			out[i] = model.Some(ema)
		}
	}
	return out
}
