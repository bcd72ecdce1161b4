package ml

import "math"

// StandardScaler z-scores features with statistics from the training block.
type StandardScaler struct {
	Means   []float64
	Stddevs []float64
}

// Fit computes per-column mean and population standard deviation. Columns
// with no spread get a stddev of 1.
func (s *StandardScaler) Fit(x [][]float64) {
	if len(x) == 0 {
		return
	}
	width := len(x[0])
	s.Means = make([]float64, width)
	s.Stddevs = make([]float64, width)
	for _, row := range x {
		for j, v := range row {
			s.Means[j] += v
		}
	}
	n := float64(len(x))
	for j := range s.Means {
		s.Means[j] /= n
	}
	for _, row := range x {
		for j, v := range row {
			d := v - s.Means[j]
			s.Stddevs[j] += d * d
		}
	}
	for j := range s.Stddevs {
		s.Stddevs[j] = math.Sqrt(s.Stddevs[j] / n)
		if s.Stddevs[j] < 1e-12 {
			s.Stddevs[j] = 1
		}
	}
}

// Transform returns a scaled copy of one row.
func (s *StandardScaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Means[j]) / s.Stddevs[j]
	}
	return out
}

// TransformAll scales every row.
func (s *StandardScaler) TransformAll(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = s.Transform(row)
	}
	return out
}
