// Package features turns indicator frames into labelled samples for the
// direction classifiers.
package features

import (
	"fmt"

	"AlgoSentinel/internal/model"
)

// Width is the length of every feature vector; see model.FeatureNames.
var Width = len(model.FeatureNames)

// Build returns one FeatureRow per date whose indicators are all defined and
// whose next point carries a valid close. The label of date t is 1 iff
// close[t+1] > close[t], so the last point never yields a row.
func Build(series *model.PriceSeries, frame *model.IndicatorFrame) ([]model.FeatureRow, error) {
	if len(frame.Entries) == 0 {
		return nil, nil
	}
	if len(frame.Entries) != len(series.Points) {
		return nil, fmt.Errorf("features: frame has %d entries for %d points", len(frame.Entries), len(series.Points))
	}

	rows := make([]model.FeatureRow, 0, len(frame.Entries))
	for i := 0; i+1 < len(series.Points); i++ {
		e := &frame.Entries[i]
		next := series.Points[i+1]
		if !e.Complete() || !next.Valid() {
			continue
		}
		label := 0
		if next.Close > series.Points[i].Close {
			label = 1
		}
		rows = append(rows, model.FeatureRow{
			Date:     e.Date,
			Features: Vector(e),
			Label:    label,
		})
	}
	return rows, nil
}

// Vector lays out a complete entry in model.FeatureNames order.
func Vector(e *model.IndicatorEntry) []float64 {
	v := []float64{
		e.RSI14.V,
		e.SMA20.V,
		e.SMA50.V,
		e.MACD.V,
		e.MACDSignal.V,
		e.Volatility.V,
		e.VolumeAvg.V,
	}
	for _, l := range e.CloseLags {
		v = append(v, l.V)
	}
	return v
}

// Matrix splits rows into a design matrix and label vector.
func Matrix(rows []model.FeatureRow) ([][]float64, []int) {
	x := make([][]float64, len(rows))
	y := make([]int, len(rows))
	for i, r := range rows {
		x[i] = r.Features
		y[i] = r.Label
	}
	return x, y
}
