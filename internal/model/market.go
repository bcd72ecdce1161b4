package model

import (
	"math"
	"time"
)

// PricePoint is a single daily OHLCV bar.
type PricePoint struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Valid reports whether the bar carries a usable close. Bars that fail this
// check are treated as gaps by the indicator library.
func (p PricePoint) Valid() bool {
	return p.Close > 0 && !math.IsNaN(p.Close) && !math.IsInf(p.Close, 0)
}

// PriceSeries holds the ordered daily bars of one ticker.
type PriceSeries struct {
	Symbol    string
	Points    []PricePoint
	Source    string
	FetchedAt time.Time
}

// Len returns the number of bars in the series.
func (s *PriceSeries) Len() int { return len(s.Points) }

// Closes returns the close prices in series order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}
