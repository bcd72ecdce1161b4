package collector

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"AlgoSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols with an entry in Series get that series; symbols in Errors fail;
// anything else gets a generated oscillating series.
type MockFetcher struct {
	BasePrice float64
	Series    map[string]*model.PriceSeries
	Errors    map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many times symbol was fetched.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

func (m *MockFetcher) FetchDaily(_ context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++
	m.mu.Unlock()

	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	if s, ok := m.Series[symbol]; ok {
		return s, nil
	}
	if !end.After(start) {
		return nil, fmt.Errorf("mock: empty range for %s", symbol)
	}
	base := m.BasePrice
	if base == 0 {
		base = 100
	}
	return generateMockSeries(symbol, base, start, end), nil
}

// generateMockSeries emits one bar per weekday between start and end.
func generateMockSeries(symbol string, basePrice float64, start, end time.Time) *model.PriceSeries {
	var points []model.PricePoint
	i := 0
	for d := dayOf(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + 0.08*math.Sin(float64(i)/5) + 0.001*float64(i))
		points = append(points, model.PricePoint{
			Date:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000 + float64(i%5)*1000,
		})
		i++
	}
	return &model.PriceSeries{Symbol: symbol, Points: points, Source: "mock", FetchedAt: time.Now()}
}
