// Package collector fetches daily price history for the analysis pipeline.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"AlgoSentinel/internal/model"
)

// Collector resolves the date window and normalizes what a Fetcher returns.
type Collector struct {
	Fetcher        Fetcher
	LookbackMonths int
	Start          time.Time // zero means lookback from End
	End            time.Time // zero means now
	now            func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, lookbackMonths int, start, end time.Time) *Collector {
	if lookbackMonths <= 0 {
		lookbackMonths = 6
	}
	return &Collector{Fetcher: fetcher, LookbackMonths: lookbackMonths, Start: start, End: end, now: time.Now}
}

// Range returns the date window the next Collect call will request.
func (c *Collector) Range() (time.Time, time.Time) {
	return Window(c.now(), c.LookbackMonths, c.Start, c.End)
}

// Collect fetches one ticker and returns its bars in strictly increasing
// date order, with duplicates and out-of-window rows removed.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	start, end := c.Range()
	series, err := c.Fetcher.FetchDaily(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", symbol, err)
	}

	from, to := dayOf(start), dayOf(end)
	points := make([]model.PricePoint, 0, len(series.Points))
	for _, p := range series.Points {
		d := dayOf(p.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		if n := len(points); n > 0 && !d.After(points[n-1].Date) {
			continue
		}
		p.Date = d
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("collect %s: %w: no bars in %s..%s", symbol, ErrUnavailable,
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	log.Debug().Str("symbol", symbol).Str("source", series.Source).Int("bars", len(points)).Msg("series collected")

	return &model.PriceSeries{
		Symbol:    symbol,
		Points:    points,
		Source:    series.Source,
		FetchedAt: series.FetchedAt,
	}, nil
}
