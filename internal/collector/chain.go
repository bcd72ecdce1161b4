package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"AlgoSentinel/internal/model"
)

// ChainFetcher tries each source in order, retrying each up to Attempts
// times with a fixed Delay. When every source fails it returns an error
// wrapping ErrUnavailable.
type ChainFetcher struct {
	Sources  []Fetcher
	Attempts int
	Delay    time.Duration
}

// NewChainFetcher builds a retry/fallback chain over sources.
func NewChainFetcher(attempts int, delay time.Duration, sources ...Fetcher) *ChainFetcher {
	if attempts < 1 {
		attempts = 1
	}
	return &ChainFetcher{Sources: sources, Attempts: attempts, Delay: delay}
}

func (c *ChainFetcher) Name() string { return "chain" }

func (c *ChainFetcher) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	var errs []error
	for _, src := range c.Sources {
		series, err := c.fetchWithRetry(ctx, src, symbol, start, end)
		if err == nil {
			return series, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn().Str("symbol", symbol).Str("source", src.Name()).Err(err).Msg("source exhausted, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, symbol, errors.Join(errs...))
}

func (c *ChainFetcher) fetchWithRetry(ctx context.Context, src Fetcher, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	var lastErr error
	for attempt := 1; attempt <= c.Attempts; attempt++ {
		series, err := src.FetchDaily(ctx, symbol, start, end)
		if err == nil && series.Len() > 0 {
			return series, nil
		}
		if err == nil {
			err = fmt.Errorf("empty series")
		}
		lastErr = err
		log.Debug().Str("symbol", symbol).Str("source", src.Name()).Int("attempt", attempt).Err(err).Msg("fetch attempt failed")

		if attempt < c.Attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.Delay):
			}
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", c.Attempts, lastErr)
}
