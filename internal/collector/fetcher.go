package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"AlgoSentinel/internal/model"
)

// ErrUnavailable is returned when no source could deliver a series.
var ErrUnavailable = errors.New("collector: price data unavailable")

// Fetcher defines the interface for fetching daily price history.
type Fetcher interface {
	// FetchDaily returns daily bars for symbol with dates in [start, end],
	// sorted by date.
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error)
	Name() string
}

// Window resolves the requested date range. Explicit start/end win; otherwise
// the range covers the last lookbackMonths months ending at now.
func Window(now time.Time, lookbackMonths int, start, end time.Time) (time.Time, time.Time) {
	if end.IsZero() {
		end = now
	}
	if start.IsZero() {
		start = end.AddDate(0, -lookbackMonths, 0)
	}
	return start, end
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
