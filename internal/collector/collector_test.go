package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"AlgoSentinel/internal/model"
)

var (
	jan2 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	jan5 = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
)

func TestYahooFetcher_DropsRowsWithoutCloseOrVolume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v8/finance/chart/AAPL") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d,%d,%d],
			"indicators":{"quote":[{"open":[1,2,3],"high":[1,2,3],"low":[1,2,3],
			"close":[10.5,null,12.5],"volume":[100,200,null]}]}}],"error":null}}`,
			jan2.Unix(), jan2.AddDate(0, 0, 1).Unix(), jan2.AddDate(0, 0, 2).Unix())
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 0)
	f.BaseURL = srv.URL
	series, err := f.FetchDaily(context.Background(), "AAPL", jan2, jan5)
	if err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	if series.Len() != 1 {
		t.Fatalf("got %d points, want 1", series.Len())
	}
	if p := series.Points[0]; p.Close != 10.5 || p.Volume != 100 || !p.Date.Equal(jan2) {
		t.Errorf("unexpected point %+v", p)
	}
	if series.Source != "yahoo" {
		t.Errorf("source = %q", series.Source)
	}
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 0)
	f.BaseURL = srv.URL
	if _, err := f.FetchDaily(context.Background(), "NOPE", jan2, jan5); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseHistoryCSV(t *testing.T) {
	in := "Date,Open,High,Low,Close,Adj Close,Volume\n" +
		"2024-01-03,2,2,2,11,11,300\n" +
		"2024-01-02,1,1,1,10,10,200\n" +
		"2024-01-04,null,null,null,null,null,null\n" +
		"2024-01-05,3,3,3,12,12,\n"
	points, err := parseHistoryCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if !points[0].Date.Equal(jan2) || points[0].Close != 10 {
		t.Errorf("points not sorted: %+v", points)
	}
}

func TestParseHistoryCSV_MissingColumn(t *testing.T) {
	if _, err := parseHistoryCSV(strings.NewReader("Date,Open\n2024-01-02,1\n")); err == nil {
		t.Fatal("expected missing column error")
	}
}

func TestRESTFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("auth header = %q", got)
		}
		if r.URL.Query().Get("symbol") != "MSFT" || r.URL.Query().Get("from") != "2024-01-02" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		fmt.Fprintf(w, `[{"timestamp":%d,"open":1,"high":1,"low":1,"close":5,"volume":10},
			{"timestamp":%d,"open":1,"high":1,"low":1,"close":4,"volume":null}]`,
			jan2.Unix(), jan2.AddDate(0, 0, 1).Unix())
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "key", "")
	series, err := f.FetchDaily(context.Background(), "MSFT", jan2, jan5)
	if err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	if series.Len() != 1 || series.Points[0].Close != 5 {
		t.Errorf("unexpected series %+v", series.Points)
	}
}

type flakyFetcher struct {
	name     string
	failures int
	calls    int
}

func (f *flakyFetcher) Name() string { return f.name }

func (f *flakyFetcher) FetchDaily(_ context.Context, symbol string, _, _ time.Time) (*model.PriceSeries, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("boom")
	}
	return &model.PriceSeries{Symbol: symbol, Points: []model.PricePoint{{Date: jan2, Close: 1, Volume: 1}}, Source: f.name}, nil
}

func TestChainFetcher(t *testing.T) {
	t.Run("retries primary", func(t *testing.T) {
		primary := &flakyFetcher{name: "primary", failures: 2}
		fallback := &flakyFetcher{name: "fallback"}
		c := NewChainFetcher(3, time.Millisecond, primary, fallback)

		series, err := c.FetchDaily(context.Background(), "X", jan2, jan5)
		if err != nil {
			t.Fatalf("FetchDaily: %v", err)
		}
		if series.Source != "primary" || primary.calls != 3 || fallback.calls != 0 {
			t.Errorf("source=%s primary=%d fallback=%d", series.Source, primary.calls, fallback.calls)
		}
	})

	t.Run("falls back", func(t *testing.T) {
		primary := &flakyFetcher{name: "primary", failures: 10}
		fallback := &flakyFetcher{name: "fallback"}
		c := NewChainFetcher(3, time.Millisecond, primary, fallback)

		series, err := c.FetchDaily(context.Background(), "X", jan2, jan5)
		if err != nil {
			t.Fatalf("FetchDaily: %v", err)
		}
		if series.Source != "fallback" || primary.calls != 3 {
			t.Errorf("source=%s primary=%d", series.Source, primary.calls)
		}
	})

	t.Run("all exhausted", func(t *testing.T) {
		c := NewChainFetcher(2, time.Millisecond,
			&flakyFetcher{name: "a", failures: 10}, &flakyFetcher{name: "b", failures: 10})
		_, err := c.FetchDaily(context.Background(), "X", jan2, jan5)
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("err = %v, want ErrUnavailable", err)
		}
	})
}

func TestCollector_NormalizesSeries(t *testing.T) {
	raw := &model.PriceSeries{Symbol: "X", Source: "mock", Points: []model.PricePoint{
		{Date: jan2.AddDate(0, 0, -5), Close: 1, Volume: 1}, // before window
		{Date: jan2, Close: 2, Volume: 1},
		{Date: jan2.Add(15 * time.Hour), Close: 3, Volume: 1}, // same day
		{Date: jan2.AddDate(0, 0, 1), Close: 4, Volume: 1},
		{Date: jan5.AddDate(0, 0, 3), Close: 5, Volume: 1}, // after window
	}}
	c := NewCollector(&MockFetcher{Series: map[string]*model.PriceSeries{"X": raw}}, 6, jan2, jan5)

	series, err := c.Collect(context.Background(), "X")
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("got %d points, want 2", series.Len())
	}
	for i := 1; i < series.Len(); i++ {
		if !series.Points[i].Date.After(series.Points[i-1].Date) {
			t.Errorf("dates not strictly increasing at %d", i)
		}
	}
}

func TestCollector_DefaultWindow(t *testing.T) {
	now := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	start, end := Window(now, 6, time.Time{}, time.Time{})
	if !end.Equal(now) || !start.Equal(now.AddDate(0, -6, 0)) {
		t.Errorf("window = %s..%s", start, end)
	}
}

func TestCollector_PropagatesUnavailable(t *testing.T) {
	m := &MockFetcher{Errors: map[string]error{"BAD": ErrUnavailable}}
	c := NewCollector(m, 6, jan2, jan5)
	if _, err := c.Collect(context.Background(), "BAD"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if m.Calls("BAD") != 1 {
		t.Errorf("calls = %d", m.Calls("BAD"))
	}
}

func TestMockFetcher_SkipsWeekends(t *testing.T) {
	m := &MockFetcher{}
	series, err := m.FetchDaily(context.Background(), "M", jan2, jan2.AddDate(0, 0, 13))
	if err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}
	if series.Len() != 10 {
		t.Errorf("got %d bars over two weeks, want 10", series.Len())
	}
}

func TestCachedFetcher_Redis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	m := &MockFetcher{}
	c, err := NewCachedFetcher(m, RedisConfig{Addr: addr, TTL: time.Minute})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	c.client.Del(ctx, cacheKey("CACHE", jan2, jan5))
	for i := 0; i < 2; i++ {
		if _, err := c.FetchDaily(ctx, "CACHE", jan2, jan5); err != nil {
			t.Fatalf("FetchDaily: %v", err)
		}
	}
	if m.Calls("CACHE") != 1 {
		t.Errorf("upstream calls = %d, want 1", m.Calls("CACHE"))
	}
}
