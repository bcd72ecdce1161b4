package collector

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"AlgoSentinel/internal/model"
)

// YahooCSVFetcher downloads the Yahoo Finance history CSV. It is used as a
// fallback when the chart API fails.
type YahooCSVFetcher struct {
	Client  *http.Client
	BaseURL string
	limiter *rate.Limiter
}

// NewYahooCSVFetcher creates a CSV fetcher throttled to rps requests per second.
func NewYahooCSVFetcher(proxyURL string, rps float64) *YahooCSVFetcher {
	return &YahooCSVFetcher{
		Client:  newHTTPClient(proxyURL),
		BaseURL: "https://query1.finance.yahoo.com",
		limiter: newLimiter(rps),
	}
}

func (f *YahooCSVFetcher) Name() string { return "yahoo-csv" }

func (f *YahooCSVFetcher) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	if err := wait(ctx, f.limiter); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/v7/finance/download/%s?period1=%d&period2=%d&interval=1d&events=history",
		f.BaseURL, url.PathEscape(symbol), start.Unix(), end.AddDate(0, 0, 1).Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo csv fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("yahoo csv: status %d, body: %s", resp.StatusCode, string(body))
	}

	points, err := parseHistoryCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo csv %s: %w", symbol, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("yahoo csv: no data returned for %s", symbol)
	}
	return &model.PriceSeries{
		Symbol:    symbol,
		Points:    points,
		Source:    f.Name(),
		FetchedAt: time.Now(),
	}, nil
}

// parseHistoryCSV reads Date,Open,High,Low,Close,Adj Close,Volume rows.
// Rows whose close or volume is missing ("null" or empty) are dropped.
func parseHistoryCSV(r io.Reader) ([]model.PricePoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	field := func(rec []string, name string) (float64, bool) {
		i := col[name]
		if i >= len(rec) {
			return 0, false
		}
		s := strings.TrimSpace(rec[i])
		if s == "" || s == "null" {
			return 0, false
		}
		v, err := strconv.ParseFloat(s, 64)
		return v, err == nil
	}

	var points []model.PricePoint
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(rec[col["date"]]))
		if err != nil {
			continue
		}
		c, okC := field(rec, "close")
		v, okV := field(rec, "volume")
		if !okC || !okV {
			continue
		}
		o, _ := field(rec, "open")
		h, _ := field(rec, "high")
		l, _ := field(rec, "low")
		points = append(points, model.PricePoint{Date: date, Open: o, High: h, Low: l, Close: c, Volume: v})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}
