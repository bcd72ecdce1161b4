package cmd

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"AlgoSentinel/internal/collector"
	"AlgoSentinel/internal/config"
	"AlgoSentinel/internal/metrics"
	"AlgoSentinel/internal/notifier"
	"AlgoSentinel/internal/recorder"
	"AlgoSentinel/internal/runner"
	"AlgoSentinel/internal/state"
)

// app is the wired object graph shared by run and serve.
type app struct {
	runner   *runner.Runner
	metrics  *metrics.Metrics
	telegram *notifier.TelegramNotifier // nil when Telegram is not configured
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{metrics: metrics.NewMetrics()}

	col, err := buildCollector(cfg, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	st, err := state.NewManager(cfg.StateFile)
	if err != nil {
		a.Close()
		return nil, err
	}

	var n notifier.Notifier = notifier.LogNotifier{}
	if cfg.TelegramEnabled() {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = a.telegram
	} else {
		log.Info().Msg("telegram not configured, notifications go to the log")
	}

	a.runner = runner.New(runner.Options{
		Collector:     col,
		Pipeline:      cfg.Pipeline(),
		Recorder:      buildRecorder(ctx, cfg, a),
		Notifier:      n,
		Metrics:       a.metrics,
		State:         st,
		Workers:       cfg.Workers,
		NotifyRetries: 3,
		NotifyBackoff: time.Second,
	})
	return a, nil
}

// buildCollector assembles source -> retry/fallback chain -> optional cache.
func buildCollector(cfg *config.Config, a *app) (*collector.Collector, error) {
	ds := cfg.DataSource
	chart := collector.NewYahooFetcher(cfg.Proxy, ds.RequestsPerSecond)
	csv := collector.NewYahooCSVFetcher(cfg.Proxy, ds.RequestsPerSecond)

	var sources []collector.Fetcher
	switch {
	case ds.BaseURL != "":
		sources = []collector.Fetcher{collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy), chart, csv}
	case ds.PreferCSV:
		sources = []collector.Fetcher{csv, chart}
	default:
		sources = []collector.Fetcher{chart, csv}
	}
	var fetcher collector.Fetcher = collector.NewChainFetcher(ds.MaxRetries, ds.RetryDelay, sources...)

	if cfg.Redis.Addr != "" {
		cached, err := collector.NewCachedFetcher(fetcher, collector.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis cache unavailable, fetching directly")
		} else {
			fetcher = cached
			a.closers = append(a.closers, cached.Close)
		}
	}

	start, end, err := cfg.DateRange()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	log.Info().Strs("sources", names).Str("fetcher", fetcher.Name()).Msg("data source configured")
	return collector.NewCollector(fetcher, ds.LookbackMonths, start, end), nil
}

// buildRecorder prefers Postgres, then SQLite, then a no-op recorder.
func buildRecorder(ctx context.Context, cfg *config.Config, a *app) recorder.Recorder {
	if url := cfg.Database.PostgresURL; url != "" {
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pr, err := recorder.NewPostgresRecorder(pctx, url)
		if err == nil {
			a.closers = append(a.closers, pr.Close)
			return pr
		}
		log.Warn().Err(err).Msg("init postgres recorder failed, trying sqlite")
	}
	if path := cfg.Database.SQLitePath; path != "" {
		sr, err := recorder.NewSQLiteRecorder(path)
		if err == nil {
			a.closers = append(a.closers, sr.Close)
			return sr
		}
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
	}
	return recorder.NewNoopRecorder()
}
