// Package metrics exposes Prometheus counters for runs and tickers.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"AlgoSentinel/internal/model"
)

// Metrics holds all Prometheus metrics for the analysis runs.
type Metrics struct {
	RunsTotal      *prometheus.CounterVec // labels: status=ok|failed
	TickersTotal   *prometheus.CounterVec // labels: status (TickerStatus)
	TradesTotal    prometheus.Counter
	FoldsSkipped   prometheus.Counter
	TickerDuration prometheus.Histogram
	RunDuration    prometheus.Histogram
	LastRunTime    prometheus.Gauge
	RunInProgress  prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics registers and returns all metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "algosentinel_runs_total",
			Help: "Completed runs by outcome",
		}, []string{"status"}),
		TickersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "algosentinel_tickers_total",
			Help: "Tickers processed by summary status",
		}, []string{"status"}),
		TradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "algosentinel_trades_total",
			Help: "Simulated trades closed across all runs",
		}),
		FoldsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "algosentinel_validation_folds_skipped_total",
			Help: "Validation folds skipped for lack of data",
		}),
		TickerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "algosentinel_ticker_pipeline_seconds",
			Help:    "Time spent in one ticker's analysis pipeline",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "algosentinel_run_seconds",
			Help:    "Wall time of a full run including fetches",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		LastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "algosentinel_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		RunInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "algosentinel_run_in_progress",
			Help: "1 while a run is executing",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.RunsTotal,
		m.TickersTotal,
		m.TradesTotal,
		m.FoldsSkipped,
		m.TickerDuration,
		m.RunDuration,
		m.LastRunTime,
		m.RunInProgress,
	)
	return m
}

// ObserveTicker records one ticker's summary.
func (m *Metrics) ObserveTicker(s *model.SummaryMetrics, took time.Duration) {
	m.TickersTotal.WithLabelValues(string(s.Status)).Inc()
	m.TradesTotal.Add(float64(s.TradeCount))
	m.FoldsSkipped.Add(float64(s.FoldsSkipped))
	if s.Status == model.StatusOK {
		m.TickerDuration.Observe(took.Seconds())
	}
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(failed bool, took time.Duration) {
	status := "ok"
	if failed {
		status = "failed"
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(took.Seconds())
	m.LastRunTime.SetToCurrentTime()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server. health is called on each
// /healthz request and its result is encoded as JSON.
func NewServer(addr string, m *Metrics, health func() any) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health())
	})
	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.addr).Msg("metrics server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
