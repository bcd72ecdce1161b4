// Package recorder persists run outputs: the trades, summaries and signals
// streams plus one row per run.
package recorder

import (
	"context"
	"time"

	"AlgoSentinel/internal/model"
)

// RunRecord describes one completed run.
type RunRecord struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Symbols     []string
	Processed   int // tickers that reached the pipeline
	Failed      int // tickers that were unavailable or errored
	TotalTrades int
	Status      string // "OK" or "FAILED"
}

// Recorder persists historical data for analysis. Each call writes its batch
// atomically.
type Recorder interface {
	RecordRun(ctx context.Context, run *RunRecord) error
	RecordTrades(ctx context.Context, runID string, trades []model.TradeRecord) error
	RecordSummary(ctx context.Context, runID string, s *model.SummaryMetrics) error
	RecordSignals(ctx context.Context, runID, symbol string, signals []model.Signal) error
	Close() error
}

// nullable maps an undefined Value to SQL NULL.
func nullable(v model.Value) any {
	if !v.OK {
		return nil
	}
	return v.V
}

func dateString(t time.Time) string { return t.Format("2006-01-02") }
