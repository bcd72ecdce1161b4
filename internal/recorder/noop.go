package recorder

import (
	"context"

	"AlgoSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(context.Context, *RunRecord) error                         { return nil }
func (n *NoopRecorder) RecordTrades(context.Context, string, []model.TradeRecord) error     { return nil }
func (n *NoopRecorder) RecordSummary(context.Context, string, *model.SummaryMetrics) error  { return nil }
func (n *NoopRecorder) RecordSignals(context.Context, string, string, []model.Signal) error { return nil }
func (n *NoopRecorder) Close() error                                                        { return nil }
