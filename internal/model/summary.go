package model

import "github.com/shopspring/decimal"

// TickerStatus is the overall outcome of one ticker's pipeline.
type TickerStatus string

const (
	StatusOK                  TickerStatus = "OK"
	StatusInsufficientHistory TickerStatus = "INSUFFICIENT_HISTORY"
	StatusUnavailable         TickerStatus = "UNAVAILABLE"
	StatusFailed              TickerStatus = "FAILED" // pipeline error
)

// TradeStatus distinguishes "no trades" from a computed win rate.
type TradeStatus string

const (
	TradesPresent TradeStatus = "TRADES"
	TradesNone    TradeStatus = "NO_TRADES"
)

// MLStatus is the outcome of the validation pipeline for one ticker.
type MLStatus string

const (
	MLOK               MLStatus = "OK"
	MLPartial          MLStatus = "PARTIAL" // at least one fold skipped
	MLInsufficientData MLStatus = "INSUFFICIENT_DATA"
	MLNotRun           MLStatus = "NOT_RUN"
)

// SummaryMetrics is the per-ticker summary. It is recomputed from scratch
// on every run.
type SummaryMetrics struct {
	Symbol           string
	Status           TickerStatus
	TradeStatus      TradeStatus
	TradeCount       int
	Wins             int
	Losses           int
	WinRate          float64 // 0 when TradeStatus is TradesNone
	TotalPnL         decimal.Decimal
	TotalPnLPct      float64 // cumulative, not compounded
	AvgHoldingDays   float64
	MLStatus         MLStatus
	MLAccuracyLogReg Value
	MLAccuracyTree   Value
	FoldsEvaluated   int
	FoldsSkipped     int
	DataGaps         int
}

// HasTrades reports whether the win rate is meaningful.
func (s *SummaryMetrics) HasTrades() bool { return s.TradeStatus == TradesPresent }

// Totals aggregates summaries across tickers after every pipeline is done.
type Totals struct {
	Tickers   int
	Processed int // Status OK
	Skipped   int // insufficient history
	Failed    int // unavailable or pipeline error
	Trades    int
	Wins      int
	WinRate   Value // total wins / total trades; undefined without trades
}

// Aggregate merges per-ticker summaries.
func Aggregate(summaries []SummaryMetrics) Totals {
	t := Totals{Tickers: len(summaries)}
	for _, s := range summaries {
		switch s.Status {
		case StatusOK:
			t.Processed++
		case StatusInsufficientHistory:
			t.Skipped++
		default:
			t.Failed++
		}
		t.Trades += s.TradeCount
		t.Wins += s.Wins
	}
	if t.Trades > 0 {
		t.WinRate = Some(float64(t.Wins) / float64(t.Trades))
	}
	return t
}
