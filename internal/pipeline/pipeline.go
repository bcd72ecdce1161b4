// Package pipeline runs the full analysis of one ticker: indicators, signal
// evaluation and backtest, then feature extraction and forward-chaining
// validation. It performs no I/O; the caller owns fetching and persistence.
package pipeline

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"AlgoSentinel/internal/backtest"
	"AlgoSentinel/internal/calculator"
	"AlgoSentinel/internal/features"
	"AlgoSentinel/internal/model"
	"AlgoSentinel/internal/strategy"
	"AlgoSentinel/internal/validation"
)

// Config bundles the tunables of every stage.
type Config struct {
	Indicators calculator.Params
	Rules      strategy.Rules
	Validation validation.Config
}

// DefaultConfig returns the stock RSI/SMA strategy with 5-fold validation.
func DefaultConfig() Config {
	return Config{
		Indicators: calculator.DefaultParams(),
		Rules:      strategy.DefaultRules(),
		Validation: validation.DefaultConfig(),
	}
}

// Result is everything produced for one ticker. Summary is always set;
// the other fields are empty when the ticker was skipped.
type Result struct {
	Symbol   string
	Signals  []model.Signal
	Trades   []model.TradeRecord
	Summary  model.SummaryMetrics
	Folds    []model.FoldResult
	Stats    calculator.FrameStats
	Duration time.Duration
}

// Skipped builds the result for a ticker that never reached the pipeline.
func Skipped(symbol string, status model.TickerStatus) *Result {
	return &Result{
		Symbol: symbol,
		Summary: model.SummaryMetrics{
			Symbol:      symbol,
			Status:      status,
			TradeStatus: model.TradesNone,
			MLStatus:    model.MLNotRun,
		},
	}
}

// Process runs every stage for one series. Recoverable outcomes (short
// history, gaps, no trades, skipped folds) are reported in the summary; an
// error means the ticker produced nothing usable.
func Process(series *model.PriceSeries, cfg Config) (*Result, error) {
	start := time.Now()
	logger := log.With().Str("symbol", series.Symbol).Logger()

	frame, stats := calculator.BuildFrame(series, cfg.Indicators)
	if frame.Empty() {
		logger.Warn().Int("valid_points", stats.ValidPoints).Int("required", cfg.Indicators.LongestWindow()).
			Msg("insufficient history, ticker skipped")
		res := Skipped(series.Symbol, model.StatusInsufficientHistory)
		res.Stats = stats
		res.Summary.DataGaps = stats.Gaps
		res.Duration = time.Since(start)
		return res, nil
	}
	if stats.Gaps > 0 {
		logger.Info().Int("gaps", stats.Gaps).Msg("series has gaps, indicators restart after each")
	}

	bt, err := backtest.Run(series, frame, cfg.Rules)
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}

	rows, err := features.Build(series, frame)
	if err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}
	rep, err := validation.Run(series.Symbol, rows, cfg.Validation)
	if err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}

	summary := bt.Metrics
	summary.Status = model.StatusOK
	summary.DataGaps = stats.Gaps
	summary.MLStatus = rep.Status
	summary.MLAccuracyLogReg = rep.AccuracyLogReg
	summary.MLAccuracyTree = rep.AccuracyTree
	summary.FoldsEvaluated = len(rep.Folds)
	summary.FoldsSkipped = len(rep.Skipped)

	res := &Result{
		Symbol:   series.Symbol,
		Signals:  bt.Signals,
		Trades:   bt.Trades,
		Summary:  summary,
		Folds:    rep.Folds,
		Stats:    stats,
		Duration: time.Since(start),
	}
	logger.Info().
		Int("signals", len(res.Signals)).
		Int("trades", summary.TradeCount).
		Float64("win_rate", summary.WinRate).
		Str("ml_status", string(summary.MLStatus)).
		Stringer("acc_logreg", summary.MLAccuracyLogReg).
		Stringer("acc_tree", summary.MLAccuracyTree).
		Dur("took", res.Duration).
		Msg("ticker processed")
	return res, nil
}
