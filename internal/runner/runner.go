// Package runner executes one analysis run over many tickers: fetch, run
// every per-ticker pipeline in parallel, merge, persist and notify.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"AlgoSentinel/internal/collector"
	"AlgoSentinel/internal/metrics"
	"AlgoSentinel/internal/model"
	"AlgoSentinel/internal/notifier"
	"AlgoSentinel/internal/pipeline"
	"AlgoSentinel/internal/recorder"
	"AlgoSentinel/internal/state"
)

var (
	// ErrAllTickersFailed is returned when no ticker produced a result.
	ErrAllTickersFailed = errors.New("runner: every ticker failed")
	// ErrRunInProgress is returned when a run is requested while one is executing.
	ErrRunInProgress = errors.New("runner: a run is already in progress")
)

// abortTimeout bounds the failure report of a cancelled run.
const abortTimeout = 30 * time.Second

// Options wires a Runner. Recorder, Notifier, Metrics and State are optional.
type Options struct {
	Collector     *collector.Collector
	Pipeline      pipeline.Config
	Recorder      recorder.Recorder
	Notifier      notifier.Notifier
	Metrics       *metrics.Metrics
	State         *state.Manager
	Workers       int
	NotifyRetries int
	NotifyBackoff time.Duration
}

// Runner executes runs. It is safe to call Run from several goroutines; the
// state manager rejects overlapping runs.
type Runner struct {
	opts Options
}

// New creates a Runner, filling unset collaborators with no-op versions.
func New(opts Options) *Runner {
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Notifier == nil {
		opts.Notifier = notifier.LogNotifier{}
	}
	if opts.State == nil {
		opts.State, _ = state.NewManager("")
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.NotifyBackoff <= 0 {
		opts.NotifyBackoff = time.Second
	}
	return &Runner{opts: opts}
}

// State exposes the last-run state for status queries.
func (r *Runner) State() *state.Manager { return r.opts.State }

// Report is the merged outcome of one run. Results and Summaries follow the
// order of the requested symbols.
type Report struct {
	RunID      string
	Symbols    []string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []*pipeline.Result
	Summaries  []model.SummaryMetrics
	Totals     model.Totals
}

// Run analyses symbols. Per-ticker failures are reported in the summaries;
// the returned error is ErrAllTickersFailed when no ticker reached the end
// of its pipeline, or a context error.
func (r *Runner) Run(ctx context.Context, symbols []string) (*Report, error) {
	if !r.opts.State.TryStart() {
		return nil, ErrRunInProgress
	}
	if r.opts.Metrics != nil {
		r.opts.Metrics.RunInProgress.Set(1)
		defer r.opts.Metrics.RunInProgress.Set(0)
	}

	rep := &Report{RunID: uuid.NewString(), Symbols: symbols, StartedAt: time.Now()}
	logger := log.With().Str("run_id", rep.RunID).Logger()
	logger.Info().Strs("symbols", symbols).Int("workers", r.opts.Workers).Msg("run started")

	start, end := r.opts.Collector.Range()
	r.notify(ctx, logger, notifier.FormatRunStart(rep.RunID, symbols, start, end))

	results, err := r.processAll(ctx, logger, symbols)
	if err != nil {
		r.abort(ctx, logger, rep, err)
		return nil, err
	}

	rep.Results = results
	rep.Summaries = make([]model.SummaryMetrics, len(results))
	for i, res := range results {
		rep.Summaries[i] = res.Summary
		r.persist(ctx, logger, rep.RunID, res)
	}
	rep.Totals = model.Aggregate(rep.Summaries)
	rep.FinishedAt = time.Now()

	var runErr error
	if rep.Totals.Processed == 0 {
		runErr = fmt.Errorf("%w: %d tickers, %d unavailable or failed, %d with insufficient history",
			ErrAllTickersFailed, rep.Totals.Tickers, rep.Totals.Failed, rep.Totals.Skipped)
		r.notify(ctx, logger, notifier.FormatRunFailed(rep.RunID, runErr))
	} else {
		r.notify(ctx, logger, notifier.FormatRunComplete(notifier.RunDigest{
			RunID:     rep.RunID,
			Summaries: rep.Summaries,
			Took:      rep.FinishedAt.Sub(rep.StartedAt),
		}))
	}

	r.finish(ctx, logger, rep, runErr != nil)
	return rep, runErr
}

// processAll runs every ticker's fetch and pipeline with at most Workers in
// flight. Each goroutine owns one slot of the result slice.
func (r *Runner) processAll(ctx context.Context, logger zerolog.Logger, symbols []string) ([]*pipeline.Result, error) {
	results := make([]*pipeline.Result, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			res, err := r.processOne(gctx, logger, symbol)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// processOne returns an error only when the run itself was cancelled.
func (r *Runner) processOne(ctx context.Context, logger zerolog.Logger, symbol string) (*pipeline.Result, error) {
	series, err := r.opts.Collector.Collect(ctx, symbol)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn().Str("symbol", symbol).Err(err).Msg("ticker unavailable")
		return pipeline.Skipped(symbol, model.StatusUnavailable), nil
	}

	res, err := pipeline.Process(series, r.opts.Pipeline)
	if err != nil {
		logger.Error().Str("symbol", symbol).Err(err).Msg("ticker pipeline failed")
		return pipeline.Skipped(symbol, model.StatusFailed), nil
	}
	return res, nil
}

// persist hands one ticker's streams to the recorder. Recorder failures are
// logged; they never change the run outcome.
func (r *Runner) persist(ctx context.Context, logger zerolog.Logger, runID string, res *pipeline.Result) {
	rec := r.opts.Recorder
	if err := rec.RecordTrades(ctx, runID, res.Trades); err != nil {
		logger.Error().Str("symbol", res.Symbol).Err(err).Msg("record trades")
	}
	if err := rec.RecordSummary(ctx, runID, &res.Summary); err != nil {
		logger.Error().Str("symbol", res.Symbol).Err(err).Msg("record summary")
	}
	if err := rec.RecordSignals(ctx, runID, res.Symbol, res.Signals); err != nil {
		logger.Error().Str("symbol", res.Symbol).Err(err).Msg("record signals")
	}
	if r.opts.Metrics != nil {
		r.opts.Metrics.ObserveTicker(&res.Summary, res.Duration)
	}
}

func (r *Runner) finish(ctx context.Context, logger zerolog.Logger, rep *Report, failed bool) {
	status := "OK"
	if failed {
		status = "FAILED"
	}
	run := &recorder.RunRecord{
		ID:          rep.RunID,
		StartedAt:   rep.StartedAt,
		FinishedAt:  rep.FinishedAt,
		Symbols:     rep.Symbols,
		Processed:   rep.Totals.Processed,
		Failed:      rep.Totals.Failed,
		TotalTrades: rep.Totals.Trades,
		Status:      status,
	}
	if err := r.opts.Recorder.RecordRun(ctx, run); err != nil {
		logger.Error().Err(err).Msg("record run")
	}

	last := &state.LastRun{
		RunID:       rep.RunID,
		Status:      status,
		StartedAt:   rep.StartedAt,
		FinishedAt:  rep.FinishedAt,
		Symbols:     rep.Symbols,
		Processed:   rep.Totals.Processed,
		Failed:      rep.Totals.Failed,
		TotalTrades: rep.Totals.Trades,
		WinRate:     rep.Totals.WinRate.V,
	}
	for _, s := range rep.Summaries {
		ts := state.TickerState{
			Symbol:      s.Symbol,
			Status:      string(s.Status),
			Trades:      s.TradeCount,
			WinRate:     s.WinRate,
			TotalPnLPct: s.TotalPnLPct,
			MLStatus:    string(s.MLStatus),
		}
		if v, ok := s.MLAccuracyLogReg.Get(); ok {
			ts.AccuracyLogReg = &v
		}
		if v, ok := s.MLAccuracyTree.Get(); ok {
			ts.AccuracyTree = &v
		}
		last.Tickers = append(last.Tickers, ts)
	}
	r.opts.State.Finish(last)

	if r.opts.Metrics != nil {
		r.opts.Metrics.ObserveRun(failed, rep.FinishedAt.Sub(rep.StartedAt))
	}
	logger.Info().
		Str("status", status).
		Int("processed", rep.Totals.Processed).
		Int("failed", rep.Totals.Failed).
		Int("trades", rep.Totals.Trades).
		Stringer("win_rate", rep.Totals.WinRate).
		Dur("took", rep.FinishedAt.Sub(rep.StartedAt)).
		Msg("run finished")
}

// abort closes out a run whose context ended mid-way. The run's context is
// already done, so the failure is reported and recorded on a detached one.
func (r *Runner) abort(ctx context.Context, logger zerolog.Logger, rep *Report, cause error) {
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortTimeout)
	defer cancel()

	rep.FinishedAt = time.Now()
	rep.Totals = model.Totals{Tickers: len(rep.Symbols)}
	logger.Warn().Err(cause).Msg("run aborted")
	r.notify(actx, logger, notifier.FormatRunFailed(rep.RunID, fmt.Errorf("run aborted: %w", cause)))
	r.finish(actx, logger, rep, true)
}

func (r *Runner) notify(ctx context.Context, logger zerolog.Logger, text string) {
	if err := notifier.SendWithRetry(ctx, r.opts.Notifier, text, r.opts.NotifyRetries, r.opts.NotifyBackoff); err != nil {
		logger.Error().Err(err).Msg("notification failed")
	}
}
