package backtest

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"AlgoSentinel/internal/model"
	"AlgoSentinel/internal/strategy"
)

// Result is the output of one ticker's backtest.
type Result struct {
	Signals []model.Signal
	Trades  []model.TradeRecord
	Metrics model.SummaryMetrics
}

// Run evaluates the frame date by date and drives the simulator with the
// resulting signals. The evaluator is told on each date whether the
// simulator holds a position, so exits are only signalled when one is open.
func Run(series *model.PriceSeries, frame *model.IndicatorFrame, rules strategy.Rules) (*Result, error) {
	last, ok := lastValidPoint(series)
	if !ok {
		return &Result{Metrics: ComputeMetrics(series.Symbol, nil)}, nil
	}

	ev := strategy.NewEvaluator(rules)
	sim := NewSimulator(series.Symbol, last.Date)
	res := &Result{}

	for i := range frame.Entries {
		sig, err := ev.Evaluate(&frame.Entries[i], sim.InPosition())
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", series.Symbol, err)
		}
		if sig == nil {
			continue
		}
		res.Signals = append(res.Signals, *sig)
		tr, err := sim.Step(*sig)
		if err != nil {
			return nil, fmt.Errorf("simulate %s: %w", series.Symbol, err)
		}
		if tr != nil {
			log.Debug().Str("symbol", series.Symbol).
				Time("entry", tr.EntryDate).Time("exit", tr.ExitDate).
				Str("pnl", tr.PnL.StringFixed(2)).Str("reason", string(tr.ExitReason)).
				Msg("trade closed")
		}
	}
	if tr := sim.Finish(last.Date, last.Close); tr != nil {
		log.Debug().Str("symbol", series.Symbol).Time("exit", tr.ExitDate).Msg("position force-closed at end of series")
	}

	res.Trades = sim.Trades()
	res.Metrics = ComputeMetrics(series.Symbol, res.Trades)
	return res, nil
}

// Replay runs a precomputed action stream through a fresh simulator.
func Replay(series *model.PriceSeries, signals []model.Signal) ([]model.TradeRecord, model.SummaryMetrics, error) {
	last, ok := lastValidPoint(series)
	if !ok {
		return nil, ComputeMetrics(series.Symbol, nil), nil
	}
	sim := NewSimulator(series.Symbol, last.Date)
	for _, sig := range signals {
		if _, err := sim.Step(sig); err != nil {
			return nil, model.SummaryMetrics{}, err
		}
	}
	sim.Finish(last.Date, last.Close)
	trades := sim.Trades()
	return trades, ComputeMetrics(series.Symbol, trades), nil
}

func lastValidPoint(series *model.PriceSeries) (model.PricePoint, bool) {
	for i := len(series.Points) - 1; i >= 0; i-- {
		if series.Points[i].Valid() {
			return series.Points[i], true
		}
	}
	return model.PricePoint{}, false
}
