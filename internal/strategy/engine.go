package strategy

import (
	"errors"
	"fmt"
	"time"

	"AlgoSentinel/internal/model"
)

// ErrOutOfOrder is returned when entries are not fed in ascending date order.
var ErrOutOfOrder = errors.New("strategy: entries must be evaluated in ascending date order")

// Evaluator turns indicator entries into signals. It keeps only the previous
// date's SMA relation, which the death-cross rule needs; it holds no position
// state. Use one Evaluator per ticker.
type Evaluator struct {
	rules     Rules
	prevShort model.Value
	prevLong  model.Value
	lastDate  time.Time
	started   bool
}

// NewEvaluator creates an Evaluator with the given rules.
func NewEvaluator(rules Rules) *Evaluator {
	return &Evaluator{rules: rules}
}

// Reset forgets the previous date.
func (ev *Evaluator) Reset() {
	ev.prevShort, ev.prevLong = model.None(), model.None()
	ev.lastDate = time.Time{}
	ev.started = false
}

// Evaluate returns the signal for one date, or nil when the entry is not
// fully defined. inPosition tells whether the caller currently holds a
// position; exits are only signalled while one is held and take precedence
// over entries.
func (ev *Evaluator) Evaluate(e *model.IndicatorEntry, inPosition bool) (*model.Signal, error) {
	if ev.started && !e.Date.After(ev.lastDate) {
		return nil, fmt.Errorf("%w: %s after %s", ErrOutOfOrder,
			e.Date.Format("2006-01-02"), ev.lastDate.Format("2006-01-02"))
	}
	prevShort, prevLong := ev.prevShort, ev.prevLong
	ev.prevShort, ev.prevLong = e.SMA20, e.SMA50
	ev.lastDate = e.Date
	ev.started = true

	if !e.Complete() {
		return nil, nil
	}

	sig := &model.Signal{
		Date:   e.Date,
		Action: model.ActionHold,
		Reason: model.ReasonNone,
		Close:  e.Close,
		RSI:    e.RSI14.V,
		SMA20:  e.SMA20.V,
		SMA50:  e.SMA50.V,
	}

	switch {
	case inPosition && ev.rules.overbought(e):
		sig.Action, sig.Reason = model.ActionExit, model.ReasonOverbought
	case inPosition && deathCross(prevShort, prevLong, e):
		sig.Action, sig.Reason = model.ActionExit, model.ReasonDeathCross
	case ev.rules.oversoldUptrend(e):
		sig.Action, sig.Reason = model.ActionEnter, model.ReasonOversoldUptrend
	}
	return sig, nil
}

// EvaluateFrame evaluates every entry of a frame in order against a fixed
// position flag. The backtest drives the evaluator step by step instead;
// this is for callers that only want the raw entry conditions.
func EvaluateFrame(frame *model.IndicatorFrame, rules Rules, inPosition bool) ([]model.Signal, error) {
	ev := NewEvaluator(rules)
	signals := make([]model.Signal, 0, len(frame.Entries))
	for i := range frame.Entries {
		sig, err := ev.Evaluate(&frame.Entries[i], inPosition)
		if err != nil {
			return nil, err
		}
		if sig != nil {
			signals = append(signals, *sig)
		}
	}
	return signals, nil
}
