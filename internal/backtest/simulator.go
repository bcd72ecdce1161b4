package backtest

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"AlgoSentinel/internal/model"
)

// ErrNonMonotonicSignal is returned when a signal is not strictly after the
// previous one.
var ErrNonMonotonicSignal = errors.New("backtest: signals must arrive in ascending date order")

// Simulator is the per-ticker position state machine. It holds at most one
// open position; an ENTER while a position is open is ignored.
type Simulator struct {
	symbol   string
	lastDate time.Time
	position *model.Position
	trades   []model.TradeRecord
	prevDate time.Time
}

// NewSimulator creates a Simulator for a series whose last tradable date is
// lastDate. ENTER signals on or after lastDate are not acted on since no
// later date exists to close at.
func NewSimulator(symbol string, lastDate time.Time) *Simulator {
	return &Simulator{symbol: symbol, lastDate: lastDate}
}

// InPosition reports whether a position is open.
func (s *Simulator) InPosition() bool {
	return s.position != nil && s.position.Status == model.PositionOpen
}

// Position returns a copy of the open position, if any.
func (s *Simulator) Position() (model.Position, bool) {
	if !s.InPosition() {
		return model.Position{}, false
	}
	return *s.position, true
}

// Trades returns the closed trades so far.
func (s *Simulator) Trades() []model.TradeRecord {
	out := make([]model.TradeRecord, len(s.trades))
	copy(out, s.trades)
	return out
}

// Step applies one signal at its close price. It returns the trade realized
// by the step, if any.
func (s *Simulator) Step(sig model.Signal) (*model.TradeRecord, error) {
	if !s.prevDate.IsZero() && !sig.Date.After(s.prevDate) {
		return nil, fmt.Errorf("%w: %s", ErrNonMonotonicSignal, sig.Date.Format("2006-01-02"))
	}
	s.prevDate = sig.Date

	switch {
	case !s.InPosition() && sig.Action == model.ActionEnter:
		if !sig.Date.Before(s.lastDate) {
			return nil, nil
		}
		s.position = &model.Position{
			EntryDate:  sig.Date,
			EntryPrice: decimal.NewFromFloat(sig.Close),
			Status:     model.PositionOpen,
		}
		return nil, nil
	case s.InPosition() && sig.Action == model.ActionExit:
		return s.close(sig.Date, sig.Close, exitReasonFor(sig.Reason)), nil
	default:
		return nil, nil
	}
}

// Finish force-closes an open position at the given close price.
func (s *Simulator) Finish(date time.Time, price float64) *model.TradeRecord {
	if !s.InPosition() {
		return nil
	}
	return s.close(date, price, model.ExitForcedClose)
}

func (s *Simulator) close(date time.Time, price float64, reason model.ExitReason) *model.TradeRecord {
	exitPrice := decimal.NewFromFloat(price)
	s.position.ExitDate = &date
	s.position.ExitPrice = &exitPrice
	s.position.Status = model.PositionClosed

	tr := newTradeRecord(s.symbol, *s.position, reason)
	s.trades = append(s.trades, tr)
	s.position = nil
	return &tr
}

func newTradeRecord(symbol string, p model.Position, reason model.ExitReason) model.TradeRecord {
	pnl := p.ExitPrice.Sub(p.EntryPrice)
	pct := 0.0
	if !p.EntryPrice.IsZero() {
		pct = pnl.Div(p.EntryPrice).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	return model.TradeRecord{
		Symbol:      symbol,
		EntryDate:   p.EntryDate,
		EntryPrice:  p.EntryPrice,
		ExitDate:    *p.ExitDate,
		ExitPrice:   *p.ExitPrice,
		PnL:         pnl,
		PnLPct:      pct,
		HoldingDays: int(math.Round(p.ExitDate.Sub(p.EntryDate).Hours() / 24)),
		ExitReason:  reason,
	}
}

func exitReasonFor(r model.Reason) model.ExitReason {
	if r == model.ReasonDeathCross {
		return model.ExitDeathCross
	}
	return model.ExitOverbought
}
