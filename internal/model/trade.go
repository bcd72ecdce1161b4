package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionStatus is the lifecycle state of a position.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitOverbought  ExitReason = "OVERBOUGHT"
	ExitDeathCross  ExitReason = "DEATH_CROSS"
	ExitForcedClose ExitReason = "FORCED_CLOSE"
)

// Position is a single long position. ExitDate and ExitPrice are nil while open.
type Position struct {
	EntryDate  time.Time
	EntryPrice decimal.Decimal
	ExitDate   *time.Time
	ExitPrice  *decimal.Decimal
	Status     PositionStatus
}

// TradeRecord is a closed position with its realized result.
type TradeRecord struct {
	Symbol      string
	EntryDate   time.Time
	EntryPrice  decimal.Decimal
	ExitDate    time.Time
	ExitPrice   decimal.Decimal
	PnL         decimal.Decimal // per share: exit - entry
	PnLPct      float64         // percent of entry price
	HoldingDays int
	ExitReason  ExitReason
}

// Win reports whether the trade realized a positive P&L.
func (t *TradeRecord) Win() bool { return t.PnL.IsPositive() }
