package model

import "time"

// Action is the discrete trade action emitted per evaluated date.
type Action string

const (
	ActionEnter Action = "ENTER"
	ActionExit  Action = "EXIT"
	ActionHold  Action = "HOLD"
)

// Reason explains why an action was emitted.
type Reason string

const (
	ReasonOversoldUptrend Reason = "OVERSOLD_UPTREND"
	ReasonOverbought      Reason = "OVERBOUGHT"
	ReasonDeathCross      Reason = "DEATH_CROSS"
	ReasonNone            Reason = "NONE"
)

// Signal is the evaluator output for one date.
type Signal struct {
	Date   time.Time
	Action Action
	Reason Reason
	Close  float64
	RSI    float64
	SMA20  float64
	SMA50  float64
}
