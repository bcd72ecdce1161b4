package model

import "time"

// IndicatorEntry holds every indicator computed for one date.
type IndicatorEntry struct {
	Date       time.Time
	Close      float64
	RSI14      Value
	SMA20      Value
	SMA50      Value
	MACD       Value
	MACDSignal Value
	Volatility Value
	VolumeAvg  Value
	CloseLags  []Value // CloseLags[0] is the previous close
}

// Complete reports whether every indicator of the entry is defined.
func (e *IndicatorEntry) Complete() bool {
	if !(e.RSI14.OK && e.SMA20.OK && e.SMA50.OK && e.MACD.OK &&
		e.MACDSignal.OK && e.Volatility.OK && e.VolumeAvg.OK) {
		return false
	}
	for _, l := range e.CloseLags {
		if !l.OK {
			return false
		}
	}
	return true
}

// IndicatorFrame is the per-date indicator table of one ticker. Entries is
// aligned with the source series: Entries[i] belongs to Points[i].
type IndicatorFrame struct {
	Symbol  string
	Entries []IndicatorEntry
}

// Empty reports whether no date of the frame has a complete entry.
func (f *IndicatorFrame) Empty() bool {
	if f == nil {
		return true
	}
	for i := range f.Entries {
		if f.Entries[i].Complete() {
			return false
		}
	}
	return true
}

// Lookup returns the entry for the given date.
func (f *IndicatorFrame) Lookup(date time.Time) (*IndicatorEntry, bool) {
	for i := range f.Entries {
		if f.Entries[i].Date.Equal(date) {
			return &f.Entries[i], true
		}
	}
	return nil, false
}

// CompleteCount returns how many entries are fully defined.
func (f *IndicatorFrame) CompleteCount() int {
	n := 0
	for i := range f.Entries {
		if f.Entries[i].Complete() {
			n++
		}
	}
	return n
}
