package model

import "fmt"

// Value is a tagged optional number. An undefined Value never carries a
// meaningful float; callers must check OK before reading V.
type Value struct {
	V  float64
	OK bool
}

// Some returns a defined Value.
func Some(v float64) Value { return Value{V: v, OK: true} }

// None returns an undefined Value.
func None() Value { return Value{} }

// Get returns the number and whether it is defined.
func (v Value) Get() (float64, bool) { return v.V, v.OK }

func (v Value) String() string {
	if !v.OK {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v.V)
}
