package strategy

import "AlgoSentinel/internal/model"

// Rules holds the RSI thresholds of the strategy.
type Rules struct {
	Oversold   float64
	Overbought float64
}

// DefaultRules returns RSI < 30 entries and RSI > 70 exits.
func DefaultRules() Rules {
	return Rules{Oversold: 30, Overbought: 70}
}

// oversoldUptrend: RSI below the oversold line while the short SMA is above
// the long SMA.
func (r Rules) oversoldUptrend(e *model.IndicatorEntry) bool {
	return e.RSI14.V < r.Oversold && e.SMA20.V > e.SMA50.V
}

func (r Rules) overbought(e *model.IndicatorEntry) bool {
	return e.RSI14.V > r.Overbought
}

// deathCross: short SMA was at or above the long SMA on the previous date
// and is below it now.
func deathCross(prevShort, prevLong model.Value, e *model.IndicatorEntry) bool {
	if !prevShort.OK || !prevLong.OK {
		return false
	}
	return prevShort.V >= prevLong.V && e.SMA20.V < e.SMA50.V
}
