package calculator

import (
	"AlgoSentinel/internal/model"
)

// Params holds the indicator windows.
type Params struct {
	RSIPeriod        int
	ShortWindow      int
	LongWindow       int
	MACDFast         int
	MACDSlow         int
	MACDSignal       int
	VolatilityWindow int
	VolumeWindow     int
	Lags             int
}

// DefaultParams returns the RSI(14), SMA(20/50), MACD(12,26,9) setup.
func DefaultParams() Params {
	return Params{
		RSIPeriod:        14,
		ShortWindow:      20,
		LongWindow:       50,
		MACDFast:         12,
		MACDSlow:         26,
		MACDSignal:       9,
		VolatilityWindow: 14,
		VolumeWindow:     10,
		Lags:             3,
	}
}

// LongestWindow is the number of consecutive points needed before every
// indicator is defined.
func (p Params) LongestWindow() int {
	longest := p.LongWindow
	for _, w := range []int{
		p.ShortWindow,
		p.RSIPeriod + 1,
		p.MACDSlow + p.MACDSignal - 1,
		p.VolatilityWindow + 1,
		p.VolumeWindow,
		p.Lags + 1,
	} {
		if w > longest {
			longest = w
		}
	}
	return longest
}

// FrameStats describes how a frame was built.
type FrameStats struct {
	Points      int
	ValidPoints int
	Gaps        int // invalid bars that split the series
	Complete    int // entries with every indicator defined
}

// HasSufficientHistory reports whether the series holds at least
// LongestWindow valid points.
func HasSufficientHistory(series *model.PriceSeries, p Params) bool {
	valid := 0
	for _, pt := range series.Points {
		if pt.Valid() {
			valid++
		}
	}
	return valid >= p.LongestWindow()
}

// BuildFrame computes the indicator frame of a series. Indicators restart
// after every gap, so values stay undefined until their windows refill. If
// the series is shorter than the longest window the frame has no entries.
func BuildFrame(series *model.PriceSeries, p Params) (*model.IndicatorFrame, FrameStats) {
	frame := &model.IndicatorFrame{Symbol: series.Symbol}
	stats := FrameStats{Points: len(series.Points)}

	for _, pt := range series.Points {
		if pt.Valid() {
			stats.ValidPoints++
		}
	}
	if stats.ValidPoints < p.LongestWindow() {
		return frame, stats
	}

	frame.Entries = make([]model.IndicatorEntry, len(series.Points))
	for i, pt := range series.Points {
		frame.Entries[i] = model.IndicatorEntry{
			Date:      pt.Date,
			Close:     pt.Close,
			CloseLags: make([]model.Value, p.Lags),
		}
	}

	start := -1
	for i := 0; i <= len(series.Points); i++ {
		valid := i < len(series.Points) && series.Points[i].Valid()
		if valid {
			if start < 0 {
				start = i
			}
			continue
		}
		if i < len(series.Points) {
			stats.Gaps++
		}
		if start >= 0 {
			fillSegment(frame.Entries[start:i], series.Points[start:i], p)
			start = -1
		}
	}

	stats.Complete = frame.CompleteCount()
	return frame, stats
}

// fillSegment computes indicators over a run of consecutive valid points.
func fillSegment(entries []model.IndicatorEntry, points []model.PricePoint, p Params) {
	closes := make([]float64, len(points))
	volumes := make([]float64, len(points))
	for i, pt := range points {
		closes[i] = pt.Close
		volumes[i] = pt.Volume
	}

	rsi := CalculateRSI(closes, p.RSIPeriod)
	smaShort := CalculateSMA(closes, p.ShortWindow)
	smaLong := CalculateSMA(closes, p.LongWindow)
	macd, macdSig, _ := CalculateMACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	vol := CalculateVolatility(closes, p.VolatilityWindow)
	volAvg := CalculateSMA(volumes, p.VolumeWindow)
	lags := CalculateLags(closes, p.Lags)

	for i := range entries {
		e := &entries[i]
		e.RSI14 = rsi[i]
		e.SMA20 = smaShort[i]
		e.SMA50 = smaLong[i]
		e.MACD = macd[i]
		e.MACDSignal = macdSig[i]
		e.Volatility = vol[i]
		e.VolumeAvg = volAvg[i]
		for k := range lags {
			e.CloseLags[k] = lags[k][i]
		}
	}
}
