package backtest

import (
	"github.com/shopspring/decimal"

	"AlgoSentinel/internal/model"
)

// ComputeMetrics summarizes a trade ledger. P&L is aggregated cumulatively:
// total_pnl is the sum of per-share P&L and total_pnl_pct the sum of
// per-trade percentages, with no compounding.
func ComputeMetrics(symbol string, trades []model.TradeRecord) model.SummaryMetrics {
	m := model.SummaryMetrics{
		Symbol:      symbol,
		Status:      model.StatusOK,
		TradeStatus: model.TradesNone,
		TradeCount:  len(trades),
		TotalPnL:    decimal.Zero,
		MLStatus:    model.MLNotRun,
	}
	if len(trades) == 0 {
		return m
	}

	holding := 0
	for i := range trades {
		tr := &trades[i]
		if tr.Win() {
			m.Wins++
		} else {
			m.Losses++
		}
		m.TotalPnL = m.TotalPnL.Add(tr.PnL)
		m.TotalPnLPct += tr.PnLPct
		holding += tr.HoldingDays
	}
	m.TradeStatus = model.TradesPresent
	m.WinRate = float64(m.Wins) / float64(len(trades))
	m.AvgHoldingDays = float64(holding) / float64(len(trades))
	return m
}
