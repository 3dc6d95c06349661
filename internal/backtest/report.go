package backtest

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/halcyon-lab/synthsignal/internal/types"
)

// buildReport aggregates the closed trades into performance statistics.
// Every metric is recomputed from the trade list; nothing is accumulated
// incrementally during the replay.
func buildReport(series *types.PriceSeries, trades []types.Trade, initialCapital float64) *types.BacktestReport {
	report := &types.BacktestReport{
		ID:          runID(series),
		Timestamp:   series.Bars[series.Len()-1].Time,
		Symbol:      series.Symbol,
		TotalTrades: len(trades),
		Trades:      trades,
	}

	var (
		grossProfit float64
		grossLoss   float64
	)

	balance := decimal.NewFromFloat(initialCapital)
	peak := balance
	maxDrawdown := 0.0

	for _, trade := range trades {
		if trade.PnL > 0 {
			report.Wins++
			grossProfit += trade.PnL
		} else {
			report.Losses++
			grossLoss += -trade.PnL
		}

		balance = balance.Add(decimal.NewFromFloat(trade.PnL))

		if balance.GreaterThan(peak) {
			peak = balance
		}

		if peak.IsPositive() {
			drawdown, _ := peak.Sub(balance).Div(peak).Float64()
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	final, _ := balance.Float64()
	report.FinalBalance = final
	report.MaxDrawdown = maxDrawdown
	report.TotalReturn = final - initialCapital

	if len(trades) == 0 {
		return report
	}

	report.WinRate = float64(report.Wins) / float64(len(trades))

	// With no losing trade the profit factor is reported as +Inf rather
	// than an arbitrary sentinel.
	if grossLoss == 0 {
		report.ProfitFactor = math.Inf(1)
	} else {
		report.ProfitFactor = grossProfit / grossLoss
	}

	if report.Wins > 0 {
		report.AverageWin = grossProfit / float64(report.Wins)
	}

	if report.Losses > 0 {
		report.AverageLoss = grossLoss / float64(report.Losses)
	}

	report.Expectancy = report.WinRate*report.AverageWin - (1-report.WinRate)*report.AverageLoss

	return report
}
