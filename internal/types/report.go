package types

import (
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"
)

// BacktestReport aggregates the outcome of one backtest run. It is derived
// from the full trade set and recomputed on every run, never incrementally
// mutated.
type BacktestReport struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp"`
	// Symbol of the replayed series.
	Symbol string `yaml:"symbol"`
	// TotalTrades counts all closed trades.
	TotalTrades int `yaml:"total_trades"`
	Wins        int `yaml:"wins"`
	Losses      int `yaml:"losses"`
	// WinRate is wins/total in [0,1]. Zero when no trades closed.
	WinRate float64 `yaml:"win_rate"`
	// ProfitFactor is gross profit over gross loss. +Inf when gross loss is
	// zero and gross profit is positive; serialized by YAML as .inf.
	ProfitFactor float64 `yaml:"profit_factor"`
	// Expectancy is the mean PnL per trade.
	Expectancy float64 `yaml:"expectancy"`
	// MaxDrawdown is the largest peak-to-trough decline of the cumulative
	// equity sequence, as a fraction of the peak.
	MaxDrawdown float64 `yaml:"max_drawdown"`
	// TotalReturn is the net PnL summed over all closed trades.
	TotalReturn float64 `yaml:"total_return"`
	AverageWin  float64 `yaml:"average_win"`
	AverageLoss float64 `yaml:"average_loss"`
	// FinalBalance is the initial capital plus the net PnL of all trades.
	FinalBalance float64 `yaml:"final_balance"`
	// Trades lists every closed trade in entry order.
	Trades []Trade `yaml:"trades"`
}

// ProfitFactorDefined reports whether the profit factor is a finite number.
// An undefined (infinite) profit factor is a valid outcome, not an error.
func (r *BacktestReport) ProfitFactorDefined() bool {
	return !math.IsInf(r.ProfitFactor, 0) && !math.IsNaN(r.ProfitFactor)
}

// String renders the report as YAML for logs and CLI output.
func (r *BacktestReport) String() string {
	out, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Sprintf("backtest report %s (marshal failed: %v)", r.ID, err)
	}

	return string(out)
}
