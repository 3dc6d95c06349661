package types

import "time"

// ExitReason records how a simulated trade was closed.
type ExitReason string

const (
	ExitTakeProfit ExitReason = "take_profit"
	ExitStopLoss   ExitReason = "stop_loss"
	// ExitTimeout is a force-close after the configured maximum holding
	// duration with neither level touched.
	ExitTimeout ExitReason = "timeout"
)

// Trade is a simulated trade lifecycle, owned exclusively by a single
// backtest run.
type Trade struct {
	// SignalID references the signal that opened the trade.
	SignalID   string     `yaml:"signal_id"`
	Symbol     string     `yaml:"symbol"`
	Direction  Direction  `yaml:"direction"`
	EntryPrice float64    `yaml:"entry_price"`
	ExitPrice  float64    `yaml:"exit_price"`
	ExitReason ExitReason `yaml:"exit_reason"`
	// PnL is the signed profit or loss in capital terms for the sized
	// position.
	PnL      float64   `yaml:"pnl"`
	OpenedAt time.Time `yaml:"opened_at"`
	ClosedAt time.Time `yaml:"closed_at"`
	// EntryBar and ExitBar are indices into the replayed series.
	EntryBar int `yaml:"entry_bar"`
	ExitBar  int `yaml:"exit_bar"`
}
