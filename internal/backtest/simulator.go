// Package backtest replays historical bars against generated or
// pre-recorded signals, simulates trade lifecycles and aggregates
// performance statistics. The replay is deliberately an explicit indexed
// loop with a small per-trade state machine (pending, open, closed):
// correctness depends on exact per-bar ordering.
package backtest

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/halcyon-lab/synthsignal/internal/logger"
	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// SignalFunc produces a signal for the final bar of the given series
// prefix, or None when the evaluation ends in no-signal. The simulator
// never shows the function any bar beyond the one being evaluated.
type SignalFunc func(series *types.PriceSeries) (optional.Option[types.Signal], error)

// ScheduledSignal pairs a pre-computed signal with the index of the bar it
// was generated on. The simulated entry happens at the next bar's open.
type ScheduledSignal struct {
	BarIndex int
	Signal   types.Signal
}

// Simulator replays one series under a fixed configuration. Each run is
// independent; the simulator keeps no state between runs.
type Simulator struct {
	config Config
	log    *logger.Logger
}

// NewSimulator creates a simulator, failing fast on configuration errors.
func NewSimulator(config Config, log *logger.Logger) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Simulator{config: config, log: log}, nil
}

// Run replays the series, invoking generate once per bar after warmup
// whenever no trade is open. Any error from the signal function aborts the
// run: a report is either complete or not produced at all.
func (s *Simulator) Run(series *types.PriceSeries, generate SignalFunc) (*types.BacktestReport, error) {
	return s.run(series, generate, nil)
}

// RunScheduled replays the series against a pre-computed signal sequence.
func (s *Simulator) RunScheduled(series *types.PriceSeries, signals []ScheduledSignal) (*types.BacktestReport, error) {
	scheduled := append([]ScheduledSignal{}, signals...)
	sort.SliceStable(scheduled, func(i, j int) bool {
		return scheduled[i].BarIndex < scheduled[j].BarIndex
	})

	return s.run(series, nil, scheduled)
}

// pendingEntry is a signal waiting for its entry bar.
type pendingEntry struct {
	signal   types.Signal
	entryBar int
}

// openTrade is a trade being monitored bar by bar.
type openTrade struct {
	signal   types.Signal
	entryBar int
	entry    float64
	quantity decimal.Decimal
}

func (s *Simulator) run(series *types.PriceSeries, generate SignalFunc, scheduled []ScheduledSignal) (*types.BacktestReport, error) {
	if series.Len() == 0 {
		return nil, errors.New(errors.ErrCodeBacktestNoSeries, "backtest requires a non-empty series")
	}

	if err := series.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestFailed, "malformed historical series", err)
	}

	bars := series.Bars
	balance := decimal.NewFromFloat(s.config.InitialCapital)

	var (
		trades   []types.Trade
		pending  *pendingEntry
		open     *openTrade
		progress *progressbar.ProgressBar
	)

	if s.config.ShowProgress {
		progress = progressbar.NewOptions(len(bars),
			progressbar.OptionSetDescription(fmt.Sprintf("Replaying %s", series.Symbol)),
			progressbar.OptionShowCount(),
		)
	}

	nextScheduled := 0

	for i := range bars {
		if progress != nil {
			//nolint:errcheck // progress rendering is cosmetic
			progress.Add(1)
		}

		// Open a pending trade at this bar's open. Never the signal bar's
		// own close: that would be look-ahead.
		if pending != nil && pending.entryBar == i {
			open = s.openAt(pending.signal, i, bars[i].Open, balance)
			pending = nil
		}

		// Monitor the open trade against this bar, including the entry bar
		// itself.
		if open != nil {
			if trade, ok := s.checkExit(open, i, bars[i]); ok {
				balance = balance.Add(decimal.NewFromFloat(trade.PnL))
				trades = append(trades, trade)
				open = nil
			}
		}

		// A new signal is only considered when nothing is open or pending.
		if open != nil || pending != nil || i == len(bars)-1 {
			continue
		}

		if generate != nil {
			if i < s.config.WarmupBars-1 {
				continue
			}

			prefix := types.PriceSeries{
				Symbol:    series.Symbol,
				Timeframe: series.Timeframe,
				Bars:      bars[:i+1],
			}

			result, err := generate(&prefix)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeBacktestFailed, "signal generation failed during replay", err)
			}

			if signal, takeErr := result.Take(); takeErr == nil {
				pending = &pendingEntry{signal: signal, entryBar: i + 1}
			}

			continue
		}

		for nextScheduled < len(scheduled) && scheduled[nextScheduled].BarIndex <= i {
			if scheduled[nextScheduled].BarIndex == i {
				pending = &pendingEntry{signal: scheduled[nextScheduled].Signal, entryBar: i + 1}
			}

			nextScheduled++
		}
	}

	// A trade still open at the end of the data is force-closed at the
	// final close, reported as a timeout exit.
	if open != nil {
		last := len(bars) - 1
		trade := s.closeTrade(open, last, bars[last].Close, types.ExitTimeout, bars[last])
		trades = append(trades, trade)
	}

	report := buildReport(series, trades, s.config.InitialCapital)

	s.log.Info("backtest run complete",
		zap.String("symbol", series.Symbol),
		zap.Int("bars", len(bars)),
		zap.Int("trades", report.TotalTrades),
		zap.Float64("total_return", report.TotalReturn),
	)

	return report, nil
}

func (s *Simulator) openAt(signal types.Signal, barIndex int, price float64, balance decimal.Decimal) *openTrade {
	quantity := balance.Mul(decimal.NewFromFloat(signal.PositionSizeFraction))

	s.log.Debug("trade opened",
		zap.String("signal_id", signal.ID),
		zap.Int("entry_bar", barIndex),
		zap.Float64("entry_price", price),
	)

	return &openTrade{
		signal:   signal,
		entryBar: barIndex,
		entry:    price,
		quantity: quantity,
	}
}

// checkExit applies the exit rules for one bar: stop-loss first (the
// conservative outcome when both levels are touched within the same bar),
// then take-profit, then the holding timeout.
func (s *Simulator) checkExit(trade *openTrade, barIndex int, bar types.PriceBar) (types.Trade, bool) {
	stop := trade.signal.StopLoss
	target := trade.signal.TakeProfit

	if trade.signal.Direction == types.DirectionBullish {
		if bar.Low <= stop {
			return s.closeTrade(trade, barIndex, stop, types.ExitStopLoss, bar), true
		}

		if bar.High >= target {
			return s.closeTrade(trade, barIndex, target, types.ExitTakeProfit, bar), true
		}
	} else {
		if bar.High >= stop {
			return s.closeTrade(trade, barIndex, stop, types.ExitStopLoss, bar), true
		}

		if bar.Low <= target {
			return s.closeTrade(trade, barIndex, target, types.ExitTakeProfit, bar), true
		}
	}

	if barIndex-trade.entryBar >= s.config.MaxHoldingBars {
		return s.closeTrade(trade, barIndex, bar.Close, types.ExitTimeout, bar), true
	}

	return types.Trade{}, false
}

func (s *Simulator) closeTrade(trade *openTrade, barIndex int, exitPrice float64, reason types.ExitReason, bar types.PriceBar) types.Trade {
	move := decimal.NewFromFloat(exitPrice).Sub(decimal.NewFromFloat(trade.entry))
	if trade.signal.Direction == types.DirectionBearish {
		move = move.Neg()
	}

	pnl, _ := trade.quantity.Mul(move).Float64()

	return types.Trade{
		SignalID:   trade.signal.ID,
		Symbol:     trade.signal.Symbol,
		Direction:  trade.signal.Direction,
		EntryPrice: trade.entry,
		ExitPrice:  exitPrice,
		ExitReason: reason,
		PnL:        pnl,
		OpenedAt:   trade.signal.CreatedAt,
		ClosedAt:   bar.Time,
		EntryBar:   trade.entryBar,
		ExitBar:    barIndex,
	}
}

// runID derives a stable identifier from the replayed data so identical
// runs produce identical reports.
func runID(series *types.PriceSeries) string {
	first := series.Bars[0].Time.UnixNano()
	last := series.Bars[len(series.Bars)-1].Time.UnixNano()
	seed := fmt.Sprintf("%s/%d/%d/%d", series.Symbol, first, last, series.Len())

	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}
