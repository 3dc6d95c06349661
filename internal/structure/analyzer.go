// Package structure detects market-structure patterns (imbalances, order
// blocks, liquidity sweeps) from a price series. Detections are emitted as
// read-only StructureEvent values; only events inside the configured
// trailing window are retained so memory stays bounded by configuration,
// not by series length.
package structure

import (
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/halcyon-lab/synthsignal/internal/indicator"
	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// Config controls the three structural detectors.
type Config struct {
	// MinGapWidth is the minimum price width of a three-bar gap for it to
	// count as an imbalance.
	MinGapWidth float64 `yaml:"min_gap_width" json:"min_gap_width" validate:"gte=0"`
	// OrderBlockATRMultiple is the minimum body size of the displacement
	// candle, expressed as a multiple of the ATR, for the preceding
	// opposite candle to qualify as an order block.
	OrderBlockATRMultiple float64 `yaml:"order_block_atr_multiple" json:"order_block_atr_multiple" jsonschema:"default=1.5" validate:"gt=0"`
	// ATRPeriod sizes the reference ATR for order-block displacement.
	ATRPeriod int `yaml:"atr_period" json:"atr_period" jsonschema:"default=14" validate:"gt=0"`
	// SweepLookback is the window a liquidity sweep must break out of.
	SweepLookback int `yaml:"sweep_lookback" json:"sweep_lookback" jsonschema:"default=20" validate:"gt=1"`
	// SweepCloseback is the fractional distance back inside the range the
	// closing bar must reach for a breach to count as a sweep.
	SweepCloseback float64 `yaml:"sweep_closeback" json:"sweep_closeback" jsonschema:"default=0.005" validate:"gt=0,lt=1"`
	// TrailingWindow bounds how many trailing bars of events Analyze
	// retains. Older events fall out of scope.
	TrailingWindow int `yaml:"trailing_window" json:"trailing_window" jsonschema:"default=20" validate:"gt=0"`
}

// DefaultConfig returns the standard detector configuration.
func DefaultConfig() Config {
	return Config{
		MinGapWidth:           0,
		OrderBlockATRMultiple: 1.5,
		ATRPeriod:             14,
		SweepLookback:         20,
		SweepCloseback:        0.005,
		TrailingWindow:        20,
	}
}

// Validate checks the configuration at startup.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid structure config", err)
	}

	return nil
}

// Analyzer runs the structural detectors over a series. Stateless between
// calls; safe for concurrent use across symbols.
type Analyzer struct {
	config Config
}

// NewAnalyzer creates an analyzer with a validated configuration.
func NewAnalyzer(config Config) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Analyzer{config: config}, nil
}

// Analyze runs all three detectors and returns the events whose completion
// bar falls inside the trailing window, ordered by bar index.
func (a *Analyzer) Analyze(series *types.PriceSeries) ([]types.StructureEvent, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	events := a.DetectImbalances(series)
	events = append(events, a.DetectOrderBlocks(series)...)
	events = append(events, a.DetectLiquiditySweeps(series)...)

	cutoff := series.Len() - a.config.TrailingWindow

	retained := events[:0]
	for _, event := range events {
		if event.BarIndex >= cutoff {
			retained = append(retained, event)
		}
	}

	sort.SliceStable(retained, func(i, j int) bool {
		return retained[i].BarIndex < retained[j].BarIndex
	})

	return retained, nil
}

// DetectImbalances finds three-bar gaps: bullish when bar i-2's high sits
// below bar i's low, bearish on the mirror. Overlapping gaps of the same
// direction collapse into the first one found.
func (a *Analyzer) DetectImbalances(series *types.PriceSeries) []types.StructureEvent {
	var events []types.StructureEvent

	bars := series.Bars
	for i := 2; i < len(bars); i++ {
		if gap := bars[i].Low - bars[i-2].High; gap > a.config.MinGapWidth {
			events = appendNonOverlapping(events, types.StructureEvent{
				Kind:      types.StructureImbalance,
				Direction: types.DirectionBullish,
				PriceLow:  bars[i-2].High,
				PriceHigh: bars[i].Low,
				BarIndex:  i,
			})

			continue
		}

		if gap := bars[i-2].Low - bars[i].High; gap > a.config.MinGapWidth {
			events = appendNonOverlapping(events, types.StructureEvent{
				Kind:      types.StructureImbalance,
				Direction: types.DirectionBearish,
				PriceLow:  bars[i].High,
				PriceHigh: bars[i-2].Low,
				BarIndex:  i,
			})
		}
	}

	return events
}

// DetectOrderBlocks finds the last opposite-direction candle immediately
// preceding a displacement candle whose body is at least the configured
// multiple of the ATR.
func (a *Analyzer) DetectOrderBlocks(series *types.PriceSeries) []types.StructureEvent {
	var events []types.StructureEvent

	atr, err := indicator.ATR(series, a.config.ATRPeriod)
	if err != nil {
		return nil
	}

	bars := series.Bars
	for i := 1; i < len(bars); i++ {
		ref, takeErr := atr.At(i).Take()
		if takeErr != nil || ref <= 0 {
			continue
		}

		body := bars[i].Close - bars[i].Open
		threshold := a.config.OrderBlockATRMultiple * ref
		prev := bars[i-1]

		if body >= threshold && prev.Close < prev.Open {
			events = appendNonOverlapping(events, types.StructureEvent{
				Kind:      types.StructureOrderBlock,
				Direction: types.DirectionBullish,
				PriceLow:  prev.Low,
				PriceHigh: prev.High,
				BarIndex:  i - 1,
			})

			continue
		}

		if -body >= threshold && prev.Close > prev.Open {
			events = appendNonOverlapping(events, types.StructureEvent{
				Kind:      types.StructureOrderBlock,
				Direction: types.DirectionBearish,
				PriceLow:  prev.Low,
				PriceHigh: prev.High,
				BarIndex:  i - 1,
			})
		}
	}

	return events
}

// DetectLiquiditySweeps finds bars whose extreme breaks the prior lookback
// high/low and then close back inside the range, either on the breaching
// bar itself or on the next one. A swept high reads bearish (stop hunt
// above, reversal down); a swept low reads bullish.
func (a *Analyzer) DetectLiquiditySweeps(series *types.PriceSeries) []types.StructureEvent {
	var events []types.StructureEvent

	bars := series.Bars
	for i := a.config.SweepLookback; i < len(bars); i++ {
		recentHigh, recentLow := rangeExtremes(bars[i-a.config.SweepLookback : i])

		if bars[i].High > recentHigh {
			if closeIdx, ok := a.closesBackBelow(bars, i, recentHigh); ok {
				events = appendNonOverlapping(events, types.StructureEvent{
					Kind:      types.StructureLiquiditySweep,
					Direction: types.DirectionBearish,
					PriceLow:  recentHigh,
					PriceHigh: bars[i].High,
					BarIndex:  closeIdx,
				})
			}

			continue
		}

		if bars[i].Low < recentLow {
			if closeIdx, ok := a.closesBackAbove(bars, i, recentLow); ok {
				events = appendNonOverlapping(events, types.StructureEvent{
					Kind:      types.StructureLiquiditySweep,
					Direction: types.DirectionBullish,
					PriceLow:  bars[i].Low,
					PriceHigh: recentLow,
					BarIndex:  closeIdx,
				})
			}
		}
	}

	return events
}

func (a *Analyzer) closesBackBelow(bars []types.PriceBar, i int, level float64) (int, bool) {
	limit := level * (1 - a.config.SweepCloseback)

	if bars[i].Close < bars[i].Open && bars[i].Close < limit {
		return i, true
	}

	if i+1 < len(bars) && bars[i+1].Close < limit {
		return i + 1, true
	}

	return 0, false
}

func (a *Analyzer) closesBackAbove(bars []types.PriceBar, i int, level float64) (int, bool) {
	limit := level * (1 + a.config.SweepCloseback)

	if bars[i].Close > bars[i].Open && bars[i].Close > limit {
		return i, true
	}

	if i+1 < len(bars) && bars[i+1].Close > limit {
		return i + 1, true
	}

	return 0, false
}

func rangeExtremes(bars []types.PriceBar) (high, low float64) {
	high = bars[0].High
	low = bars[0].Low

	for _, bar := range bars[1:] {
		if bar.High > high {
			high = bar.High
		}

		if bar.Low < low {
			low = bar.Low
		}
	}

	return high, low
}

// appendNonOverlapping drops an event whose zone overlaps any retained
// event of the same kind and direction.
func appendNonOverlapping(events []types.StructureEvent, event types.StructureEvent) []types.StructureEvent {
	for _, prev := range events {
		if prev.Kind != event.Kind || prev.Direction != event.Direction {
			continue
		}

		if event.PriceLow < prev.PriceHigh && prev.PriceLow < event.PriceHigh {
			return events
		}
	}

	return append(events, event)
}
