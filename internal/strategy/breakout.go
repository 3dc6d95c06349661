package strategy

import (
	"fmt"
	"math"

	"github.com/halcyon-lab/synthsignal/internal/types"
)

const (
	// breakoutLookback is the window whose extreme must be exceeded.
	breakoutLookback = 20
	// breakoutNoiseATR filters breaches smaller than this many ATRs.
	breakoutNoiseATR = 0.25
)

// EvaluateBreakout votes with a close beyond the recent range extreme by
// more than an ATR-derived noise threshold. Strength scales with the
// breakout magnitude in ATR terms.
func EvaluateBreakout(input Input) types.StrategyVote {
	if input.Series.Len() < breakoutLookback+1 {
		return types.NeutralVote(types.StrategyBreakout, "series shorter than breakout lookback")
	}

	atr, err := input.Indicators.LatestATR().Take()
	if err != nil || atr <= 0 {
		return types.NeutralVote(types.StrategyBreakout, "ATR not available")
	}

	bars := input.Series.Bars
	last := bars[len(bars)-1]
	window := bars[len(bars)-1-breakoutLookback : len(bars)-1]

	rangeHigh := window[0].High
	rangeLow := window[0].Low

	for _, bar := range window[1:] {
		rangeHigh = math.Max(rangeHigh, bar.High)
		rangeLow = math.Min(rangeLow, bar.Low)
	}

	noise := breakoutNoiseATR * atr

	if excess := last.Close - rangeHigh; excess > noise {
		return types.StrategyVote{
			Strategy:  types.StrategyBreakout,
			Direction: types.DirectionBullish,
			Strength:  clampStrength(excess / atr * 5),
			Rationale: fmt.Sprintf("close %.4f above %d-bar high %.4f", last.Close, breakoutLookback, rangeHigh),
		}
	}

	if excess := rangeLow - last.Close; excess > noise {
		return types.StrategyVote{
			Strategy:  types.StrategyBreakout,
			Direction: types.DirectionBearish,
			Strength:  clampStrength(excess / atr * 5),
			Rationale: fmt.Sprintf("close %.4f below %d-bar low %.4f", last.Close, breakoutLookback, rangeLow),
		}
	}

	return types.NeutralVote(types.StrategyBreakout, "no close beyond recent range")
}
