package strategy

import (
	"fmt"
	"math"

	"github.com/halcyon-lab/synthsignal/internal/types"
)

// bars over which the fast EMA slope is measured.
const trendSlopeSpan = 3

// EvaluateTrend votes with the sign of fast EMA minus slow EMA. Strength
// scales with the ATR-normalized separation between the averages and the
// ATR-normalized slope of the fast average.
func EvaluateTrend(input Input) types.StrategyVote {
	snapshot := input.Indicators
	lastIndex := input.Series.Len() - 1

	fast, errFast := snapshot.EMAFast.At(lastIndex).Take()
	slow, errSlow := snapshot.EMASlow.At(lastIndex).Take()
	fastPrev, errPrev := snapshot.EMAFast.At(lastIndex - trendSlopeSpan).Take()
	atr, errATR := snapshot.LatestATR().Take()

	if errFast != nil || errSlow != nil || errPrev != nil || errATR != nil || atr <= 0 {
		return types.NeutralVote(types.StrategyTrend, "EMA or ATR not available")
	}

	separation := fast - slow
	if separation == 0 {
		return types.NeutralVote(types.StrategyTrend, "EMAs converged")
	}

	direction := types.DirectionBullish
	if separation < 0 {
		direction = types.DirectionBearish
	}

	separationN := math.Abs(separation) / atr
	slopeN := math.Abs(fast-fastPrev) / atr

	strength := clampStrength(5*math.Min(separationN, 1) + 5*math.Min(slopeN, 1))

	return types.StrategyVote{
		Strategy:  types.StrategyTrend,
		Direction: direction,
		Strength:  strength,
		Rationale: fmt.Sprintf("fast EMA %.4f vs slow EMA %.4f, separation %.2f ATR", fast, slow, separationN),
	}
}
