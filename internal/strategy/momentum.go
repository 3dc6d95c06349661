package strategy

import (
	"fmt"
	"math"

	"github.com/halcyon-lab/synthsignal/internal/types"
)

// momentumStrengthCap keeps overbought/oversold saturation from dominating
// the fused score.
const momentumStrengthCap = 8.0

// EvaluateMomentum votes with the oscillator's side of the midpoint when its
// slope agrees. Strength scales with distance from the midpoint, capped.
func EvaluateMomentum(input Input) types.StrategyVote {
	lastIndex := input.Series.Len() - 1

	rsi, errNow := input.Indicators.RSI.At(lastIndex).Take()
	rsiPrev, errPrev := input.Indicators.RSI.At(lastIndex - 1).Take()

	if errNow != nil || errPrev != nil {
		return types.NeutralVote(types.StrategyMomentum, "RSI not available")
	}

	rising := rsi > rsiPrev
	falling := rsi < rsiPrev

	var direction types.Direction

	switch {
	case rsi > 50 && rising:
		direction = types.DirectionBullish
	case rsi < 50 && falling:
		direction = types.DirectionBearish
	default:
		return types.NeutralVote(types.StrategyMomentum, fmt.Sprintf("RSI %.1f without confirming slope", rsi))
	}

	strength := math.Min(momentumStrengthCap, math.Abs(rsi-50)/5)

	return types.StrategyVote{
		Strategy:  types.StrategyMomentum,
		Direction: direction,
		Strength:  strength,
		Rationale: fmt.Sprintf("RSI %.1f moving from %.1f", rsi, rsiPrev),
	}
}
