package strategy

import (
	"fmt"
	"math"

	"github.com/halcyon-lab/synthsignal/internal/types"
)

const (
	meanReversionOverbought = 70.0
	meanReversionOversold   = 30.0
)

// EvaluateMeanReversion votes against price when it has penetrated a
// volatility band while the oscillator is simultaneously extreme. Strength
// scales with penetration depth beyond the band.
func EvaluateMeanReversion(input Input) types.StrategyVote {
	lastBar, ok := input.Series.Last()
	if !ok {
		return types.NeutralVote(types.StrategyMeanReversion, "empty series")
	}

	lastIndex := input.Series.Len() - 1

	percentB, errB := input.Indicators.Bollinger.PercentB(lastBar.Close, lastIndex).Take()
	rsi, errRSI := input.Indicators.RSI.At(lastIndex).Take()

	if errB != nil || errRSI != nil {
		return types.NeutralVote(types.StrategyMeanReversion, "bands or RSI not available")
	}

	switch {
	case percentB > 1 && rsi >= meanReversionOverbought:
		depth := percentB - 1

		return types.StrategyVote{
			Strategy:  types.StrategyMeanReversion,
			Direction: types.DirectionBearish,
			Strength:  clampStrength(5 + depth*25),
			Rationale: fmt.Sprintf("close %.1f%% beyond upper band with RSI %.1f", depth*100, rsi),
		}
	case percentB < 0 && rsi <= meanReversionOversold:
		depth := math.Abs(percentB)

		return types.StrategyVote{
			Strategy:  types.StrategyMeanReversion,
			Direction: types.DirectionBullish,
			Strength:  clampStrength(5 + depth*25),
			Rationale: fmt.Sprintf("close %.1f%% beyond lower band with RSI %.1f", depth*100, rsi),
		}
	default:
		return types.NeutralVote(types.StrategyMeanReversion, "price inside bands or oscillator not extreme")
	}
}
