package strategy

import (
	"fmt"

	"github.com/halcyon-lab/synthsignal/internal/types"
)

// volumeWindow is the span of the volume-weighted price change.
const volumeWindow = 10

// EvaluateVolume votes with the sign of the volume-weighted price change
// over the recent window. Strength scales with the latest volume surge
// relative to its own moving average.
func EvaluateVolume(input Input) types.StrategyVote {
	if input.Series.Len() < volumeWindow+1 {
		return types.NeutralVote(types.StrategyVolume, "series shorter than volume window")
	}

	lastIndex := input.Series.Len() - 1

	volumeSMA, err := input.Indicators.VolumeSMA.At(lastIndex).Take()
	if err != nil || volumeSMA <= 0 {
		return types.NeutralVote(types.StrategyVolume, "volume average not available")
	}

	bars := input.Series.Bars

	var weighted float64
	for i := lastIndex - volumeWindow + 1; i <= lastIndex; i++ {
		weighted += bars[i].Volume * (bars[i].Close - bars[i-1].Close)
	}

	if weighted == 0 {
		return types.NeutralVote(types.StrategyVolume, "no volume-weighted drift")
	}

	direction := types.DirectionBullish
	if weighted < 0 {
		direction = types.DirectionBearish
	}

	surge := bars[lastIndex].Volume / volumeSMA

	strength := 0.0
	if surge > 1 {
		strength = clampStrength((surge - 1) * 5)
	}

	return types.StrategyVote{
		Strategy:  types.StrategyVolume,
		Direction: direction,
		Strength:  strength,
		Rationale: fmt.Sprintf("volume %.1fx its moving average", surge),
	}
}
