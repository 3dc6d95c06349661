package strategy

import (
	"fmt"
	"math"

	"github.com/halcyon-lab/synthsignal/internal/types"
)

// proximity beyond which a structure zone no longer influences the vote,
// in ATR multiples.
const structuralReachATR = 3.0

// EvaluateStructural votes in the direction of the most recent unmitigated
// structure event when price has approached but not yet filled its zone.
// Strength scales with proximity to the zone and with event freshness.
func EvaluateStructural(input Input) types.StrategyVote {
	lastBar, ok := input.Series.Last()
	if !ok || len(input.Events) == 0 {
		return types.NeutralVote(types.StrategyStructural, "no structure events in scope")
	}

	atr, err := input.Indicators.LatestATR().Take()
	if err != nil || atr <= 0 {
		return types.NeutralVote(types.StrategyStructural, "ATR not available")
	}

	lastIndex := input.Series.Len() - 1

	for i := len(input.Events) - 1; i >= 0; i-- {
		event := input.Events[i]
		if event.Direction == types.DirectionNeutral {
			continue
		}

		if mitigated(event, input.Series) {
			continue
		}

		distance := distanceToZone(lastBar.Close, event)
		if distance == 0 {
			// Price is inside the zone: reacting, not approaching.
			continue
		}

		proximity := 1 - distance/(structuralReachATR*atr)
		if proximity <= 0 {
			continue
		}

		age := lastIndex - event.BarIndex
		freshness := 1 - float64(age)/float64(lastIndex+1)
		if freshness < 0 {
			freshness = 0
		}

		return types.StrategyVote{
			Strategy:  types.StrategyStructural,
			Direction: event.Direction,
			Strength:  clampStrength(10 * proximity * (0.5 + 0.5*freshness)),
			Rationale: fmt.Sprintf("unmitigated %s %s at [%.2f, %.2f]", event.Direction, event.Kind, event.PriceLow, event.PriceHigh),
		}
	}

	return types.NeutralVote(types.StrategyStructural, "no unmitigated structure event near price")
}

// mitigated reports whether price has already traded through the far side
// of the event's zone on a later bar.
func mitigated(event types.StructureEvent, series *types.PriceSeries) bool {
	for i := event.BarIndex + 1; i < series.Len(); i++ {
		bar := series.Bars[i]

		if event.Direction == types.DirectionBullish && bar.Low <= event.PriceLow {
			return true
		}

		if event.Direction == types.DirectionBearish && bar.High >= event.PriceHigh {
			return true
		}
	}

	return false
}

func distanceToZone(price float64, event types.StructureEvent) float64 {
	if event.Contains(price) {
		return 0
	}

	return math.Min(
		math.Abs(price-event.PriceLow),
		math.Abs(price-event.PriceHigh),
	)
}
