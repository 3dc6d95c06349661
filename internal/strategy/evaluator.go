// Package strategy holds the six independent evaluators that score a price
// series. Each evaluator is a free function with a uniform signature,
// composed as a fixed ordered list; there is no registry or dynamic
// dispatch. Every evaluator degrades to a neutral zero-strength vote when
// its required inputs are not available.
package strategy

import (
	"github.com/halcyon-lab/synthsignal/internal/indicator"
	"github.com/halcyon-lab/synthsignal/internal/types"
)

// Input carries everything an evaluator may read. The series and events are
// read-only references owned by the caller.
type Input struct {
	Series     *types.PriceSeries
	Indicators *indicator.Snapshot
	Events     []types.StructureEvent
}

// Evaluator scores one aspect of the series, producing a directional vote
// with a local strength in [0,10].
type Evaluator func(Input) types.StrategyVote

// Evaluators returns the fixed evaluation order. Fusion weights are keyed by
// the strategy name each evaluator reports.
func Evaluators() []Evaluator {
	return []Evaluator{
		EvaluateStructural,
		EvaluateTrend,
		EvaluateMomentum,
		EvaluateMeanReversion,
		EvaluateBreakout,
		EvaluateVolume,
	}
}

// EvaluateAll runs every evaluator in order.
func EvaluateAll(input Input) []types.StrategyVote {
	evaluators := Evaluators()
	votes := make([]types.StrategyVote, 0, len(evaluators))

	for _, evaluate := range evaluators {
		votes = append(votes, evaluate(input))
	}

	return votes
}

func clampStrength(strength float64) float64 {
	if strength < 0 {
		return 0
	}

	if strength > 10 {
		return 10
	}

	return strength
}
