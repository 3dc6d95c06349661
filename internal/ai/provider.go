// Package ai abstracts the optional AI inference collaborator. Fusion
// treats the provider as one more strategy input: absence of a provider, a
// provider error, or a declined assessment all degrade to "no AI input"
// without failing the pipeline.
package ai

import (
	"context"

	"github.com/moznion/go-optional"

	"github.com/halcyon-lab/synthsignal/internal/types"
)

// FeatureVector is the engine-side summary handed to a provider for
// scoring.
type FeatureVector struct {
	Symbol string
	// RecentCloses are the trailing close prices, oldest first.
	RecentCloses []float64
	// ATR is the latest average true range, zero when unavailable.
	ATR float64
	// Votes are the six strategy votes for context.
	Votes []types.StrategyVote
}

// Assessment is a provider's verdict on a candidate evaluation.
type Assessment struct {
	// Direction is the provider's own directional vote.
	Direction types.Direction
	// Confidence is in [0,1].
	Confidence float64
	// Rationale is the provider's textual reasoning.
	Rationale string
}

// Provider scores a feature vector. Implementations return None when they
// have no opinion; an error marks the provider unavailable for this call.
type Provider interface {
	Name() string
	Score(ctx context.Context, features FeatureVector) (optional.Option[Assessment], error)
}

// Disabled is the no-provider implementation: it always returns an absent
// assessment, satisfying the same contract without provider-specific
// branching in fusion.
type Disabled struct{}

// NewDisabled returns the no-provider implementation.
func NewDisabled() Provider {
	return Disabled{}
}

func (Disabled) Name() string {
	return "disabled"
}

func (Disabled) Score(_ context.Context, _ FeatureVector) (optional.Option[Assessment], error) {
	return optional.None[Assessment](), nil
}
