package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// Direction is the directional reading of a vote or signal.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

// Sign maps the direction onto {-1, 0, +1} for weighted scoring.
func (d Direction) Sign() float64 {
	switch d {
	case DirectionBullish:
		return 1
	case DirectionBearish:
		return -1
	default:
		return 0
	}
}

// StrategyName identifies one of the independent strategy evaluators.
type StrategyName string

const (
	StrategyStructural    StrategyName = "structural"
	StrategyTrend         StrategyName = "trend"
	StrategyMomentum      StrategyName = "momentum"
	StrategyMeanReversion StrategyName = "mean_reversion"
	StrategyBreakout      StrategyName = "breakout"
	StrategyVolume        StrategyName = "volume"
	// StrategyAI is the optional externally supplied vote, fused alongside
	// the six built-in evaluators when present.
	StrategyAI StrategyName = "ai"
)

// StrategyVote is one strategy's directional reading with a local strength
// in [0,10]. Ephemeral: produced per evaluation and consumed by fusion.
type StrategyVote struct {
	Strategy  StrategyName
	Direction Direction
	// Strength is the local conviction in [0,10].
	Strength float64
	// Rationale is a short human-readable reason for the vote.
	Rationale string
}

// NeutralVote returns the degraded vote a strategy emits when its required
// inputs are not available.
func NeutralVote(name StrategyName, reason string) StrategyVote {
	return StrategyVote{
		Strategy:  name,
		Direction: DirectionNeutral,
		Strength:  0,
		Rationale: reason,
	}
}

// Signal is the fused trade signal delivered to notification and storage
// collaborators. Immutable once constructed.
type Signal struct {
	// ID uniquely identifies the signal across runs.
	ID     string `yaml:"id"`
	Symbol string `yaml:"symbol"`
	// Direction is bullish or bearish; no-signal evaluations never produce
	// a Signal value.
	Direction Direction `yaml:"direction"`
	// Strength is the fused aggregate strength in [0,10].
	Strength float64 `yaml:"strength"`
	// Confidence is the AI-supplied confidence in [0,1] when an AI provider
	// participated in the evaluation.
	Confidence optional.Option[float64] `yaml:"confidence,omitempty"`
	EntryPrice float64                  `yaml:"entry_price"`
	StopLoss   float64                  `yaml:"stop_loss"`
	TakeProfit float64                  `yaml:"take_profit"`
	// PositionSizeFraction is the recommended fraction of capital to commit.
	PositionSizeFraction float64 `yaml:"position_size_fraction"`
	// Votes are the contributing strategy votes in evaluator order.
	Votes     []StrategyVote `yaml:"votes"`
	CreatedAt time.Time      `yaml:"created_at"`
}

// RiskReward returns the signal's risk:reward ratio.
func (s *Signal) RiskReward() float64 {
	risk := s.EntryPrice - s.StopLoss
	if risk < 0 {
		risk = -risk
	}

	if risk == 0 {
		return 0
	}

	reward := s.TakeProfit - s.EntryPrice
	if reward < 0 {
		reward = -reward
	}

	return reward / risk
}
