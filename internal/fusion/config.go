package fusion

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// tolerance for the weight-sum check.
const weightSumEpsilon = 1e-6

// Config is the fusion engine configuration. Invalid values fail fast at
// construction time; nothing here is recoverable at evaluation time.
type Config struct {
	// Weights maps each of the six strategies to its fusion weight. The six
	// entries must sum to 1.0.
	Weights map[types.StrategyName]float64 `yaml:"weights" json:"weights" validate:"required"`
	// AIWeight is the weight of the optional AI vote. When an AI vote is
	// present all weights are renormalized so they still sum to 1.
	AIWeight float64 `yaml:"ai_weight" json:"ai_weight" jsonschema:"default=0.2" validate:"gte=0,lte=1"`
	// NoiseFloor is the minimum absolute net score; anything below is
	// no-signal.
	NoiseFloor float64 `yaml:"noise_floor" json:"noise_floor" jsonschema:"default=1" validate:"gte=0,lte=10"`
	// StrengthThreshold gates emission on aggregate strength.
	StrengthThreshold float64 `yaml:"strength_threshold" json:"strength_threshold" jsonschema:"default=7" validate:"gte=0,lte=10"`
	// ConfidenceThreshold gates emission on AI confidence when present.
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold" jsonschema:"default=0.7" validate:"gte=0,lte=1"`
	// BoostThreshold is the AI confidence above which strength is boosted.
	BoostThreshold float64 `yaml:"boost_threshold" json:"boost_threshold" jsonschema:"default=0.6" validate:"gte=0,lte=1"`
	// MinBoost and MaxBoost bound the strength boost.
	MinBoost float64 `yaml:"min_boost" json:"min_boost" jsonschema:"default=0.5" validate:"gte=0"`
	MaxBoost float64 `yaml:"max_boost" json:"max_boost" jsonschema:"default=1.5" validate:"gte=0,gtefield=MinBoost"`
	// RiskPerTrade is the fraction of capital risked per trade.
	RiskPerTrade float64 `yaml:"risk_per_trade" json:"risk_per_trade" jsonschema:"default=0.01" validate:"gt=0,lte=1"`
	// MaxPositionFraction caps the recommended position size.
	MaxPositionFraction float64 `yaml:"max_position_fraction" json:"max_position_fraction" jsonschema:"default=0.1" validate:"gt=0,lte=1"`
	// StopATRMultiplier and TargetATRMultiplier size the risk envelope.
	StopATRMultiplier   float64 `yaml:"stop_atr_multiplier" json:"stop_atr_multiplier" jsonschema:"default=1.5" validate:"gt=0"`
	TargetATRMultiplier float64 `yaml:"target_atr_multiplier" json:"target_atr_multiplier" jsonschema:"default=2.5" validate:"gt=0"`
	// MinRiskReward is the minimum target/stop multiplier ratio.
	MinRiskReward float64 `yaml:"min_risk_reward" json:"min_risk_reward" jsonschema:"default=1.5" validate:"gt=0"`
}

// DefaultConfig returns the standard fusion configuration with equal
// structural emphasis matching the scoring weights the engine shipped with.
func DefaultConfig() Config {
	return Config{
		Weights: map[types.StrategyName]float64{
			types.StrategyStructural:    0.25,
			types.StrategyTrend:         0.20,
			types.StrategyMomentum:      0.15,
			types.StrategyMeanReversion: 0.15,
			types.StrategyBreakout:      0.15,
			types.StrategyVolume:        0.10,
		},
		AIWeight:            0.2,
		NoiseFloor:          1.0,
		StrengthThreshold:   7.0,
		ConfidenceThreshold: 0.7,
		BoostThreshold:      0.6,
		MinBoost:            0.5,
		MaxBoost:            1.5,
		RiskPerTrade:        0.01,
		MaxPositionFraction: 0.1,
		StopATRMultiplier:   1.5,
		TargetATRMultiplier: 2.5,
		MinRiskReward:       1.5,
	}
}

// Validate checks the configuration. A configuration error here is fatal at
// startup, never silently recovered.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid fusion config", err)
	}

	required := []types.StrategyName{
		types.StrategyStructural,
		types.StrategyTrend,
		types.StrategyMomentum,
		types.StrategyMeanReversion,
		types.StrategyBreakout,
		types.StrategyVolume,
	}

	if len(c.Weights) != len(required) {
		return errors.Newf(errors.ErrCodeInvalidWeights,
			"weight map must have exactly %d entries, got %d", len(required), len(c.Weights))
	}

	var sum float64

	for _, name := range required {
		weight, ok := c.Weights[name]
		if !ok {
			return errors.Newf(errors.ErrCodeInvalidWeights, "weight map missing strategy %q", name)
		}

		if weight < 0 {
			return errors.Newf(errors.ErrCodeInvalidWeights, "weight for %q must not be negative", name)
		}

		sum += weight
	}

	if math.Abs(sum-1.0) > weightSumEpsilon {
		return errors.Newf(errors.ErrCodeInvalidWeights, "strategy weights must sum to 1.0, got %f", sum)
	}

	if ratio := c.TargetATRMultiplier / c.StopATRMultiplier; ratio < c.MinRiskReward {
		return errors.Newf(errors.ErrCodeInvalidRiskReward,
			"target/stop multiplier ratio %.2f below minimum risk:reward %.2f", ratio, c.MinRiskReward)
	}

	return nil
}
