// Package fusion combines the per-strategy votes into one ranked decision:
// a weighted directional score, a noise floor, optional AI blending, risk
// envelope derivation and position sizing. Each evaluation is stateless;
// nothing is retained between calls except the configured weights.
package fusion

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/halcyon-lab/synthsignal/internal/ai"
	"github.com/halcyon-lab/synthsignal/internal/indicator"
	"github.com/halcyon-lab/synthsignal/internal/logger"
	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// ATR below this is treated as undefined: a flat series cannot define a
// risk envelope.
const minUsableATR = 1e-9

// Outcome is the terminal state of one fusion run.
type Outcome string

const (
	// OutcomeNoSignal means the net score stayed under the noise floor.
	OutcomeNoSignal Outcome = "no_signal"
	// OutcomeRiskUndefined means a directional candidate was rejected
	// because ATR could not define its stop/target envelope.
	OutcomeRiskUndefined Outcome = "rejected_risk_undefined"
	// OutcomeBelowThreshold means the candidate failed an approval gate.
	OutcomeBelowThreshold Outcome = "below_threshold"
	// OutcomeApproved means a signal was produced for emission.
	OutcomeApproved Outcome = "approved"
)

// Result reports one fusion run. Signal is present only for
// OutcomeApproved.
type Result struct {
	Outcome  Outcome
	Signal   optional.Option[types.Signal]
	NetScore float64
	Strength float64
}

// Engine fuses votes under a fixed validated configuration.
type Engine struct {
	config Config
	log    *logger.Logger
}

// NewEngine creates a fusion engine, failing fast on configuration errors.
func NewEngine(config Config, log *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Engine{config: config, log: log}, nil
}

// Fuse combines the strategy votes (and the AI assessment, when present)
// into one decision for the series' final bar.
func (e *Engine) Fuse(
	series *types.PriceSeries,
	snapshot *indicator.Snapshot,
	votes []types.StrategyVote,
	assessment optional.Option[ai.Assessment],
) (Result, error) {
	lastBar, ok := series.Last()
	if !ok {
		return Result{}, errors.Newf(errors.ErrCodeInsufficientData, "empty series for %s", series.Symbol)
	}

	allVotes := votes
	confidence := optional.None[float64]()

	if verdict, err := assessment.Take(); err == nil {
		confidence = optional.Some(verdict.Confidence)
		allVotes = append(append([]types.StrategyVote{}, votes...), types.StrategyVote{
			Strategy:  types.StrategyAI,
			Direction: verdict.Direction,
			Strength:  verdict.Confidence * 10,
			Rationale: verdict.Rationale,
		})
	}

	net := e.netScore(allVotes)

	// A zero net score has no direction; it is no-signal even when the
	// noise floor is configured to zero.
	if net == 0 || math.Abs(net) < e.config.NoiseFloor {
		e.log.Debug("fusion below noise floor",
			zap.String("symbol", series.Symbol),
			zap.Float64("net_score", net),
		)

		return Result{Outcome: OutcomeNoSignal, NetScore: net}, nil
	}

	direction := types.DirectionBullish
	if net < 0 {
		direction = types.DirectionBearish
	}

	strength := math.Min(math.Abs(net), 10)
	strength = e.applyBoost(strength, confidence)

	atr, atrErr := snapshot.LatestATR().Take()
	if atrErr != nil || atr < minUsableATR {
		// Never emit a signal with an undefined risk envelope.
		e.log.Warn("rejecting candidate signal: ATR unavailable",
			zap.String("symbol", series.Symbol),
			zap.Float64("strength", strength),
		)

		return Result{Outcome: OutcomeRiskUndefined, NetScore: net, Strength: strength}, nil
	}

	if !e.approved(strength, confidence) {
		return Result{Outcome: OutcomeBelowThreshold, NetScore: net, Strength: strength}, nil
	}

	signal := e.buildSignal(series.Symbol, direction, strength, confidence, lastBar, atr, allVotes)

	e.log.Info("signal approved",
		zap.String("symbol", series.Symbol),
		zap.String("direction", string(direction)),
		zap.Float64("strength", strength),
	)

	return Result{
		Outcome:  OutcomeApproved,
		Signal:   optional.Some(signal),
		NetScore: net,
		Strength: strength,
	}, nil
}

// netScore computes the weighted signed score in [-10,10]. When an AI vote
// is present the weights are renormalized to include its configured weight.
func (e *Engine) netScore(votes []types.StrategyVote) float64 {
	total := 1.0

	for _, vote := range votes {
		if vote.Strategy == types.StrategyAI {
			total += e.config.AIWeight
		}
	}

	var net float64

	for _, vote := range votes {
		weight := e.config.AIWeight
		if vote.Strategy != types.StrategyAI {
			weight = e.config.Weights[vote.Strategy]
		}

		net += (weight / total) * vote.Strength * vote.Direction.Sign()
	}

	return net
}

// applyBoost raises strength by a bounded amount when AI confidence clears
// the boost threshold. The boost never pushes strength past the cap of 10.
func (e *Engine) applyBoost(strength float64, confidence optional.Option[float64]) float64 {
	conf, err := confidence.Take()
	if err != nil || conf <= e.config.BoostThreshold {
		return strength
	}

	span := 1 - e.config.BoostThreshold

	fraction := 1.0
	if span > 0 {
		fraction = (conf - e.config.BoostThreshold) / span
	}

	boost := e.config.MinBoost + (e.config.MaxBoost-e.config.MinBoost)*fraction

	return math.Min(strength+boost, 10)
}

// approved applies the conjunctive emission gates: strength must clear its
// threshold AND, when AI confidence is present, confidence must clear its
// own threshold.
func (e *Engine) approved(strength float64, confidence optional.Option[float64]) bool {
	if strength < e.config.StrengthThreshold {
		return false
	}

	if conf, err := confidence.Take(); err == nil && conf < e.config.ConfidenceThreshold {
		return false
	}

	return true
}

func (e *Engine) buildSignal(
	symbol string,
	direction types.Direction,
	strength float64,
	confidence optional.Option[float64],
	lastBar types.PriceBar,
	atr float64,
	votes []types.StrategyVote,
) types.Signal {
	entry := lastBar.Close
	stopDistance := atr * e.config.StopATRMultiplier
	targetDistance := atr * e.config.TargetATRMultiplier

	stop := entry - stopDistance
	target := entry + targetDistance

	if direction == types.DirectionBearish {
		stop = entry + stopDistance
		target = entry - targetDistance
	}

	size := math.Min(e.config.RiskPerTrade/stopDistance, e.config.MaxPositionFraction)

	// The ID is derived from the signal's identity, not random, so that
	// replaying identical data yields identical signals.
	seed := fmt.Sprintf("%s/%s/%d", symbol, direction, lastBar.Time.UnixNano())

	return types.Signal{
		ID:                   uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String(),
		Symbol:               symbol,
		Direction:            direction,
		Strength:             strength,
		Confidence:           confidence,
		EntryPrice:           entry,
		StopLoss:             stop,
		TakeProfit:           target,
		PositionSizeFraction: size,
		Votes:                votes,
		CreatedAt:            lastBar.Time,
	}
}
