// Package engine composes the full evaluation pipeline: indicators,
// structure analysis, the six strategy evaluators, the optional AI
// assessment and fusion. One pipeline instance is safe for concurrent use;
// every evaluation is stateless.
package engine

import (
	"context"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/halcyon-lab/synthsignal/internal/ai"
	"github.com/halcyon-lab/synthsignal/internal/backtest"
	"github.com/halcyon-lab/synthsignal/internal/fusion"
	"github.com/halcyon-lab/synthsignal/internal/indicator"
	"github.com/halcyon-lab/synthsignal/internal/logger"
	"github.com/halcyon-lab/synthsignal/internal/strategy"
	"github.com/halcyon-lab/synthsignal/internal/structure"
	"github.com/halcyon-lab/synthsignal/internal/types"
)

// Pipeline evaluates one series prefix end to end and returns the fusion
// result for its final bar.
type Pipeline struct {
	params   indicator.Params
	analyzer *structure.Analyzer
	fuser    *fusion.Engine
	provider ai.Provider
	log      *logger.Logger
}

// NewPipeline wires the pipeline from its validated component
// configurations. A nil provider disables AI input.
func NewPipeline(
	params indicator.Params,
	structureConfig structure.Config,
	fusionConfig fusion.Config,
	provider ai.Provider,
	log *logger.Logger,
) (*Pipeline, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	analyzer, err := structure.NewAnalyzer(structureConfig)
	if err != nil {
		return nil, err
	}

	fuser, err := fusion.NewEngine(fusionConfig, log)
	if err != nil {
		return nil, err
	}

	if provider == nil {
		provider = ai.NewDisabled()
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Pipeline{
		params:   params,
		analyzer: analyzer,
		fuser:    fuser,
		provider: provider,
		log:      log,
	}, nil
}

// MinBars is the shortest series the pipeline will evaluate.
func (p *Pipeline) MinBars() int {
	return p.params.MinBars()
}

// Evaluate scores the series' final bar. Data errors (short or malformed
// series) are returned; AI provider failures are logged and degrade to an
// absent assessment.
func (p *Pipeline) Evaluate(ctx context.Context, series *types.PriceSeries) (fusion.Result, error) {
	if err := series.ValidateMinLength(p.params.MinBars()); err != nil {
		return fusion.Result{}, err
	}

	snapshot, err := indicator.Compute(series, p.params)
	if err != nil {
		return fusion.Result{}, err
	}

	events, err := p.analyzer.Analyze(series)
	if err != nil {
		return fusion.Result{}, err
	}

	votes := strategy.EvaluateAll(strategy.Input{
		Series:     series,
		Indicators: snapshot,
		Events:     events,
	})

	assessment := p.assess(ctx, series, snapshot, votes)

	return p.fuser.Fuse(series, snapshot, votes, assessment)
}

// assess consults the AI provider. Any failure is downgraded to an absent
// assessment so one collaborator outage never blocks evaluation.
func (p *Pipeline) assess(
	ctx context.Context,
	series *types.PriceSeries,
	snapshot *indicator.Snapshot,
	votes []types.StrategyVote,
) optional.Option[ai.Assessment] {
	atr := snapshot.LatestATR().TakeOr(0)

	assessment, err := p.provider.Score(ctx, ai.FeatureVector{
		Symbol:       series.Symbol,
		RecentCloses: series.Closes(),
		ATR:          atr,
		Votes:        votes,
	})
	if err != nil {
		p.log.Warn("AI provider unavailable, continuing without assessment",
			zap.String("provider", p.provider.Name()),
			zap.String("symbol", series.Symbol),
			zap.Error(err),
		)

		return optional.None[ai.Assessment]()
	}

	return assessment
}

// SignalFunc adapts the pipeline for backtest replay. Only approved
// evaluations yield a signal; data-insufficiency during replay is a hard
// error because the simulator's warmup should have prevented it.
func (p *Pipeline) SignalFunc(ctx context.Context) backtest.SignalFunc {
	return func(series *types.PriceSeries) (optional.Option[types.Signal], error) {
		result, err := p.Evaluate(ctx, series)
		if err != nil {
			return optional.None[types.Signal](), err
		}

		return result.Signal, nil
	}
}
