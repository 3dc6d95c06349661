// Package scanner fans the evaluation pipeline out over a symbol list.
// Each symbol gets an independent pipeline invocation with its own
// deadline; pipelines share no mutable state, so the fan-out needs no
// locking beyond result collection.
package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/halcyon-lab/synthsignal/internal/datasource"
	"github.com/halcyon-lab/synthsignal/internal/engine"
	"github.com/halcyon-lab/synthsignal/internal/fusion"
	"github.com/halcyon-lab/synthsignal/internal/logger"
	"github.com/halcyon-lab/synthsignal/internal/notifier"
	"github.com/halcyon-lab/synthsignal/internal/store"
	"github.com/halcyon-lab/synthsignal/internal/types"
	"github.com/halcyon-lab/synthsignal/pkg/errors"
)

// Config controls the scan fan-out.
type Config struct {
	// Symbols to evaluate each cycle.
	Symbols []string `yaml:"symbols" json:"symbols" validate:"required,min=1,dive,required"`
	// Timeframe of the bars fetched for every symbol.
	Timeframe string `yaml:"timeframe" json:"timeframe" jsonschema:"default=1h" validate:"required"`
	// LookbackBars is how many bars each evaluation sees.
	LookbackBars int `yaml:"lookback_bars" json:"lookback_bars" jsonschema:"default=100" validate:"gt=0"`
	// SymbolTimeout bounds one symbol's fetch plus evaluation. A timed-out
	// symbol is reported as no-signal, never as a batch failure.
	SymbolTimeout time.Duration `yaml:"symbol_timeout" json:"symbol_timeout" jsonschema:"default=20s" validate:"gt=0"`
	// Schedule is a cron expression for periodic scans; empty disables the
	// scheduler and leaves only on-demand scans.
	Schedule string `yaml:"schedule,omitempty" json:"schedule,omitempty"`
}

// DefaultConfig returns the standard scanner configuration.
func DefaultConfig() Config {
	return Config{
		Symbols:       []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"},
		Timeframe:     "1h",
		LookbackBars:  100,
		SymbolTimeout: 20 * time.Second,
	}
}

// Validate checks the scanner configuration, including the cron schedule
// when one is set.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid scanner config", err)
	}

	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid scan schedule %q", c.Schedule)
		}
	}

	return nil
}

// SymbolResult is one symbol's outcome within a scan cycle.
type SymbolResult struct {
	Symbol   string
	Outcome  fusion.Outcome
	Signal   optional.Option[types.Signal]
	Strength float64
	// Err records a per-symbol data or provider failure. It never fails the
	// batch.
	Err error
}

// Status is a snapshot of the scanner for the HTTP surface.
type Status struct {
	Symbols    []string  `json:"symbols"`
	LastRun    time.Time `json:"last_run"`
	LastSignal int       `json:"last_signal_count"`
	Scheduled  bool      `json:"scheduled"`
}

// Scanner runs the pipeline across the configured symbols. The store and
// notifier collaborators are optional; both are best effort.
type Scanner struct {
	config   Config
	source   datasource.DataSource
	pipeline *engine.Pipeline
	store    *store.Store
	notify   notifier.Notifier
	log      *logger.Logger

	cron *cron.Cron

	mu          sync.Mutex
	lastResults []SymbolResult
	lastRun     time.Time
}

// NewScanner wires a scanner from its collaborators. store and notify may
// be nil.
func NewScanner(
	config Config,
	source datasource.DataSource,
	pipeline *engine.Pipeline,
	auditStore *store.Store,
	notify notifier.Notifier,
	log *logger.Logger,
) (*Scanner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if source == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "scanner requires a datasource")
	}

	if pipeline == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "scanner requires a pipeline")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Scanner{
		config:   config,
		source:   source,
		pipeline: pipeline,
		store:    auditStore,
		notify:   notify,
		log:      log,
	}, nil
}

// ScanOnce evaluates every configured symbol in parallel and returns the
// results ranked: approved signals first, strongest first.
func (s *Scanner) ScanOnce(ctx context.Context) []SymbolResult {
	results := make([]SymbolResult, len(s.config.Symbols))

	var wg sync.WaitGroup

	for i, symbol := range s.config.Symbols {
		wg.Add(1)

		go func(i int, symbol string) {
			defer wg.Done()

			results[i] = s.scanSymbol(ctx, symbol)
		}(i, symbol)
	}

	wg.Wait()

	rankResults(results)

	signals := 0

	for _, result := range results {
		if result.Outcome == fusion.OutcomeApproved {
			signals++
		}
	}

	s.mu.Lock()
	s.lastResults = results
	s.lastRun = time.Now().UTC()
	s.mu.Unlock()

	s.log.Info("scan cycle complete",
		zap.Int("symbols", len(results)),
		zap.Int("approved", signals),
	)

	return results
}

// scanSymbol runs one symbol under its own deadline. The evaluation itself
// is pure computation; the deadline primarily bounds the fetch and the AI
// call, and a symbol that overruns it is reported as no-signal.
func (s *Scanner) scanSymbol(ctx context.Context, symbol string) SymbolResult {
	symbolCtx, cancel := context.WithTimeout(ctx, s.config.SymbolTimeout)
	defer cancel()

	type evaluated struct {
		result fusion.Result
		err    error
	}

	done := make(chan evaluated, 1)

	go func() {
		series, err := s.source.GetSeries(symbolCtx, symbol, s.config.Timeframe, s.config.LookbackBars)
		if err != nil {
			done <- evaluated{err: err}

			return
		}

		result, err := s.pipeline.Evaluate(symbolCtx, series)
		done <- evaluated{result: result, err: err}
	}()

	select {
	case <-symbolCtx.Done():
		s.log.Warn("symbol scan timed out, treating as no-signal",
			zap.String("symbol", symbol),
		)

		return SymbolResult{
			Symbol:  symbol,
			Outcome: fusion.OutcomeNoSignal,
			Err:     symbolCtx.Err(),
		}
	case ev := <-done:
		if ev.err != nil {
			s.log.Warn("symbol scan failed",
				zap.String("symbol", symbol),
				zap.Error(ev.err),
			)

			return SymbolResult{
				Symbol:  symbol,
				Outcome: fusion.OutcomeNoSignal,
				Err:     ev.err,
			}
		}

		result := SymbolResult{
			Symbol:   symbol,
			Outcome:  ev.result.Outcome,
			Signal:   ev.result.Signal,
			Strength: ev.result.Strength,
		}

		if signal, err := ev.result.Signal.Take(); err == nil {
			s.emit(ctx, signal)
		}

		return result
	}
}

// emit hands an approved signal to the audit store and the notifier. Both
// are best effort.
func (s *Scanner) emit(ctx context.Context, signal types.Signal) {
	if s.store != nil {
		if err := s.store.SaveSignal(ctx, signal); err != nil {
			s.log.Warn("failed to persist signal",
				zap.String("signal_id", signal.ID),
				zap.Error(err),
			)
		}
	}

	if s.notify != nil {
		if err := s.notify.Notify(ctx, signal); err != nil {
			s.log.Warn("failed to deliver signal notification",
				zap.String("signal_id", signal.ID),
				zap.Error(err),
			)
		}
	}
}

// rankResults orders approved signals first by descending strength, then
// everything else alphabetically for stable output.
func rankResults(results []SymbolResult) {
	sort.SliceStable(results, func(i, j int) bool {
		iApproved := results[i].Outcome == fusion.OutcomeApproved
		jApproved := results[j].Outcome == fusion.OutcomeApproved

		if iApproved != jApproved {
			return iApproved
		}

		if iApproved && results[i].Strength != results[j].Strength {
			return results[i].Strength > results[j].Strength
		}

		return results[i].Symbol < results[j].Symbol
	})
}

// Start launches the cron scheduler. It is a no-op when no schedule is
// configured.
func (s *Scanner) Start(ctx context.Context) error {
	if s.config.Schedule == "" {
		return nil
	}

	s.cron = cron.New()

	if _, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.ScanOnce(ctx)
	}); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to schedule scan", err)
	}

	s.cron.Start()

	s.log.Info("scan scheduler started",
		zap.String("schedule", s.config.Schedule),
		zap.Strings("symbols", s.config.Symbols),
	)

	return nil
}

// Stop halts the scheduler, waiting for a running cycle to finish.
func (s *Scanner) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Status reports the scanner's last cycle for the HTTP surface.
func (s *Scanner) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	signals := 0

	for _, result := range s.lastResults {
		if result.Outcome == fusion.OutcomeApproved {
			signals++
		}
	}

	return Status{
		Symbols:    s.config.Symbols,
		LastRun:    s.lastRun,
		LastSignal: signals,
		Scheduled:  s.config.Schedule != "",
	}
}

// LastResults returns the previous cycle's ranked results.
func (s *Scanner) LastResults() []SymbolResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SymbolResult, len(s.lastResults))
	copy(out, s.lastResults)

	return out
}
