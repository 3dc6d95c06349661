// Command backtest replays historical bars for one symbol through the full
// evaluation pipeline and prints the performance report.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/halcyon-lab/synthsignal/internal/backtest"
	"github.com/halcyon-lab/synthsignal/internal/config"
	"github.com/halcyon-lab/synthsignal/internal/datasource"
	"github.com/halcyon-lab/synthsignal/internal/engine"
	"github.com/halcyon-lab/synthsignal/internal/logger"
	"github.com/halcyon-lab/synthsignal/internal/store"
	"github.com/halcyon-lab/synthsignal/internal/version"
)

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Default()

	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}

		cfg = loaded
	}

	symbol := cmd.String("symbol")
	bars := int(cmd.Int("bars"))

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	provider, err := cfg.BuildAIProvider()
	if err != nil {
		return err
	}

	pipeline, err := engine.NewPipeline(cfg.Indicators, cfg.Structure, cfg.Fusion, provider, appLogger)
	if err != nil {
		return err
	}

	source, err := datasource.New(cfg.Datasource)
	if err != nil {
		return err
	}
	defer source.Close()

	series, err := source.GetSeries(ctx, symbol, cfg.Scanner.Timeframe, bars)
	if err != nil {
		return err
	}

	backtestConfig := cfg.Backtest
	if cmd.Bool("progress") {
		backtestConfig.ShowProgress = true
	}

	// Warmup must cover the indicator windows or the first evaluations
	// would fail on short prefixes.
	if backtestConfig.WarmupBars < pipeline.MinBars() {
		backtestConfig.WarmupBars = pipeline.MinBars()
	}

	simulator, err := backtest.NewSimulator(backtestConfig, appLogger)
	if err != nil {
		return err
	}

	report, err := simulator.Run(series, pipeline.SignalFunc(ctx))
	if err != nil {
		return err
	}

	fmt.Println(report.String())

	if cfg.StorePath != "" {
		auditStore, err := store.NewStore(cfg.StorePath)
		if err != nil {
			return err
		}
		defer auditStore.Close()

		if err := auditStore.SaveReport(ctx, report); err != nil {
			return err
		}
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Replay historical bars and report signal performance",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
			},
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Symbol to replay",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "bars",
				Aliases: []string{"n"},
				Usage:   "Number of bars to replay",
				Value:   1000,
			},
			&cli.BoolFlag{
				Name:    "progress",
				Aliases: []string{"p"},
				Usage:   "Show a progress bar during the replay",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
