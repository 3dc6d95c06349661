// Command scan runs one scan cycle over the configured symbols and prints
// the ranked results.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/halcyon-lab/synthsignal/internal/config"
	"github.com/halcyon-lab/synthsignal/internal/datasource"
	"github.com/halcyon-lab/synthsignal/internal/engine"
	"github.com/halcyon-lab/synthsignal/internal/logger"
	"github.com/halcyon-lab/synthsignal/internal/notifier"
	"github.com/halcyon-lab/synthsignal/internal/scanner"
	"github.com/halcyon-lab/synthsignal/internal/store"
	"github.com/halcyon-lab/synthsignal/internal/version"
)

func scanAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Default()

	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}

		cfg = loaded
	}

	if symbols := cmd.StringSlice("symbols"); len(symbols) > 0 {
		cfg.Scanner.Symbols = symbols
	}

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

	var auditStore *store.Store
	if cfg.StorePath != "" {
		auditStore, err = store.NewStore(cfg.StorePath)
		if err != nil {
			return err
		}
		defer auditStore.Close()
	}

	scan, err := scanner.NewScanner(cfg.Scanner, source, pipeline, auditStore, notifier.NewLog(appLogger), appLogger)
	if err != nil {
		return err
	}

	results := scan.ScanOnce(ctx)

	for _, result := range results {
		line := fmt.Sprintf("%-12s %-24s strength=%.2f", result.Symbol, result.Outcome, result.Strength)

		if signal, err := result.Signal.Take(); err == nil {
			line += fmt.Sprintf("  %s entry=%.4f stop=%.4f target=%.4f size=%.4f",
				signal.Direction, signal.EntryPrice, signal.StopLoss, signal.TakeProfit, signal.PositionSizeFraction)
		}

		if result.Err != nil {
			line += fmt.Sprintf("  error=%v", result.Err)
		}

		fmt.Println(line)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "scan",
		Usage:   "Evaluate the configured symbols once and print ranked signals",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
			},
			&cli.StringSliceFlag{
				Name:    "symbols",
				Aliases: []string{"s"},
				Usage:   "Override the configured symbol list",
			},
		},
		Action: scanAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
