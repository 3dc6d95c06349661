// Command server runs the scan scheduler and the HTTP status/signal API
// until interrupted.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/halcyon-lab/synthsignal/internal/config"
	"github.com/halcyon-lab/synthsignal/internal/datasource"
	"github.com/halcyon-lab/synthsignal/internal/engine"
	"github.com/halcyon-lab/synthsignal/internal/logger"
	"github.com/halcyon-lab/synthsignal/internal/notifier"
	"github.com/halcyon-lab/synthsignal/internal/scanner"
	"github.com/halcyon-lab/synthsignal/internal/server"
	"github.com/halcyon-lab/synthsignal/internal/store"
	"github.com/halcyon-lab/synthsignal/internal/version"
)

func serverAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Default()

	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}

		cfg = loaded
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

	channels := []notifier.Notifier{notifier.NewLog(appLogger)}

	if cfg.Notifier.WebhookURL != "" {
		webhook, err := notifier.NewWebhook(cfg.Notifier.WebhookURL, cfg.Notifier.Timeout)
		if err != nil {
			return err
		}

		channels = append(channels, webhook)
	}

	scan, err := scanner.NewScanner(cfg.Scanner, source, pipeline, auditStore,
		notifier.NewFanout(appLogger, channels...), appLogger)
	if err != nil {
		return err
	}

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := scan.Start(runCtx); err != nil {
		return err
	}
	defer scan.Stop()

	api, err := server.NewServer(cfg.Server, scan, auditStore, appLogger)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- api.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-runCtx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	return api.Shutdown(shutdownCtx)
}

func main() {
	cmd := &cli.Command{
		Name:    "server",
		Usage:   "Run the scan scheduler and the HTTP signal API",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
			},
		},
		Action: serverAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
