package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/alecacerestel/AppASO/internal/config"
	"github.com/alecacerestel/AppASO/internal/drive"
	"github.com/alecacerestel/AppASO/internal/forecast"
	"github.com/alecacerestel/AppASO/internal/logger"
	"github.com/alecacerestel/AppASO/internal/schema"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	var (
		configPath  = flag.String("config", "configs/default.yaml", "Configuration file path")
		dryRun      = flag.Bool("dry-run", false, "Compute predictions but write nothing")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("AppASO Forecast %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting AppASO Forecast",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.Int("training_months", cfg.Forecast.TrainingMonths))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, cancelling operations...")
		cancel()
	}()

	folder, err := drive.NewFolderStore(cfg.Store.Root)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	store := drive.NewThrottled(folder, cfg.Store.RequestsPerSecond, cfg.Store.MaxRetries, log.WithComponent("drive").Logger)

	points, err := forecast.LoadInstalls(ctx, store, cfg.Workbook.Path, cfg.SheetFor(schema.Installs))
	if err != nil {
		log.Fatal("Failed to load install history", zap.Error(err))
	}
	log.Info("Install history loaded", zap.Int("points", len(points)))

	forecaster := forecast.New(cfg.Forecast.Config, time.Now, log.WithComponent("forecast").Logger)
	predictions, err := forecaster.Run(points)
	if err != nil {
		log.Fatal("Forecast failed", zap.Error(err))
	}

	if *dryRun {
		log.Info("Dry run, skipping writes", zap.Int("predictions", len(predictions)))
		return
	}

	if err := forecast.WriteSheet(ctx, store, cfg.Workbook.Path, cfg.Forecast.Sheet, predictions, log.WithComponent("forecast").Logger); err != nil {
		log.Fatal("Failed to write forecast sheet", zap.Error(err))
	}
	if cfg.Forecast.BackupPath != "" {
		if err := forecast.WriteBackup(cfg.Forecast.BackupPath, predictions); err != nil {
			log.Warn("Failed to write forecast backup", zap.Error(err))
		}
	}

	log.Info("Forecast completed successfully", zap.Int("predictions", len(predictions)))
}
