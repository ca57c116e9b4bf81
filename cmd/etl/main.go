package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/alecacerestel/AppASO/internal/config"
	"github.com/alecacerestel/AppASO/internal/logger"
	"github.com/alecacerestel/AppASO/internal/pipeline"
	"github.com/alecacerestel/AppASO/internal/transform"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	var (
		configPath    = flag.String("config", "configs/default.yaml", "Configuration file path")
		rawDir        = flag.String("raw-dir", "", "Override the raw exports folder inside the store")
		dryRun        = flag.Bool("dry-run", false, "Transform only, write nothing")
		skipWarehouse = flag.Bool("skip-warehouse", false, "Skip the SQL warehouse refresh")
		watch         = flag.Bool("watch", false, "Keep running and re-process when new exports arrive")
		showVersion   = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("AppASO ETL %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *rawDir != "" {
		cfg.Pipeline.RawFolder = *rawDir
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting AppASO ETL",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.Bool("dry_run", *dryRun),
		zap.Bool("watch", *watch))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, cancelling operations...")
		cancel()
	}()

	p, err := pipeline.New(cfg, log, pipeline.Options{
		DryRun:        *dryRun,
		SkipWarehouse: *skipWarehouse,
	})
	if err != nil {
		log.Fatal("Failed to initialize pipeline", zap.Error(err))
	}
	defer p.Close()

	if *watch {
		if err := p.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal("Watch mode failed", zap.Error(err))
		}
		log.Info("Watch mode stopped")
		return
	}

	if err := p.Run(ctx); err != nil {
		var te *transform.TransformError
		if errors.As(err, &te) {
			// The surviving tables were loaded; exit nonzero so the
			// scheduler still flags the run.
			log.Error("Run completed with failed data types", zap.Error(err))
			os.Exit(2)
		}
		log.Fatal("Run failed", zap.Error(err))
	}

	log.Info("ETL pipeline completed successfully")
}
