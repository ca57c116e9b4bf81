package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alecacerestel/AppASO/internal/config"
	"github.com/alecacerestel/AppASO/internal/drive"
	"github.com/alecacerestel/AppASO/internal/extract"
	"github.com/alecacerestel/AppASO/internal/load"
	"github.com/alecacerestel/AppASO/internal/logger"
	"github.com/alecacerestel/AppASO/internal/notify"
	"github.com/alecacerestel/AppASO/internal/transform"
)

// Options toggle run behavior from the command line.
type Options struct {
	// DryRun transforms but writes nothing and sends no mail.
	DryRun bool
	// SkipWarehouse leaves the SQL warehouse untouched.
	SkipWarehouse bool
}

// Pipeline wires extraction, transformation, load and notification into
// one run.
type Pipeline struct {
	cfg         *config.Config
	opts        Options
	store       drive.Store
	extractor   *extract.Extractor
	transformer *transform.Transformer
	loader      *load.Loader
	warehouse   *load.Warehouse
	mailer      *notify.Mailer
	logger      *zap.Logger
}

// New builds a Pipeline from configuration.
func New(cfg *config.Config, log *logger.Logger, opts Options) (*Pipeline, error) {
	folder, err := drive.NewFolderStore(cfg.Store.Root)
	if err != nil {
		return nil, err
	}
	store := drive.NewThrottled(folder, cfg.Store.RequestsPerSecond, cfg.Store.MaxRetries, log.WithComponent("drive").Logger)

	cutoff, err := cfg.Pipeline.Cutoff()
	if err != nil {
		return nil, err
	}
	transformer := transform.New(transform.Config{
		Cutoff:    cutoff,
		PreStage:  cfg.Pipeline.PreStage,
		PostStage: cfg.Pipeline.PostStage,
	}, log.WithComponent("transform").Logger)

	extractor := extract.New(store, cfg.Pipeline.RawFolder, cfg.Pipeline.MirrorDir,
		cfg.Pipeline.Patterns, log.WithComponent("extract").Logger)

	var warehouse *load.Warehouse
	if cfg.Warehouse.Enabled && !opts.SkipWarehouse && !opts.DryRun {
		warehouse, err = load.NewWarehouse(cfg.Warehouse.WarehouseConfig, log.WithComponent("warehouse").Logger)
		if err != nil {
			return nil, err
		}
	}
	loader := load.NewLoader(
		load.NewLakeWriter(store, cfg.Lake, log.WithComponent("lake").Logger),
		load.NewWorkbookWriter(store, cfg.Workbook, log.WithComponent("workbook").Logger),
		warehouse,
		log.WithComponent("load").Logger,
	)

	return &Pipeline{
		cfg:         cfg,
		opts:        opts,
		store:       store,
		extractor:   extractor,
		transformer: transformer,
		loader:      loader,
		warehouse:   warehouse,
		mailer:      notify.New(cfg.Notify, log.WithComponent("notify").Logger),
		logger:      log.WithComponent("pipeline").Logger,
	}, nil
}

// Close releases held resources.
func (p *Pipeline) Close() error {
	if p.warehouse != nil {
		return p.warehouse.Close()
	}
	return nil
}

// Run executes one complete pipeline pass: control check, extract,
// transform, load, notify. A per-data-type transform failure still
// loads and reports the surviving tables, then surfaces the error.
func (p *Pipeline) Run(ctx context.Context) error {
	started := time.Now()

	enabled, err := drive.ControlEnabled(ctx, p.store, p.cfg.Pipeline.ControlPath)
	if err != nil {
		return fmt.Errorf("control check: %w", err)
	}
	if !enabled {
		p.logger.Info("pipeline disabled by control panel, skipping run")
		return nil
	}

	raw, err := p.extractor.ExtractAll(ctx)
	if err != nil {
		p.mailer.Failure("extraction", err)
		return fmt.Errorf("extraction: %w", err)
	}

	result, transformErr := p.transformer.Transform(raw)
	if transformErr != nil && len(result.Tables) == 0 {
		p.mailer.Failure("transformation", transformErr)
		return fmt.Errorf("transformation: %w", transformErr)
	}

	if p.opts.DryRun {
		p.logger.Info("dry run, skipping load",
			zap.Int("tables", len(result.Tables)),
			zap.Int("parse_warnings", result.WarningTotal()))
		return transformErr
	}

	if err := p.loader.Load(ctx, result.Tables, started); err != nil {
		p.mailer.Failure("load", err)
		return fmt.Errorf("load: %w", err)
	}

	p.mailer.Success(result, started)
	p.logger.Info("run completed",
		zap.Duration("took", time.Since(started)),
		zap.Int("tables", len(result.Tables)))

	var te *transform.TransformError
	if errors.As(transformErr, &te) {
		// Partial run: the loaded tables are good, but the caller still
		// needs to know about the failed data types.
		return transformErr
	}
	return nil
}
