package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceDelay lets a drive sync finish writing a batch of exports
// before a run starts.
const debounceDelay = 5 * time.Second

// Watch runs the pipeline once, then re-runs it whenever a file is
// created or written in the raw folder. Events are debounced so a
// multi-file sync triggers a single run. Watch blocks until the
// context is canceled.
func (p *Pipeline) Watch(ctx context.Context) error {
	if err := p.Run(ctx); err != nil {
		p.logger.Error("initial run failed", zap.Error(err))
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	rawDir := filepath.Join(p.cfg.Store.Root, p.cfg.Pipeline.RawFolder)
	if err := watcher.Add(rawDir); err != nil {
		return err
	}
	p.logger.Info("watching raw folder", zap.String("dir", rawDir))

	var timer *time.Timer
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			p.logger.Debug("raw folder changed", zap.String("file", event.Name))
			if timer == nil {
				timer = time.NewTimer(debounceDelay)
				pending = timer.C
			} else {
				timer.Reset(debounceDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("watch error", zap.Error(err))
		case <-pending:
			timer = nil
			pending = nil
			if err := p.Run(ctx); err != nil {
				p.logger.Error("run failed", zap.Error(err))
			}
		}
	}
}
