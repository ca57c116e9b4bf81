package drive

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Throttled wraps a Store with a request rate limit and bounded
// exponential-backoff retries. Retry policy for flaky transports belongs
// out here in the I/O layer; the transform core stays pure.
type Throttled struct {
	inner      Store
	limiter    *rate.Limiter
	maxRetries int
	logger     *zap.Logger
}

// NewThrottled wraps inner, allowing requestsPerSecond sustained calls
// and retrying each failed call up to maxRetries times.
func NewThrottled(inner Store, requestsPerSecond float64, maxRetries int, logger *zap.Logger) *Throttled {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Throttled{
		inner:      inner,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		maxRetries: maxRetries,
		logger:     logger,
	}
}

func (t *Throttled) List(ctx context.Context, folder string) ([]FileInfo, error) {
	var files []FileInfo
	err := t.do(ctx, "list "+folder, func() error {
		var err error
		files, err = t.inner.List(ctx, folder)
		return err
	})
	return files, err
}

func (t *Throttled) Download(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := t.do(ctx, "download "+path, func() error {
		var err error
		data, err = t.inner.Download(ctx, path)
		return err
	})
	return data, err
}

func (t *Throttled) Upload(ctx context.Context, path string, data []byte) error {
	return t.do(ctx, "upload "+path, func() error {
		return t.inner.Upload(ctx, path, data)
	})
}

func (t *Throttled) do(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < t.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * time.Second
			t.logger.Warn("retrying store call",
				zap.String("op", op),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("%s: all %d attempts failed: %w", op, t.maxRetries, lastErr)
}
