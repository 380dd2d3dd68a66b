// Package resource bounds the resources the engine spends on embedding
// computation and cache IO.
package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxEmbedWorkers is the maximum number of concurrent model inference
	// calls. If 0, defaults to 1.
	MaxEmbedWorkers int64

	// IOLimitBytesPerSec is the maximum throughput for cache writes.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages embedding-compute concurrency and cache IO throughput.
// A nil Controller imposes no limits.
type Controller struct {
	cfg Config

	embedSem  *semaphore.Weighted
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxEmbedWorkers <= 0 {
		cfg.MaxEmbedWorkers = 1
	}

	c := &Controller{
		cfg:      cfg,
		embedSem: semaphore.NewWeighted(cfg.MaxEmbedWorkers),
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireEmbedSlot reserves an inference slot, blocking until one is free
// or ctx is canceled.
func (c *Controller) AcquireEmbedSlot(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.embedSem.Acquire(ctx, 1)
}

// ReleaseEmbedSlot releases an inference slot.
func (c *Controller) ReleaseEmbedSlot() {
	if c == nil {
		return
	}
	c.embedSem.Release(1)
}

// ThrottleIO blocks until the rate limiter admits n bytes of cache IO.
func (c *Controller) ThrottleIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil || n <= 0 {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
