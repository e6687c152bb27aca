// Package maintenance holds background janitor jobs. The compactor reclaims
// stale daily counters; it never performs the daily reset itself, which is
// emergent from date-keyed storage.
package maintenance

import (
	"context"
	"log/slog"
	"time"
)

// Pruner removes counter entries older than the retention window.
// Implemented by the usage service.
type Pruner interface {
	PruneBefore(ctx context.Context, retainDays int) (int, error)
}

// Compactor periodically prunes counter entries past the retention window.
// Pruning only ever touches days strictly before today, so a running
// compactor can never zero a live counter.
type Compactor struct {
	pruner     Pruner
	interval   time.Duration
	retainDays int
	logger     *slog.Logger
}

// NewCompactor creates a Compactor. A non-positive interval disables the
// periodic loop; Run returns immediately in that case.
func NewCompactor(pruner Pruner, interval time.Duration, retainDays int, logger *slog.Logger) *Compactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compactor{
		pruner:     pruner,
		interval:   interval,
		retainDays: retainDays,
		logger:     logger,
	}
}

// Run executes one compaction immediately and then on every tick until the
// context is canceled. It always returns the context's error so it composes
// with errgroup-managed shutdown.
func (c *Compactor) Run(ctx context.Context) error {
	if c.interval <= 0 {
		c.logger.InfoContext(ctx, "counter compaction disabled")
		return nil
	}

	c.compactOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.compactOnce(ctx)
		}
	}
}

// compactOnce performs a single pruning pass. Failures are logged and
// retried on the next tick; a missed pass only delays reclamation.
func (c *Compactor) compactOnce(ctx context.Context) {
	removed, err := c.pruner.PruneBefore(ctx, c.retainDays)
	if err != nil {
		c.logger.WarnContext(ctx, "counter compaction failed",
			"retain_days", c.retainDays,
			"error", err,
		)
		return
	}

	if removed > 0 {
		c.logger.InfoContext(ctx, "counter compaction completed",
			"removed", removed,
			"retain_days", c.retainDays,
		)
	}
}
