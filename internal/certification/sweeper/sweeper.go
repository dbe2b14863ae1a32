// Package sweeper runs the periodic certificate expiration sweep.
package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// Service is the slice of the engine the sweeper drives.
type Service interface {
	SweepExpirations(ctx context.Context, now time.Time) (int, error)
}

// Sweeper triggers expiry sweeps on an interval. The sweep itself is
// idempotent, so multiple instances running concurrently only cost redundant
// reads.
type Sweeper struct {
	service  Service
	interval time.Duration
	logger   *slog.Logger
}

// New creates a sweeper. Interval must be positive.
func New(service Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
// Sweep failures are logged and the loop keeps going; a transient store
// outage must not kill the worker.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "expiry sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	count, err := s.service.SweepExpirations(ctx, time.Now())
	if err != nil {
		s.logger.ErrorContext(ctx, "expiry sweep failed", "error", err)
		return
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "expiry sweep completed", "expired", count)
	}
}
