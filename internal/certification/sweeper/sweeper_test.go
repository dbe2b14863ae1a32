package sweeper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingService struct {
	calls atomic.Int32
	err   error
}

func (c *countingService) SweepExpirations(context.Context, time.Time) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestSweeper_RunsImmediatelyAndOnTicks(t *testing.T) {
	svc := &countingService{}
	s := New(svc, 10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	calls := svc.calls.Load()
	assert.GreaterOrEqual(t, calls, int32(2), "expected the immediate sweep plus ticks, got %d", calls)
}

func TestSweeper_KeepsRunningAfterFailure(t *testing.T) {
	svc := &countingService{err: errors.New("store down")}
	s := New(svc, 10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	assert.GreaterOrEqual(t, svc.calls.Load(), int32(2))
}
