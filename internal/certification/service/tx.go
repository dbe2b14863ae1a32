package service

import (
	"context"
	"sync"
	"time"

	dErrors "certo/pkg/domain-errors"
)

// StoreTx provides the transactional boundary every engine operation runs
// inside. Implementations wrap a database transaction or, in memory, a
// coarse lock. The memory boundary gives serialization only, not rollback:
// writes that land before fn returns an error stay applied. Operations keep
// their validating reads ahead of their writes, and the postgres boundary
// rolls back for real.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(store Store) error) error
}

// defaultTxTimeout bounds one engine transaction.
const defaultTxTimeout = 5 * time.Second

// memoryTx serializes operations with a single mutex. Sharding by candidate
// would not be sound here: the allocator's capacity check reads shared
// evaluator load across candidates, so concurrent assignments must see each
// other's committed writes.
type memoryTx struct {
	mu      sync.Mutex
	store   Store
	timeout time.Duration
}

// NewMemoryTx wraps an in-memory store in a coarse transactional boundary.
func NewMemoryTx(store Store) StoreTx {
	return &memoryTx{store: store}
}

func (t *memoryTx) RunInTx(ctx context.Context, fn func(store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(t.store)
}
