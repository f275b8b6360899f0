package tx

import (
	"context"
	"sync"
	"time"

	pkgerrors "namereg/pkg/domain-errors"
)

// defaultTxTimeout is the maximum duration for a transaction.
const defaultTxTimeout = 5 * time.Second

// MemoryManager serializes transactions behind one process-wide lock and undoes
// journaled writes when fn fails.
type MemoryManager struct {
	mu      sync.Mutex
	timeout time.Duration
}

// NewMemoryManager constructs a MemoryManager. A zero timeout uses the default.
func NewMemoryManager(timeout time.Duration) *MemoryManager {
	return &MemoryManager{timeout: timeout}
}

func (m *MemoryManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, joined := JournalFrom(ctx); joined {
		return fn(ctx)
	}

	if err := ctx.Err(); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := m.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	journal := &Journal{}
	if err := fn(WithJournal(ctx, journal)); err != nil {
		journal.Rollback()
		return err
	}
	journal.Discard()
	return nil
}
