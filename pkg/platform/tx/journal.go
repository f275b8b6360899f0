package tx

import (
	"context"
	"sync"
)

type journalKey struct{}

// Journal records compensating actions for writes made outside a SQL transaction.
type Journal struct {
	mu   sync.Mutex
	undo []func()
}

// WithJournal attaches j to ctx.
func WithJournal(ctx context.Context, j *Journal) context.Context {
	return context.WithValue(ctx, journalKey{}, j)
}

// JournalFrom returns the journal of the running transaction, if any.
func JournalFrom(ctx context.Context) (*Journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*Journal)
	return j, ok
}

// OnRollback registers fn to run if the transaction in ctx fails. Outside a
// transaction it is a no-op and the write is final.
func OnRollback(ctx context.Context, fn func()) {
	if j, ok := JournalFrom(ctx); ok {
		j.Record(fn)
	}
}

// Record appends an undo step.
func (j *Journal) Record(fn func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.undo = append(j.undo, fn)
}

// Rollback runs every undo step, newest first, and empties the journal.
func (j *Journal) Rollback() {
	j.mu.Lock()
	steps := j.undo
	j.undo = nil
	j.mu.Unlock()
	for i := len(steps) - 1; i >= 0; i-- {
		steps[i]()
	}
}

// Discard forgets recorded steps after a successful commit.
func (j *Journal) Discard() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.undo = nil
}
