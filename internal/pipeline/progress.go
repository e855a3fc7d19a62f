package pipeline

import (
	"sync"

	"github.com/UnendingLoop/ImageBatcher/internal/model"
)

// ProgressFunc is called after each file whose both saves succeeded.
type ProgressFunc func(total, processed int, current string)

// Tracker counts completed files. Reports are serialized by reportMu, so
// callbacks observe a non-decreasing processed count that never exceeds total.
// Snapshot only takes mu and is safe to call from inside the callback.
type Tracker struct {
	reportMu  sync.Mutex
	mu        sync.Mutex
	total     int
	processed int
	current   string
	onDone    ProgressFunc
}

func NewTracker(total int, onDone ProgressFunc) *Tracker {
	return &Tracker{total: total, onDone: onDone}
}

// Done records one finished file and reports it.
func (t *Tracker) Done(name string) {
	t.reportMu.Lock()
	defer t.reportMu.Unlock()

	t.mu.Lock()
	if t.processed >= t.total {
		t.mu.Unlock()
		return
	}
	t.processed++
	t.current = name
	total, processed := t.total, t.processed
	t.mu.Unlock()

	if t.onDone != nil {
		t.onDone(total, processed, name)
	}
}

func (t *Tracker) Snapshot() model.ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return model.ProgressSnapshot{Total: t.total, Processed: t.processed, Current: t.current}
}
