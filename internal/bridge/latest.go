package bridge

import (
	"sync"

	"github.com/soraxas/auto-portforward/internal/model"
)

// Latest is a single-producer/single-consumer "latest value" cell of depth
// one with overwrite-on-full semantics: the reader goroutine publishes
// snapshots, the consumer takes them, and if several arrive between polls
// only the most recent is visible. The dirty flag is sticky until a Take
// observes it.
//
// The mutex is held only for the duration of a pointer copy, never across
// I/O.
type Latest struct {
	mu     sync.Mutex
	value  model.Snapshot
	hasNew bool
}

// Publish stores a new snapshot, overwriting any unconsumed one.
func (l *Latest) Publish(s model.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.value = s
	l.hasNew = true
}

// Take returns the stored snapshot and clears the dirty flag. ok is false
// when nothing new was published since the last Take.
func (l *Latest) Take() (s model.Snapshot, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.hasNew {
		return nil, false
	}
	l.hasNew = false
	return l.value, true
}
