// Package shutdown holds the process-wide registry of cleanup callbacks.
//
// Components that own leak-prone resources (port-forward subprocesses in
// particular) register a callback here as a backstop against an exit path
// that skips their explicit Cleanup. main arranges for Run to be called both
// on normal exit and on SIGINT/SIGTERM.
//
// Callbacks run in LIFO order, mirroring the order resources are usually
// acquired. Run is idempotent: callbacks fire at most once no matter how
// many paths reach it.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	mu      sync.Mutex
	nextID  int
	entries = map[int]func(){}
	order   []int
	ran     bool
)

// Register adds fn to the registry and returns a cancel function that
// removes it again. Components cancel their registration once they have
// cleaned up explicitly, so the backstop never double-fires.
func Register(fn func()) (cancel func()) {
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	entries[id] = fn
	order = append(order, id)
	return func() {
		mu.Lock()
		defer mu.Unlock()
		delete(entries, id)
	}
}

// Run invokes every registered callback in LIFO order. Subsequent calls are
// no-ops. Safe to call from a signal handler goroutine.
func Run() {
	mu.Lock()
	if ran {
		mu.Unlock()
		return
	}
	ran = true
	fns := make([]func(), 0, len(entries))
	for i := len(order) - 1; i >= 0; i-- {
		if fn, ok := entries[order[i]]; ok {
			fns = append(fns, fn)
		}
	}
	mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// HandleSignals runs the registry and exits when SIGINT or SIGTERM arrives.
// Called once from main.
func HandleSignals() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		Run()
		os.Exit(130)
	}()
}

// reset is a test hook.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	nextID = 0
	entries = map[int]func(){}
	order = nil
	ran = false
}
