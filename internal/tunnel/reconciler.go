package tunnel

import (
	"log/slog"
	"sort"
	"sync"
)

// Hook is invoked when a port enters or leaves the desired set.
type Hook func(port int) error

// Reconciler converts a desired set of ports into a minimal sequence of
// start/stop operations. It tracks which ports are currently active and, on
// every SetToggledPorts call, fires OnPortTurnedOff for ports that left the
// set and OnPortTurnedOn for ports that entered it.
//
// The default hooks only log; the SSH-backed provider overrides them to
// manage real Forward subprocesses. The engine itself is provider-agnostic,
// so local, mock and remote process sources all reconcile identically.
type Reconciler struct {
	mu     sync.Mutex
	active map[int]struct{}
	onOn   Hook
	onOff  Hook
}

// NewReconciler creates an engine with the given membership-change hooks.
// Nil hooks default to log-only behavior.
func NewReconciler(onOn, onOff Hook) *Reconciler {
	if onOn == nil {
		onOn = func(port int) error {
			slog.Info("port turned on", "port", port)
			return nil
		}
	}
	if onOff == nil {
		onOff = func(port int) error {
			slog.Info("port turned off", "port", port)
			return nil
		}
	}
	return &Reconciler{active: map[int]struct{}{}, onOn: onOn, onOff: onOff}
}

// SetToggledPorts reconciles the active set against desired (duplicates are
// ignored). Removals are fully processed before any addition, both in
// ascending port order, so teardown-before-startup is diagnosable in logs.
//
// Hook failures never abort processing of the remaining ports. A failed
// turn-on leaves the port out of the active set, so the next differing
// desired set retries it instead of believing it satisfied.
//
// Idempotent: calling twice with the same set performs no operations the
// second time.
func (r *Reconciler) SetToggledPorts(desired []int) {
	want := make(map[int]struct{}, len(desired))
	for _, p := range desired {
		want[p] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var toRemove, toAdd []int
	for p := range r.active {
		if _, ok := want[p]; !ok {
			toRemove = append(toRemove, p)
		}
	}
	for p := range want {
		if _, ok := r.active[p]; !ok {
			toAdd = append(toAdd, p)
		}
	}
	sort.Ints(toRemove)
	sort.Ints(toAdd)

	for _, p := range toRemove {
		if err := r.onOff(p); err != nil {
			slog.Error("turning off port failed", "port", p, "error", err)
		}
		delete(r.active, p)
	}
	for _, p := range toAdd {
		if err := r.onOn(p); err != nil {
			slog.Error("turning on port failed", "port", p, "error", err)
			continue
		}
		r.active[p] = struct{}{}
	}
}

// Active returns the currently active ports in ascending order.
func (r *Reconciler) Active() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.active))
	for p := range r.active {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Cleanup applies turn-off semantics to every remaining active port and
// clears the set.
func (r *Reconciler) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	ports := make([]int, 0, len(r.active))
	for p := range r.active {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	for _, p := range ports {
		if err := r.onOff(p); err != nil {
			slog.Error("turning off port during cleanup failed", "port", p, "error", err)
		}
		delete(r.active, p)
	}
}
