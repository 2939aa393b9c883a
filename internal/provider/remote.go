package provider

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/soraxas/auto-portforward/internal/bridge"
	"github.com/soraxas/auto-portforward/internal/events"
	"github.com/soraxas/auto-portforward/internal/model"
	"github.com/soraxas/auto-portforward/internal/tunnel"
)

// Journal persists lifecycle events. A nil journal disables recording.
type Journal interface {
	Append(evt events.Event) error
}

// RemoteDeps are the process-spawning seams of the remote provider, split
// out so tests can substitute fakes for the ssh client.
type RemoteDeps struct {
	Launcher bridge.Launcher
	Starter  tunnel.Starter
}

// RemoteOptions tunes the remote provider.
type RemoteOptions struct {
	// AgentCommand and Secret are handed to the bridge.
	AgentCommand string
	Secret       string
	// ForwardGrace bounds each forward's graceful-shutdown wait.
	ForwardGrace time.Duration
	// Journal records bridge and forward lifecycle events when non-nil.
	Journal Journal
}

// Remote monitors a host over SSH: a Bridge streams snapshots in, and the
// reconciliation engine keeps one Forward subprocess alive per toggled
// port.
type Remote struct {
	host   string
	deps   RemoteDeps
	opts   RemoteOptions
	bridge *bridge.Bridge

	reconciler  *tunnel.Reconciler
	cleanupOnce sync.Once

	mu       sync.Mutex
	forwards map[int]*tunnel.Forward
}

// NewRemote creates a remote provider for host. Connect must succeed before
// the provider is useful.
func NewRemote(deps RemoteDeps, host string, opts RemoteOptions) *Remote {
	r := &Remote{
		host: host,
		deps: deps,
		opts: opts,
		bridge: bridge.New(deps.Launcher, host, bridge.Options{
			AgentCommand: opts.AgentCommand,
			Secret:       opts.Secret,
		}),
		forwards: map[int]*tunnel.Forward{},
	}
	r.reconciler = tunnel.NewReconciler(r.portTurnedOn, r.portTurnedOff)
	return r
}

func (r *Remote) Name() string { return "SSH: " + r.host }

// Connect establishes the monitoring bridge. Failures are already logged;
// false means the provider holds no resources.
func (r *Remote) Connect() bool {
	ok := r.bridge.Connect()
	if ok {
		r.journal(events.TypeBridgeConnected, 0)
	}
	return ok
}

// Processes serves the bridge's cached snapshot; it never blocks.
func (r *Remote) Processes() (model.Snapshot, error) {
	return r.bridge.Processes(), nil
}

func (r *Remote) SetToggledPorts(ports []int) {
	r.reconciler.SetToggledPorts(ports)
}

// Cleanup kills the SSH bridge first (unblocking the remote agent quickly),
// then tears down every active forward. Repeat calls are no-ops.
func (r *Remote) Cleanup() {
	r.cleanupOnce.Do(func() {
		r.bridge.Cleanup()
		r.reconciler.Cleanup()
		r.journal(events.TypeBridgeClosed, 0)
	})
}

// ActivePorts reports the ports with a live forward, for display.
func (r *Remote) ActivePorts() []int {
	return r.reconciler.Active()
}

func (r *Remote) portTurnedOn(port int) error {
	fwd := tunnel.NewForward(r.deps.Starter, r.host, port, r.opts.ForwardGrace)
	if err := fwd.Start(); err != nil {
		return err
	}
	r.mu.Lock()
	r.forwards[port] = fwd
	r.mu.Unlock()
	r.journal(events.TypeForwardStarted, port)
	return nil
}

func (r *Remote) portTurnedOff(port int) error {
	r.mu.Lock()
	fwd, ok := r.forwards[port]
	delete(r.forwards, port)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("no forward recorded for port %d", port)
	}
	fwd.Cleanup()
	r.journal(events.TypeForwardStopped, port)
	return nil
}

func (r *Remote) journal(eventType string, port int) {
	if r.opts.Journal == nil {
		return
	}
	if err := r.opts.Journal.Append(events.Event{Host: r.host, EventType: eventType, Port: port}); err != nil {
		slog.Debug("journal append failed", "error", err)
	}
}
