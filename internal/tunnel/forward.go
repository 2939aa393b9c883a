// Package tunnel manages per-port SSH tunnel subprocesses and the
// reconciliation engine that keeps the set of live tunnels in sync with the
// operator's desired port set.
package tunnel

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"syscall"
	"time"

	"github.com/soraxas/auto-portforward/internal/shutdown"
	"github.com/soraxas/auto-portforward/internal/sshclient"
	"github.com/soraxas/auto-portforward/internal/util"
)

// Starter abstracts SSH tunnel process creation for testing.
type Starter interface {
	StartTunnel(ctx context.Context, host string, port int) (*sshclient.TunnelProcess, error)
}

// Forward is one subprocess wrapping a single local SSH tunnel for one
// port. At most one live Forward exists per port at any time; the
// reconciler's port-keyed map enforces that.
type Forward struct {
	Host string
	Port int

	starter Starter
	grace   time.Duration

	mu         sync.Mutex
	cleanedUp  bool
	proc       *sshclient.TunnelProcess
	waitDone   chan struct{}
	waitErr    error
	unregister func()
}

// NewForward creates a Forward for port on host. grace bounds how long
// Cleanup waits for a graceful exit before force-killing; zero selects the
// default.
func NewForward(starter Starter, host string, port int, grace time.Duration) *Forward {
	if grace <= 0 {
		grace = util.ForwardGraceTimeout
	}
	return &Forward{Host: host, Port: port, starter: starter, grace: grace}
}

// Start spawns the tunnel subprocess (`ssh -N -L port:localhost:port
// host`) in its own process group with parent-death signalling where
// supported, and registers a process-exit backstop so the tunnel is not
// leaked if explicit cleanup is skipped.
func (f *Forward) Start() error {
	proc, err := f.starter.StartTunnel(context.Background(), f.Host, f.Port)
	if err != nil {
		return fmt.Errorf("start forward for port %d: %w", f.Port, err)
	}

	f.mu.Lock()
	f.proc = proc
	f.waitDone = make(chan struct{})
	f.unregister = shutdown.Register(f.Cleanup)
	f.mu.Unlock()

	// Drain stderr so ssh never blocks on a full pipe; its complaints
	// ("bind: Address already in use", auth failures) are worth surfacing.
	go func() {
		scanner := bufio.NewScanner(proc.Stderr)
		for scanner.Scan() {
			slog.Debug("forward ssh stderr", "port", f.Port, "line", scanner.Text())
		}
	}()
	// Reap the process exactly once; Cleanup waits on this channel.
	go func() {
		f.waitErr = proc.Cmd.Wait()
		close(f.waitDone)
	}()

	slog.Info("started port forwarding", "port", f.Port, "pid", proc.Cmd.Process.Pid)
	return nil
}

// Cleanup terminates the tunnel subprocess. Idempotent: a second call
// performs no operation. It never returns or propagates an error — every
// failure along the escalation path is logged and swallowed, because the
// reconciler must be able to clean up every forward regardless of any
// single one's failure.
//
// Escalation: SIGTERM then SIGINT to the process, SIGTERM to its process
// group, a bounded wait for exit, then SIGKILL to both on timeout.
func (f *Forward) Cleanup() {
	f.mu.Lock()
	if f.cleanedUp {
		f.mu.Unlock()
		return
	}
	f.cleanedUp = true
	proc := f.proc
	done := f.waitDone
	unregister := f.unregister
	f.mu.Unlock()

	if unregister != nil {
		unregister()
	}
	if proc == nil {
		return
	}

	pid := proc.Cmd.Process.Pid
	f.signal(pid, syscall.SIGTERM, "terminate")
	f.signal(pid, syscall.SIGINT, "interrupt")
	f.signalGroup(pid, syscall.SIGTERM)

	select {
	case <-done:
		slog.Info("terminated port forwarding", "port", f.Port)
	case <-time.After(f.grace):
		slog.Warn("port forwarding did not terminate gracefully, forcing", "port", f.Port)
		f.signal(pid, syscall.SIGKILL, "kill")
		f.signalGroup(pid, syscall.SIGKILL)
		<-done
	}
}

func (f *Forward) signal(pid int, sig syscall.Signal, name string) {
	if err := syscall.Kill(pid, sig); err != nil && err != syscall.ESRCH {
		slog.Debug("signal forward process failed", "port", f.Port, "signal", name, "error", err)
	}
}

func (f *Forward) signalGroup(pid int, sig syscall.Signal) {
	pgid, err := syscall.Getpgid(pid)
	if err != nil {
		return // already reaped
	}
	if err := syscall.Kill(-pgid, sig); err != nil && err != syscall.ESRCH {
		slog.Debug("signal forward process group failed", "port", f.Port, "error", err)
	}
}
