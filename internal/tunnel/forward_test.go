// Forward tests use a fakeStarter implementation of the Starter interface
// to simulate SSH tunnel processes without actually launching SSH. The fake
// uses "sleep 30" as a stand-in process that can be started, signalled, and
// waited on like a real tunnel — but without requiring network connectivity
// or SSH configuration.
package tunnel

import (
	"context"
	"io"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/soraxas/auto-portforward/internal/sshclient"
)

type fakeStarter struct {
	fail    bool
	started int
}

func (f *fakeStarter) StartTunnel(ctx context.Context, host string, port int) (*sshclient.TunnelProcess, error) {
	if f.fail {
		return nil, exec.ErrNotFound
	}
	cmd := exec.CommandContext(ctx, "sleep", "30")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	f.started++
	return &sshclient.TunnelProcess{Cmd: cmd, Stderr: stderr}, nil
}

func TestForwardStartCleanup(t *testing.T) {
	starter := &fakeStarter{}
	fwd := NewForward(starter, "testhost", 8080, time.Second)
	if err := fwd.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	pid := fwd.proc.Cmd.Process.Pid
	fwd.Cleanup()

	// The process must be gone (signal 0 probe fails once reaped).
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if syscall.Kill(pid, 0) != nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("process %d still alive after Cleanup", pid)
}

func TestForwardCleanupIsIdempotent(t *testing.T) {
	starter := &fakeStarter{}
	fwd := NewForward(starter, "testhost", 8080, time.Second)
	if err := fwd.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	fwd.Cleanup()
	// Second call must be a no-op and must not panic or signal anything.
	fwd.Cleanup()
}

func TestForwardCleanupBeforeStart(t *testing.T) {
	fwd := NewForward(&fakeStarter{}, "testhost", 8080, time.Second)
	// No subprocess yet; Cleanup must still be safe.
	fwd.Cleanup()
}

func TestForwardStartFailure(t *testing.T) {
	fwd := NewForward(&fakeStarter{fail: true}, "testhost", 8080, time.Second)
	if err := fwd.Start(); err == nil {
		t.Fatal("expected start error")
	}
	fwd.Cleanup()
}
