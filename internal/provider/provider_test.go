package provider

import (
	"context"
	"io"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soraxas/auto-portforward/internal/sshclient"
)

func TestMockSnapshotIsStable(t *testing.T) {
	m := NewMock()
	a, err := m.Processes()
	require.NoError(t, err)
	b, err := m.Processes()
	require.NoError(t, err)
	require.True(t, a.Equal(b))
	require.Equal(t, []int{80, 443}, a["1234"].TCP)
	m.Cleanup()
}

func TestLocalAndMockToggleWithoutForwards(t *testing.T) {
	// Neither variant spawns subprocesses on toggle; the calls must simply
	// not blow up and must stay idempotent.
	for _, p := range []Provider{NewLocal(), NewMock()} {
		p.SetToggledPorts([]int{80, 443})
		p.SetToggledPorts([]int{80, 443})
		p.Cleanup()
	}
}

// countingStarter stands in for the ssh client, spawning short sleeps.
type countingStarter struct {
	started int
}

func (c *countingStarter) StartTunnel(ctx context.Context, host string, port int) (*sshclient.TunnelProcess, error) {
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
	c.started++
	return &sshclient.TunnelProcess{Cmd: cmd, Stderr: stderr}, nil
}

func newTestRemote(starter *countingStarter) *Remote {
	return NewRemote(RemoteDeps{Starter: starter}, "testhost", RemoteOptions{
		ForwardGrace: time.Second,
	})
}

func TestRemoteReconciliationManagesForwards(t *testing.T) {
	starter := &countingStarter{}
	r := newTestRemote(starter)

	r.SetToggledPorts([]int{80, 443})
	require.Equal(t, []int{80, 443}, r.ActivePorts())
	require.Equal(t, 2, starter.started)

	// Idempotence: same set again spawns nothing.
	r.SetToggledPorts([]int{80, 443})
	require.Equal(t, 2, starter.started)

	// 443 survives the transition untouched; 80 stops, 9000 starts.
	r.SetToggledPorts([]int{443, 9000})
	require.Equal(t, []int{443, 9000}, r.ActivePorts())
	require.Equal(t, 3, starter.started)

	r.SetToggledPorts(nil)
	require.Empty(t, r.ActivePorts())
	r.Cleanup()
}

func TestRemoteName(t *testing.T) {
	r := newTestRemote(&countingStarter{})
	require.Equal(t, "SSH: testhost", r.Name())
	r.Cleanup()
}
