// Package sshclient launches the SSH processes this application is built
// around — it does NOT implement the SSH protocol itself. Shelling out to
// the system "ssh" binary means the user's full SSH configuration (keys,
// agents, ProxyJump chains, host aliases) applies without reimplementing
// any of it.
//
// Three process shapes are produced:
//
//   - Tunnel processes: StartTunnel launches `ssh -N -L port:localhost:port
//     host` in its own process group. The caller (internal/tunnel) owns the
//     lifecycle: waiting, signalling, escalation to SIGKILL.
//
//   - Bridge processes: StartBridge launches `ssh -R port:localhost:port
//     host <remote agent command>`, the reverse tunnel that lets the agent
//     on the target host stream snapshots back to a loopback listener. The
//     caller (internal/bridge) drains stdout/stderr and owns teardown.
//
//   - Interactive sessions: RunInteractive attaches the user's terminal to
//     a live SSH session through a PTY.
//
// All SSH arguments are passed via exec.Command's argv (no shell
// interpolation on the local side), so host aliases cannot smuggle in shell
// metacharacters. The optional enumeration secret travels in the ssh
// subprocess's environment together with -o SendEnv, never in argv.
package sshclient

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"
	"github.com/soraxas/auto-portforward/internal/util"
)

// TunnelProcess represents a running per-port SSH tunnel subprocess.
type TunnelProcess struct {
	Cmd    *exec.Cmd
	Stderr io.ReadCloser
}

// BridgeProcess represents the running reverse-tunnel SSH subprocess that
// executes the agent remotely. Both output streams are exposed so the
// bridge can tag and forward every line to the log.
type BridgeProcess struct {
	Cmd    *exec.Cmd
	Stdout io.ReadCloser
	Stderr io.ReadCloser
}

// Client creates and launches SSH processes. It is stateless and safe for
// concurrent use; the zero value is not useful, use New.
type Client struct{}

// New creates a new SSH client.
func New() *Client { return &Client{} }

// EnsureSSHBinary checks that the "ssh" binary is available on PATH. Called
// early during startup so a missing client fails with a clear message
// instead of a confusing exec error later.
func EnsureSSHBinary() error {
	if _, err := exec.LookPath("ssh"); err != nil {
		return fmt.Errorf("ssh binary not found in PATH")
	}
	return nil
}

// BuildTunnelArgs constructs the argv for a single-port forward tunnel
// without starting a process. Split out for display and for unit testing
// argument composition.
//
// Example output: ["-N", "-L", "8080:localhost:8080", "prod-db"]
func BuildTunnelArgs(host string, port int) []string {
	return []string{
		"-N",
		"-L",
		fmt.Sprintf("%d:localhost:%d", port, port),
		host,
	}
}

// StartTunnel starts a background SSH process forwarding local connections
// on port to the same port on host. The process is placed in its own
// process group with parent-death signalling configured where the platform
// supports it, so an unclean controller death still reaps the tunnel.
//
// The caller is responsible for calling Cmd.Wait, draining Stderr, and
// signalling the process (and its group) to stop it.
func (c *Client) StartTunnel(ctx context.Context, host string, port int) (*TunnelProcess, error) {
	cmd := exec.CommandContext(ctx, "ssh", BuildTunnelArgs(host, port)...)
	cmd.SysProcAttr = tunnelSysProcAttr()

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = io.Discard
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &TunnelProcess{Cmd: cmd, Stderr: stderr}, nil
}

// BuildBridgeArgs constructs the argv for the reverse-tunnel bridge
// process: a remote forward of port back to the local listener, plus the
// remote agent invocation. sendSecret additionally requests that the
// enumeration secret's environment variable be forwarded to the remote
// side (the variable name only — the value stays out of argv).
//
// Example output:
//
//	["-R", "45001:localhost:45001", "-o", "SendEnv=AP_SUDO_PASSWORD",
//	 "fait", "auto-portforward agent 45001"]
func BuildBridgeArgs(host string, port int, agentCommand string, sendSecret bool) []string {
	args := []string{
		"-R",
		fmt.Sprintf("%d:localhost:%d", port, port),
	}
	if sendSecret {
		args = append(args, "-o", "SendEnv="+util.SudoPasswordEnv)
	}
	return append(args, host, fmt.Sprintf("%s %d", agentCommand, port))
}

// StartBridge starts the reverse-tunnel SSH process executing agentCommand
// on host with the listener port as its argument. If secret is non-empty it
// is placed in the subprocess environment (not argv) and SendEnv asks sshd
// to carry it across; whether the server honors that depends on its
// AcceptEnv configuration.
func (c *Client) StartBridge(host string, port int, agentCommand, secret string) (*BridgeProcess, error) {
	cmd := exec.Command("ssh", BuildBridgeArgs(host, port, agentCommand, secret != "")...)
	cmd.SysProcAttr = tunnelSysProcAttr()
	if secret != "" {
		cmd.Env = append(os.Environ(), util.SudoPasswordEnv+"="+secret)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &BridgeProcess{Cmd: cmd, Stdout: stdout, Stderr: stderr}, nil
}

// RunInteractive starts an interactive SSH session to host in a
// pseudo-terminal and blocks until it ends. The PTY is necessary for
// password prompts, line editing, and resizing to work on the remote shell.
// If ctx is cancelled while the session is active the SSH process is
// killed.
func (c *Client) RunInteractive(ctx context.Context, host string) error {
	cmd := exec.Command("ssh", host)

	f, err := pty.Start(cmd)
	if err != nil {
		return err
	}
	defer f.Close()

	// Keystrokes in, remote output out. The input copy ends when the PTY
	// closes after process exit.
	go func() {
		_, _ = io.Copy(f, os.Stdin)
	}()
	_, _ = io.Copy(os.Stdout, f)

	if ctx.Err() != nil {
		_ = cmd.Process.Kill()
	}
	return cmd.Wait()
}
