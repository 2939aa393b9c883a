// Package bridge owns the controller side of the remote monitoring link: a
// loopback listener, an SSH subprocess holding a reverse tunnel that
// executes the agent on the target host, and a background reader that
// decodes snapshot frames into a shared latest-value cell.
//
// Data flow: agent -> framed bytes over the reverse tunnel -> reader
// goroutine -> Latest cell -> Processes() poll from the UI's event loop.
// The consumer side never blocks on socket I/O.
package bridge

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/soraxas/auto-portforward/internal/model"
	"github.com/soraxas/auto-portforward/internal/sshclient"
	"github.com/soraxas/auto-portforward/internal/util"
)

// Launcher abstracts bridge subprocess creation for testing.
type Launcher interface {
	StartBridge(host string, port int, agentCommand, secret string) (*sshclient.BridgeProcess, error)
}

// Options configures a Bridge beyond its target host.
type Options struct {
	// AgentCommand is the remote invocation that starts the agent; the
	// listener port is appended as its argument.
	AgentCommand string
	// Secret is the optional enumeration secret propagated to the remote
	// environment. Never logged.
	Secret string
	// HandshakeTimeout and AcceptPollTimeout override the defaults; zero
	// values select them. Shortened in tests.
	HandshakeTimeout  time.Duration
	AcceptPollTimeout time.Duration
	ReadPollTimeout   time.Duration
}

// Bridge owns the SSH reverse tunnel, the accepted agent connection, and
// the reader goroutine for one target host.
type Bridge struct {
	host     string
	opts     Options
	launcher Launcher

	listener *net.TCPListener
	conn     *net.TCPConn
	proc     *sshclient.BridgeProcess
	waitDone chan struct{}
	waitErr  error

	latest     Latest
	finished   atomic.Bool
	readerDone chan struct{}

	// cached is only touched from the consumer side (the UI event loop);
	// cross-thread traffic goes through the Latest cell.
	cached model.Snapshot

	cleanupOnce sync.Once
}

// New creates a Bridge for host. Connect must be called before anything
// else.
func New(launcher Launcher, host string, opts Options) *Bridge {
	if opts.AgentCommand == "" {
		opts.AgentCommand = "auto-portforward agent"
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = util.HandshakeTimeout
	}
	if opts.AcceptPollTimeout <= 0 {
		opts.AcceptPollTimeout = util.AcceptPollTimeout
	}
	if opts.ReadPollTimeout <= 0 {
		opts.ReadPollTimeout = util.ReadPollTimeout
	}
	return &Bridge{host: host, opts: opts, launcher: launcher}
}

// Host returns the bridge's target host.
func (b *Bridge) Host() string { return b.host }

// Connect performs the whole handshake: bind an ephemeral loopback port,
// launch the SSH subprocess with the reverse tunnel executing the agent,
// and wait for the single inbound connection. It never lets a failure
// escape as an error or a running subprocess — on any failure the
// partially-started subprocess is torn down and false is returned, leaving
// the caller with no cleanup obligation.
func (b *Bridge) Connect() bool {
	if err := b.connect(); err != nil {
		slog.Error("bridge handshake failed", "host", b.host, "error", err)
		b.abortHandshake()
		return false
	}
	return true
}

func (b *Bridge) connect() error {
	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return fmt.Errorf("bind loopback listener: %w", err)
	}
	b.listener = listener.(*net.TCPListener)
	port := listener.Addr().(*net.TCPAddr).Port
	slog.Debug("bridge listener bound", "host", b.host, "port", port)

	proc, err := b.launcher.StartBridge(b.host, port, b.opts.AgentCommand, b.opts.Secret)
	if err != nil {
		return fmt.Errorf("start ssh subprocess: %w", err)
	}
	b.proc = proc
	b.waitDone = make(chan struct{})
	go func() {
		b.waitErr = proc.Cmd.Wait()
		close(b.waitDone)
	}()
	go b.drain(proc.Stdout, "stdout")
	go b.drain(proc.Stderr, "stderr")

	conn, err := b.awaitAgent()
	if err != nil {
		return err
	}
	b.conn = conn
	// Exactly one inbound connection is ever expected.
	_ = b.listener.Close()

	b.readerDone = make(chan struct{})
	go b.readLoop()
	slog.Info("bridge connected", "host", b.host)
	return nil
}

// awaitAgent polls for the agent's connection with a short per-attempt
// deadline so it can notice an already-dead SSH subprocess between
// attempts, and an overall deadline so a wedged remote side cannot hang the
// handshake.
func (b *Bridge) awaitAgent() (*net.TCPConn, error) {
	deadline := time.Now().Add(b.opts.HandshakeTimeout)
	for {
		select {
		case <-b.waitDone:
			return nil, fmt.Errorf("ssh process died with exit code %d while waiting for connection",
				b.proc.Cmd.ProcessState.ExitCode())
		default:
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timeout while waiting for remote connection")
		}
		if err := b.listener.SetDeadline(time.Now().Add(b.opts.AcceptPollTimeout)); err != nil {
			return nil, err
		}
		conn, err := b.listener.AcceptTCP()
		if err != nil {
			if isTimeout(err) {
				slog.Debug("still waiting for remote connection", "host", b.host)
				continue
			}
			return nil, fmt.Errorf("accept: %w", err)
		}
		return conn, nil
	}
}

// abortHandshake tears down whatever the failed handshake left behind.
func (b *Bridge) abortHandshake() {
	if b.proc != nil {
		_ = b.proc.Cmd.Process.Kill()
		<-b.waitDone
		b.proc = nil
	}
	if b.listener != nil {
		_ = b.listener.Close()
		b.listener = nil
	}
}

// drain forwards one of the SSH subprocess's output streams to the log,
// line by line, tagged with its origin.
func (b *Bridge) drain(pipe io.Reader, stream string) {
	scanner := bufio.NewScanner(pipe)
	for scanner.Scan() {
		if stream == "stderr" {
			slog.Warn("ssh "+stream, "host", b.host, "line", scanner.Text())
		} else {
			slog.Info("ssh "+stream, "host", b.host, "line", scanner.Text())
		}
	}
}

// Processes never blocks: it returns the most recent snapshot if one
// arrived since the last call, otherwise the previously cached one
// (initially empty). Safe to call on every UI tick even if the bridge has
// stalled or died.
func (b *Bridge) Processes() model.Snapshot {
	if snap, ok := b.latest.Take(); ok {
		b.cached = snap
	}
	if b.cached == nil {
		return model.Snapshot{}
	}
	return b.cached
}

// Cleanup tears the bridge down: the SSH subprocess is killed immediately
// (no grace period — cleanup must be fast, and killing ssh is what unblocks
// the remote agent quickly), the socket is shut down with errors swallowed,
// and the reader goroutine is joined. Idempotent and safe to call from a
// different goroutine than the one that created the Bridge.
func (b *Bridge) Cleanup() {
	b.cleanupOnce.Do(func() {
		slog.Debug("cleaning up bridge", "host", b.host)
		if b.proc != nil {
			_ = b.proc.Cmd.Process.Kill()
		}
		b.finished.Store(true)
		if b.conn != nil {
			// The peer may already have closed its side; both calls are
			// best-effort.
			_ = b.conn.CloseWrite()
			_ = b.conn.Close()
		}
		if b.listener != nil {
			_ = b.listener.Close()
		}
		if b.readerDone != nil {
			<-b.readerDone
		}
		if b.proc != nil {
			<-b.waitDone
		}
	})
}

// terminateSSH is the reader-exit escalation: interrupt, terminate, a short
// bounded wait, then kill. Distinct from Cleanup's immediate kill — this
// path runs when the connection died on its own and gives ssh a moment to
// exit on SIGTERM.
func (b *Bridge) terminateSSH() {
	if b.proc == nil {
		return
	}
	slog.Debug("terminating ssh process", "host", b.host)
	pid := b.proc.Cmd.Process.Pid
	_ = syscall.Kill(pid, syscall.SIGINT)
	_ = syscall.Kill(pid, syscall.SIGTERM)
	select {
	case <-b.waitDone:
	case <-time.After(500 * time.Millisecond):
		slog.Warn("ssh process did not terminate gracefully, killing", "host", b.host)
		_ = b.proc.Cmd.Process.Kill()
		<-b.waitDone
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
