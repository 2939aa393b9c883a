// Package util provides common utility functions and constants used across the
// auto-portforward application. This package is intentionally kept
// dependency-free (no imports from other internal/* packages) to serve as a
// shared foundation without introducing circular dependencies.
package util

import "time"

const (
	// SudoPasswordEnv is the environment variable carrying the optional
	// privilege-escalation secret for process enumeration. It is read by
	// the agent on the target host and propagated by the bridge as part of
	// the remote command's environment. It must never appear in local argv
	// or in any log line.
	// Used by: internal/procscan (cwd resolution), internal/bridge (remote
	// command assembly).
	SudoPasswordEnv = "AP_SUDO_PASSWORD"

	// HandshakeTimeout bounds the whole bridge handshake: if the agent has
	// not connected back through the reverse tunnel within this window,
	// Connect gives up. The 30s value leaves room for slow SSH host key
	// exchange and remote shell startup while still failing in a time an
	// operator will sit through.
	// Used by: internal/bridge (Connect).
	HandshakeTimeout = 30 * time.Second

	// AcceptPollTimeout is the per-attempt accept deadline during the
	// handshake. Between attempts the bridge re-checks whether the SSH
	// subprocess has already died, so a short value here is what makes
	// "ssh exited with code 1" surface within seconds rather than after
	// the full HandshakeTimeout.
	// Used by: internal/bridge (Connect).
	AcceptPollTimeout = 2 * time.Second

	// ReadPollTimeout is the bounded-receive window for the frame length
	// prefix in the bridge reader loop. A timeout here is not an error; it
	// is the point where the reader gets to observe the finished flag.
	// Used by: internal/bridge (reader loop).
	ReadPollTimeout = 3 * time.Second

	// ForwardGraceTimeout is how long a port-forward subprocess is given to
	// exit after the graceful termination signals before it and its process
	// group are force-killed.
	// Used by: internal/tunnel (Forward.Cleanup) as the default when the
	// config does not override it.
	ForwardGraceTimeout = 5 * time.Second

	// AgentInterval is the pause between snapshot cycles in the agent loop.
	// Used by: internal/agent (Run) as the default interval.
	AgentInterval = time.Second

	// DefaultRefreshSeconds is the fallback interval (in seconds) for the
	// TUI's periodic snapshot poll when config.yaml has an invalid or
	// missing refresh_seconds value.
	// Used by: internal/ui (tick scheduling) and internal/appconfig.
	DefaultRefreshSeconds = 1
)
