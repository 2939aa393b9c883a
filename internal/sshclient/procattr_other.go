//go:build !linux && !windows

package sshclient

import "syscall"

// tunnelSysProcAttr puts the subprocess in its own process group so the
// whole group can be signalled on teardown. Parent-death signalling is a
// Linux-only facility; on other Unixes the process group is the only
// backstop.
func tunnelSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
