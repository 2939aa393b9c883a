//go:build linux

package sshclient

import "syscall"

// tunnelSysProcAttr puts the subprocess in its own process group so the
// whole group can be signalled on teardown, and asks the kernel to deliver
// SIGTERM to the child if this process dies uncleanly — the parent-death
// backstop against orphaned tunnels.
func tunnelSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGTERM,
	}
}
