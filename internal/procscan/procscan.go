// Package procscan enumerates processes that hold open network ports on the
// local machine. It backs both the agent loop (when this binary runs on the
// target host) and the local provider (when no SSH host is involved).
//
// On Linux the scan reads /proc directly: listening TCP sockets and bound
// UDP sockets from /proc/net/{tcp,tcp6,udp,udp6}, socket-inode-to-pid
// resolution via /proc/<pid>/fd, and per-process metadata from
// /proc/<pid>/{comm,stat,cwd}. Elsewhere it shells out to lsof and ps.
//
// Access failures degrade rather than fail: a cwd that cannot be resolved
// becomes "?", and a pid that disappears mid-scan is skipped. If the
// AP_SUDO_PASSWORD environment variable is set, cwd resolution for foreign
// processes is retried through sudo with the password on stdin; the secret
// itself never reaches argv or logs.
package procscan

import (
	"strconv"

	"github.com/soraxas/auto-portforward/internal/model"
)

// Scan returns every process that currently has a listening TCP port or a
// bound UDP port, keyed by pid. Port lists in the returned records are
// canonical (ascending, deduplicated).
func Scan() (map[int]model.ProcessRecord, error) {
	tcp, udp, err := connectionsByPID()
	if err != nil {
		return nil, err
	}
	return resolveProcesses(tcp, udp), nil
}

// Snapshot runs a scan and re-keys the result by stringified pid, the shape
// the wire protocol and the UI consume.
func Snapshot() (model.Snapshot, error) {
	procs, err := Scan()
	if err != nil {
		return nil, err
	}
	snap := make(model.Snapshot, len(procs))
	for _, rec := range procs {
		snap[pidKey(rec.PID)] = rec
	}
	return snap, nil
}

func pidKey(pid int) string {
	return strconv.Itoa(pid)
}
