//go:build linux

package procscan

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/soraxas/auto-portforward/internal/model"
	"github.com/soraxas/auto-portforward/internal/util"
)

// connectionsByPID maps pid -> ports for listening TCP sockets and bound UDP
// sockets by joining /proc/net tables against /proc/<pid>/fd socket inodes.
func connectionsByPID() (tcp, udp map[int][]int, err error) {
	tcpInodes := map[uint64]int{}
	udpInodes := map[uint64]int{}
	for _, path := range []string{"/proc/net/tcp", "/proc/net/tcp6"} {
		mergeInodePorts(tcpInodes, path, true)
	}
	for _, path := range []string{"/proc/net/udp", "/proc/net/udp6"} {
		mergeInodePorts(udpInodes, path, false)
	}

	tcp = map[int][]int{}
	udp = map[int][]int{}

	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, nil, fmt.Errorf("read /proc: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, convErr := strconv.Atoi(entry.Name())
		if convErr != nil {
			continue
		}
		fds, readErr := os.ReadDir(fmt.Sprintf("/proc/%d/fd", pid))
		if readErr != nil {
			// Foreign process and no privileges; nothing to attribute.
			continue
		}
		for _, fd := range fds {
			target, linkErr := os.Readlink(fmt.Sprintf("/proc/%d/fd/%s", pid, fd.Name()))
			if linkErr != nil {
				continue
			}
			inode, ok := socketInode(target)
			if !ok {
				continue
			}
			if port, found := tcpInodes[inode]; found {
				tcp[pid] = append(tcp[pid], port)
			}
			if port, found := udpInodes[inode]; found {
				udp[pid] = append(udp[pid], port)
			}
		}
	}
	return tcp, udp, nil
}

func mergeInodePorts(dst map[uint64]int, path string, listenOnly bool) {
	f, err := os.Open(path)
	if err != nil {
		return // table absent (e.g. no IPv6)
	}
	defer f.Close()
	for inode, port := range parseProcNet(f, listenOnly) {
		dst[inode] = port
	}
}

// socketInode extracts the inode from an fd symlink target of the form
// "socket:[12345]".
func socketInode(target string) (uint64, bool) {
	if !strings.HasPrefix(target, "socket:[") || !strings.HasSuffix(target, "]") {
		return 0, false
	}
	inode, err := strconv.ParseUint(target[len("socket:["):len(target)-1], 10, 64)
	if err != nil {
		return 0, false
	}
	return inode, true
}

func resolveProcesses(tcp, udp map[int][]int) map[int]model.ProcessRecord {
	pids := map[int]struct{}{}
	for pid := range tcp {
		pids[pid] = struct{}{}
	}
	for pid := range udp {
		pids[pid] = struct{}{}
	}

	out := make(map[int]model.ProcessRecord, len(pids))
	for pid := range pids {
		rec, ok := readProcess(pid, tcp[pid], udp[pid])
		if !ok {
			continue // exited mid-scan
		}
		out[pid] = rec
	}
	return out
}

func readProcess(pid int, tcpPorts, udpPorts []int) (model.ProcessRecord, bool) {
	comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return model.ProcessRecord{}, false
	}
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return model.ProcessRecord{}, false
	}
	status, createTime := parseStat(string(stat))

	rec := model.ProcessRecord{
		PID:        pid,
		Name:       strings.TrimSpace(string(comm)),
		Cwd:        readCwd(pid),
		Status:     status,
		CreateTime: createTime,
		TCP:        sortedCopy(tcpPorts),
		UDP:        sortedCopy(udpPorts),
	}
	rec.Canonicalize()
	return rec, true
}

// readCwd resolves the working directory of pid, escalating through sudo
// when a password is available and direct access is denied. "?" means the
// cwd could not be determined.
func readCwd(pid int) string {
	if cwd, err := os.Readlink(fmt.Sprintf("/proc/%d/cwd", pid)); err == nil {
		return cwd
	}
	password := os.Getenv(util.SudoPasswordEnv)
	if password == "" {
		return "?"
	}
	cmd := exec.Command("sudo", "-S", "readlink", fmt.Sprintf("/proc/%d/cwd", pid))
	cmd.Stdin = strings.NewReader(password + "\n")
	out, err := cmd.Output()
	if err != nil {
		return "?"
	}
	cwd := strings.TrimSpace(string(out))
	if cwd == "" {
		return "?"
	}
	return cwd
}

func sortedCopy(ports []int) []int {
	if len(ports) == 0 {
		return nil
	}
	out := append([]int(nil), ports...)
	sort.Ints(out)
	return out
}
