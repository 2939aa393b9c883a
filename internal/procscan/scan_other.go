//go:build !linux

package procscan

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/soraxas/auto-portforward/internal/model"
	"github.com/soraxas/auto-portforward/internal/util"
)

// connectionsByPID shells out to lsof on platforms without a /proc
// filesystem. With a sudo password available the listing is retried under
// sudo, which surfaces sockets of other users' processes.
func connectionsByPID() (tcp, udp map[int][]int, err error) {
	args := []string{"lsof", "-nP", "-iTCP", "-sTCP:LISTEN", "-iUDP"}
	password := os.Getenv(util.SudoPasswordEnv)
	if password != "" {
		args = append([]string{"sudo", "-S"}, args...)
	}
	cmd := exec.Command(args[0], args[1:]...)
	if password != "" {
		cmd.Stdin = strings.NewReader(password + "\n")
	}
	out, err := cmd.Output()
	if err != nil {
		return nil, nil, fmt.Errorf("lsof: %w", err)
	}
	tcp, udp = parseLsof(string(out))
	return tcp, udp, nil
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
		rec, ok := psProcess(pid)
		if !ok {
			continue
		}
		rec.TCP = tcp[pid]
		rec.UDP = udp[pid]
		rec.Canonicalize()
		out[pid] = rec
	}
	return out
}

// psProcess collects name/status/start-time via ps and the working
// directory via lsof, the best that can be done portably without /proc.
func psProcess(pid int) (model.ProcessRecord, bool) {
	out, err := exec.Command("ps", "-p", fmt.Sprint(pid), "-o", "comm=,stat=,lstart=").Output()
	if err != nil {
		return model.ProcessRecord{}, false
	}
	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) < 3 {
		return model.ProcessRecord{}, false
	}
	return model.ProcessRecord{
		PID:        pid,
		Name:       fields[0],
		Status:     fields[1],
		CreateTime: strings.Join(fields[2:], " "),
		Cwd:        lsofCwd(pid),
	}, true
}

func lsofCwd(pid int) string {
	out, err := exec.Command("lsof", "-a", "-p", fmt.Sprint(pid), "-d", "cwd").Output()
	if err != nil {
		return "?"
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) < 2 {
		return "?"
	}
	fields := strings.Fields(lines[1])
	if len(fields) == 0 {
		return "?"
	}
	return fields[len(fields)-1]
}
