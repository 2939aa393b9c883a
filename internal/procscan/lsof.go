package procscan

import (
	"strconv"
	"strings"
)

// parseLsof groups the output of
//
//	lsof -nP -iTCP -sTCP:LISTEN -iUDP
//
// into pid -> ports for TCP listeners and UDP sockets. Lines that do not
// look like socket rows are skipped.
func parseLsof(output string) (tcp, udp map[int][]int) {
	tcp = map[int][]int{}
	udp = map[int][]int{}

	lines := strings.Split(output, "\n")
	if len(lines) > 0 {
		lines = lines[1:] // header
	}
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 9 {
			continue
		}
		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		name := fields[8] // e.g. "*:8080" or "127.0.0.1:53"
		idx := strings.LastIndexByte(name, ':')
		if idx < 0 {
			continue
		}
		port, err := strconv.Atoi(name[idx+1:])
		if err != nil {
			continue
		}
		proto := fields[7]
		switch {
		case strings.HasPrefix(proto, "TCP") && strings.Contains(line, "LISTEN"):
			tcp[pid] = append(tcp[pid], port)
		case strings.HasPrefix(proto, "UDP"):
			udp[pid] = append(udp[pid], port)
		}
	}
	return tcp, udp
}
