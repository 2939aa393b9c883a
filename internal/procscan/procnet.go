package procscan

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// tcpListen is the hex socket state for LISTEN in /proc/net/tcp*.
const tcpListen = "0A"

// parseProcNet extracts inode -> local port from one /proc/net/{tcp,udp}*
// table. For TCP tables only sockets in LISTEN state are of interest; UDP
// has no listen state, so every bound socket counts.
func parseProcNet(r io.Reader, listenOnly bool) map[uint64]int {
	ports := make(map[uint64]int)
	scanner := bufio.NewScanner(r)
	scanner.Scan() // skip header

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 {
			continue
		}
		if listenOnly && fields[3] != tcpListen {
			continue
		}
		port, ok := parseLocalPort(fields[1])
		if !ok {
			continue
		}
		inode, err := strconv.ParseUint(fields[9], 10, 64)
		if err != nil || inode == 0 {
			continue
		}
		ports[inode] = port
	}
	return ports
}

// parseLocalPort pulls the port out of an address column such as
// "00000000:1F90" (hex IP, hex port).
func parseLocalPort(addr string) (int, bool) {
	idx := strings.LastIndexByte(addr, ':')
	if idx < 0 {
		return 0, false
	}
	port, err := strconv.ParseInt(addr[idx+1:], 16, 32)
	if err != nil {
		return 0, false
	}
	return int(port), true
}
