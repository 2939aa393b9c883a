package procscan

import (
	"strings"
	"testing"
)

// procNetTCP is a trimmed /proc/net/tcp with one LISTEN socket (port 0x1F90
// = 8080, inode 34042) and one ESTABLISHED socket that must be ignored.
const procNetTCP = `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
   0: 00000000:1F90 00000000:0000 0A 00000000:00000000 00:00000000 00000000  1000        0 34042 1 0000000000000000 100 0 0 10 0
   1: 0100007F:A21E 0100007F:1F90 01 00000000:00000000 00:00000000 00000000  1000        0 34100 1 0000000000000000 20 4 30 10 -1
`

// procNetUDP has one bound socket on port 0x0035 = 53, inode 20001.
const procNetUDP = `  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode ref pointer drops
   0: 0100007F:0035 00000000:0000 07 00000000:00000000 00:00000000 00000000   101        0 20001 2 0000000000000000 0
`

func TestParseProcNetListenOnly(t *testing.T) {
	ports := parseProcNet(strings.NewReader(procNetTCP), true)
	if len(ports) != 1 {
		t.Fatalf("got %d sockets, want 1 (established must be skipped)", len(ports))
	}
	if ports[34042] != 8080 {
		t.Errorf("inode 34042 = port %d, want 8080", ports[34042])
	}
}

func TestParseProcNetUDP(t *testing.T) {
	ports := parseProcNet(strings.NewReader(procNetUDP), false)
	if ports[20001] != 53 {
		t.Errorf("inode 20001 = port %d, want 53", ports[20001])
	}
}

func TestParseStat(t *testing.T) {
	// comm contains spaces and a parenthesis; fields must be counted from
	// the last ')'.
	stat := "1234 (tmux: server)) S 1 1234 1234 0 -1 4194560 1366 0 0 0 2 1 0 0 20 0 1 0 8765432 11000000 500 18446744073709551615 1 1 0 0 0 0 0 0 0"
	status, created := parseStat(stat)
	if status != "sleeping" {
		t.Errorf("status = %q, want sleeping", status)
	}
	if created != "8765432" {
		t.Errorf("createTime = %q, want 8765432", created)
	}
}

func TestParseStatMalformed(t *testing.T) {
	status, created := parseStat("garbage")
	if status != "?" || created != "?" {
		t.Errorf("malformed stat should degrade to ?, got %q %q", status, created)
	}
}

const lsofOutput = `COMMAND   PID USER   FD   TYPE DEVICE SIZE/OFF NODE NAME
nginx    1234 root    6u  IPv4  34042      0t0  TCP *:80 (LISTEN)
nginx    1234 root    7u  IPv4  34043      0t0  TCP *:443 (LISTEN)
dnsmasq  2345 dns     4u  IPv4  20001      0t0  UDP 127.0.0.1:53
python   5678 user    3u  IPv4  55555      0t0  TCP 10.0.0.2:43210->10.0.0.9:443 (ESTABLISHED)
`

func TestParseLsof(t *testing.T) {
	tcp, udp := parseLsof(lsofOutput)
	if got := tcp[1234]; len(got) != 2 || got[0] != 80 || got[1] != 443 {
		t.Errorf("tcp[1234] = %v, want [80 443]", got)
	}
	if got := udp[2345]; len(got) != 1 || got[0] != 53 {
		t.Errorf("udp[2345] = %v, want [53]", got)
	}
	if _, ok := tcp[5678]; ok {
		t.Error("established connection must not count as a listener")
	}
}
