package procscan

import "strings"

// statusNames maps the single-letter state from /proc/<pid>/stat to the
// longer names operators are used to seeing.
var statusNames = map[string]string{
	"R": "running",
	"S": "sleeping",
	"D": "disk-sleep",
	"Z": "zombie",
	"T": "stopped",
	"t": "tracing-stop",
	"X": "dead",
	"I": "idle",
}

// parseStat extracts the process state and start time (in clock ticks since
// boot, kept as an opaque string) from the content of /proc/<pid>/stat.
//
// The comm field is parenthesized and may itself contain spaces and even
// parentheses, so fields are counted from the last ')', not the first space.
func parseStat(content string) (status, createTime string) {
	end := strings.LastIndexByte(content, ')')
	if end < 0 || end+2 >= len(content) {
		return "?", "?"
	}
	fields := strings.Fields(content[end+2:])
	// After the comm field: fields[0] is state; starttime is the 22nd field
	// of the full line, i.e. index 19 here.
	if len(fields) < 20 {
		return "?", "?"
	}
	status = fields[0]
	if name, ok := statusNames[status]; ok {
		status = name
	}
	return status, fields[19]
}
