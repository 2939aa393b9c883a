package util

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultString returns the fallback value if v is empty or consists entirely
// of whitespace; otherwise it returns v unchanged.
func DefaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// EmptyDash returns "-" if s is empty or consists entirely of whitespace;
// otherwise it returns s unchanged.
//
// Used by the CLI and TUI to display a visible placeholder when an optional
// field (such as a process cwd that could not be resolved) has no value.
func EmptyDash(s string) string {
	return DefaultString(s, "-")
}

// JoinPorts renders a port list as a comma-separated string in ascending
// order, e.g. [443 80] -> "80, 443". The input slice is not modified.
func JoinPorts(ports []int) string {
	sorted := append([]int(nil), ports...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, p := range sorted {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
