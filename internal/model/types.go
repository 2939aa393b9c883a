// Package model defines the process/port data shapes shared by the agent,
// the bridge, and the UI.
package model

import "sort"

// ProcessRecord describes one process with open network ports at a single
// point in time. Records are immutable once constructed; a new record
// replaces an old one wholesale.
//
// CreateTime is an opaque, host-clock-dependent string: it is only ever
// compared for equality, never parsed.
type ProcessRecord struct {
	PID        int    `json:"pid"`
	Name       string `json:"name"`
	Cwd        string `json:"cwd"`
	Status     string `json:"status"`
	CreateTime string `json:"create_time"`
	TCP        []int  `json:"tcp"`
	UDP        []int  `json:"udp"`
}

// Canonicalize sorts and deduplicates both port lists in place so that
// record equality is order- and duplicate-insensitive by construction. Both
// the agent (before serializing) and the bridge reader (after decoding) call
// this, so two records describing the same sockets always compare equal.
func (p *ProcessRecord) Canonicalize() {
	p.TCP = canonicalPorts(p.TCP)
	p.UDP = canonicalPorts(p.UDP)
}

// Equal reports structural equality with another record.
func (p ProcessRecord) Equal(o ProcessRecord) bool {
	if p.PID != o.PID || p.Name != o.Name || p.Cwd != o.Cwd ||
		p.Status != o.Status || p.CreateTime != o.CreateTime {
		return false
	}
	return portsEqual(p.TCP, o.TCP) && portsEqual(p.UDP, o.UDP)
}

// Ports returns the union of TCP and UDP ports, ascending and deduplicated.
func (p ProcessRecord) Ports() []int {
	return canonicalPorts(append(append([]int(nil), p.TCP...), p.UDP...))
}

// Snapshot is a complete mapping from stringified pid to ProcessRecord at
// one point in time. Snapshots are never mutated after construction.
type Snapshot map[string]ProcessRecord

// Equal reports whether two snapshots have the same key set and, for each
// key, structurally equal records. Port order is irrelevant because records
// are canonicalized before comparison.
func (s Snapshot) Equal(o Snapshot) bool {
	if len(s) != len(o) {
		return false
	}
	for pid, rec := range s {
		other, ok := o[pid]
		if !ok || !rec.Equal(other) {
			return false
		}
	}
	return true
}

// Canonicalize canonicalizes every record's port lists.
func (s Snapshot) Canonicalize() {
	for pid, rec := range s {
		rec.Canonicalize()
		s[pid] = rec
	}
}

func canonicalPorts(ports []int) []int {
	if len(ports) == 0 {
		return nil
	}
	sorted := append([]int(nil), ports...)
	sort.Ints(sorted)
	out := sorted[:1]
	for _, p := range sorted[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

func portsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
