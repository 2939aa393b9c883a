package ui

import (
	"sort"
	"strconv"
	"strings"

	"github.com/soraxas/auto-portforward/internal/model"
)

// GroupBy selects the process attribute used as the tree's grouping key.
type GroupBy string

const (
	GroupByCwd  GroupBy = "cwd"
	GroupByName GroupBy = "name"
	GroupByPID  GroupBy = "pid"
)

func (g GroupBy) next() GroupBy {
	switch g {
	case GroupByCwd:
		return GroupByName
	case GroupByName:
		return GroupByPID
	default:
		return GroupByCwd
	}
}

type group struct {
	Key      string
	Procs    []model.ProcessRecord
	Selected bool
}

// buildGroups lays out a snapshot as sorted groups of processes. Processes
// whose name does not contain the filter text are dropped before grouping.
func buildGroups(snap model.Snapshot, by GroupBy, reverse bool, filter string, selected map[string]bool) []group {
	filter = strings.ToLower(strings.TrimSpace(filter))
	byKey := map[string][]model.ProcessRecord{}
	for _, p := range snap {
		if filter != "" && !strings.Contains(strings.ToLower(p.Name), filter) {
			continue
		}
		key := groupKey(p, by)
		byKey[key] = append(byKey[key], p)
	}

	groups := make([]group, 0, len(byKey))
	for key, procs := range byKey {
		sort.Slice(procs, func(i, j int) bool {
			if reverse {
				return procs[i].PID > procs[j].PID
			}
			return procs[i].PID < procs[j].PID
		})
		groups = append(groups, group{Key: key, Procs: procs, Selected: selected[key]})
	}
	sort.Slice(groups, func(i, j int) bool {
		if reverse {
			return groups[i].Key > groups[j].Key
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// desiredPorts is the union of listening ports across all selected groups.
func desiredPorts(groups []group) []int {
	seen := map[int]bool{}
	var ports []int
	for _, g := range groups {
		if !g.Selected {
			continue
		}
		for _, p := range g.Procs {
			for _, port := range p.Ports() {
				if seen[port] {
					continue
				}
				seen[port] = true
				ports = append(ports, port)
			}
		}
	}
	sort.Ints(ports)
	return ports
}

func groupKey(p model.ProcessRecord, by GroupBy) string {
	switch by {
	case GroupByName:
		return valueOrUnknown(p.Name)
	case GroupByPID:
		return strconv.Itoa(p.PID)
	default:
		return valueOrUnknown(p.Cwd)
	}
}

func valueOrUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
