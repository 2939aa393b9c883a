// Package provider defines the capability interface the UI consumes and its
// three implementations: a local scanner, a fixed mock, and the SSH-backed
// remote monitor. Dispatch is a plain interface call; the UI neither knows
// nor cares which process source is behind it.
package provider

import "github.com/soraxas/auto-portforward/internal/model"

// Provider is one source of process/port snapshots plus the ability to make
// a desired set of its ports locally reachable.
type Provider interface {
	// Name is a human-readable identity, e.g. including the target host.
	Name() string
	// Processes returns the current snapshot. Implementations must not
	// block: the remote variant serves a cached snapshot, the local one
	// scans synchronously but touches no network.
	Processes() (model.Snapshot, error)
	// SetToggledPorts declares which ports should be locally reachable.
	// Duplicates are ignored; failures on individual ports are logged,
	// never surfaced.
	SetToggledPorts(ports []int)
	// Cleanup releases every resource the provider holds. Idempotent and
	// never fails from the caller's perspective.
	Cleanup()
}
