package provider

import (
	"github.com/soraxas/auto-portforward/internal/model"
	"github.com/soraxas/auto-portforward/internal/tunnel"
)

// Mock serves a fixed set of plausible processes. Useful for demos and for
// exercising the UI without touching the network or /proc.
type Mock struct {
	reconciler *tunnel.Reconciler
}

// NewMock creates a mock provider.
func NewMock() *Mock {
	return &Mock{reconciler: tunnel.NewReconciler(nil, nil)}
}

func (m *Mock) Name() string { return "Mock" }

func (m *Mock) Processes() (model.Snapshot, error) {
	snap := model.Snapshot{
		"1234": {
			PID: 1234, Name: "nginx", Cwd: "/etc/nginx",
			Status: "running", CreateTime: "1234567890", TCP: []int{80, 443},
		},
		"5678": {
			PID: 5678, Name: "python", Cwd: "/home/user/code",
			Status: "running", CreateTime: "1234567891", TCP: []int{8000},
		},
		"9012": {
			PID: 9012, Name: "postgres", Cwd: "/var/lib/postgresql",
			Status: "running", CreateTime: "1234567892", TCP: []int{5432}, UDP: []int{5432},
		},
	}
	snap.Canonicalize()
	return snap, nil
}

func (m *Mock) SetToggledPorts(ports []int) {
	m.reconciler.SetToggledPorts(ports)
}

func (m *Mock) Cleanup() {
	m.reconciler.Cleanup()
}
