package provider

import (
	"github.com/soraxas/auto-portforward/internal/model"
	"github.com/soraxas/auto-portforward/internal/procscan"
	"github.com/soraxas/auto-portforward/internal/tunnel"
)

// Local enumerates the machine this process runs on. Toggling ports is
// reconciled with log-only hooks — there is nothing to tunnel when the
// ports are already local.
type Local struct {
	reconciler *tunnel.Reconciler
}

// NewLocal creates a local provider.
func NewLocal() *Local {
	return &Local{reconciler: tunnel.NewReconciler(nil, nil)}
}

func (l *Local) Name() string { return "Local" }

func (l *Local) Processes() (model.Snapshot, error) {
	return procscan.Snapshot()
}

func (l *Local) SetToggledPorts(ports []int) {
	l.reconciler.SetToggledPorts(ports)
}

func (l *Local) Cleanup() {
	l.reconciler.Cleanup()
}
