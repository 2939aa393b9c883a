package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/soraxas/auto-portforward/internal/model"
)

func TestLatestTakeOnEmptyCell(t *testing.T) {
	var l Latest
	_, ok := l.Take()
	require.False(t, ok)
}

func TestLatestOverwriteOnFull(t *testing.T) {
	var l Latest
	l.Publish(model.Snapshot{"1": {PID: 1}})
	l.Publish(model.Snapshot{"2": {PID: 2}})

	snap, ok := l.Take()
	require.True(t, ok)
	_, hasSecond := snap["2"]
	require.True(t, hasSecond, "only the most recent snapshot is visible")
	require.Len(t, snap, 1)
}

func TestLatestDirtyFlagClearsOnTake(t *testing.T) {
	var l Latest
	l.Publish(model.Snapshot{})
	_, ok := l.Take()
	require.True(t, ok)
	_, ok = l.Take()
	require.False(t, ok, "dirty flag must clear after a take")
}
