package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTouchAndLastUsed(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	require.NoError(t, Touch("web-prod"))
	require.NoError(t, Touch("db-staging"))

	used, err := LastUsed()
	require.NoError(t, err)
	assert.Contains(t, used, "web-prod")
	assert.Contains(t, used, "db-staging")
}

func TestLastUsedMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	used, err := LastUsed()
	require.NoError(t, err)
	assert.Empty(t, used)
}

func TestSortRecent(t *testing.T) {
	hosts := []string{"alpha", "bravo", "charlie", "delta"}
	lastUsed := map[string]int64{
		"charlie": 300,
		"alpha":   100,
		"delta":   100,
	}

	got := SortRecent(hosts, lastUsed)
	assert.Equal(t, []string{"charlie", "alpha", "delta", "bravo"}, got)
	// Input slice is untouched.
	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta"}, hosts)
}
