// Package history remembers which target hosts were monitored recently, so
// host pickers can float the likely choice to the top.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/soraxas/auto-portforward/internal/appconfig"
)

type store struct {
	LastUsed map[string]int64 `json:"last_used"`
}

// Touch records successful activity for a host.
func Touch(host string) error {
	st, err := load()
	if err != nil {
		return err
	}
	if st.LastUsed == nil {
		st.LastUsed = map[string]int64{}
	}
	st.LastUsed[host] = time.Now().Unix()
	return save(st)
}

// LastUsed returns last successful activity timestamps by host.
func LastUsed() (map[string]int64, error) {
	st, err := load()
	if err != nil {
		return nil, err
	}
	return st.LastUsed, nil
}

// SortRecent returns a new slice sorted by recent activity (desc), then name.
func SortRecent(hosts []string, lastUsed map[string]int64) []string {
	out := append([]string(nil), hosts...)
	sort.Slice(out, func(i, j int) bool {
		ti := lastUsed[out[i]]
		tj := lastUsed[out[j]]
		if ti != tj {
			return ti > tj
		}
		return out[i] < out[j]
	})
	return out
}

func load() (store, error) {
	path, err := appconfig.HistoryFilePath()
	if err != nil {
		return store{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store{LastUsed: map[string]int64{}}, nil
		}
		return store{}, err
	}
	var st store
	if err := json.Unmarshal(b, &st); err != nil {
		return store{LastUsed: map[string]int64{}}, nil
	}
	if st.LastUsed == nil {
		st.LastUsed = map[string]int64{}
	}
	return st, nil
}

func save(st store) error {
	path, err := appconfig.HistoryFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
