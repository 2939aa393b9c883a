// Package profile stores named port sets per host, so a common set of
// forwards can be brought up in one command.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/soraxas/auto-portforward/internal/appconfig"
	"github.com/soraxas/auto-portforward/internal/util"
	"gopkg.in/yaml.v3"
)

// Definition is a named set of ports to forward on a host.
type Definition struct {
	Name  string `yaml:"name" json:"name"`
	Host  string `yaml:"host" json:"host"`
	Ports []int  `yaml:"ports" json:"ports"`
}

type fileModel struct {
	Profiles map[string]Definition `yaml:"profiles"`
}

func filePath() (string, error) {
	dir, err := appconfig.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profiles.yaml"), nil
}

// LoadAll returns all profiles sorted by name.
func LoadAll() ([]Definition, error) {
	fm, err := loadFile()
	if err != nil {
		return nil, err
	}
	out := make([]Definition, 0, len(fm.Profiles))
	for _, p := range fm.Profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get fetches one profile by name.
func Get(name string) (Definition, error) {
	fm, err := loadFile()
	if err != nil {
		return Definition{}, err
	}
	p, ok := fm.Profiles[name]
	if !ok {
		return Definition{}, fmt.Errorf("profile not found: %s", name)
	}
	return p, nil
}

// Create adds or replaces a profile definition.
func Create(name, host string, ports []int) error {
	name = strings.TrimSpace(name)
	host = strings.TrimSpace(host)
	if name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	if host == "" {
		return fmt.Errorf("profile host cannot be empty")
	}
	if len(ports) == 0 {
		return fmt.Errorf("profile must include at least one port")
	}
	seen := map[int]bool{}
	clean := make([]int, 0, len(ports))
	for _, p := range ports {
		if err := util.ValidatePort(p); err != nil {
			return err
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		clean = append(clean, p)
	}
	sort.Ints(clean)

	fm, err := loadFile()
	if err != nil {
		return err
	}
	fm.Profiles[name] = Definition{Name: name, Host: host, Ports: clean}
	return saveFile(fm)
}

// Delete removes a profile by name.
func Delete(name string) error {
	fm, err := loadFile()
	if err != nil {
		return err
	}
	if _, ok := fm.Profiles[name]; !ok {
		return fmt.Errorf("profile not found: %s", name)
	}
	delete(fm.Profiles, name)
	return saveFile(fm)
}

func loadFile() (fileModel, error) {
	path, err := filePath()
	if err != nil {
		return fileModel{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileModel{Profiles: map[string]Definition{}}, nil
		}
		return fileModel{}, err
	}
	var fm fileModel
	if err := yaml.Unmarshal(b, &fm); err != nil {
		return fileModel{}, fmt.Errorf("parse profiles: %w", err)
	}
	if fm.Profiles == nil {
		fm.Profiles = map[string]Definition{}
	}
	return fm, nil
}

func saveFile(fm fileModel) error {
	path, err := filePath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	b, err := yaml.Marshal(fm)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
