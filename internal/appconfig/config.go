// Package appconfig manages application configuration and runtime file paths.
package appconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/soraxas/auto-portforward/internal/util"
)

// UIConfig contains TUI display settings.
type UIConfig struct {
	RefreshSeconds int `yaml:"refresh_seconds"`
}

// Config holds application-level configuration.
type Config struct {
	// DefaultHost is used when no host is given on the command line.
	DefaultHost string `yaml:"default_host"`
	// RemoteAgentCommand is the invocation that starts the agent on the
	// target host; the bridge appends the tunnel port as its argument. The
	// default assumes the auto-portforward binary is on the remote PATH.
	RemoteAgentCommand string `yaml:"remote_agent_command"`
	// ForwardGraceSeconds bounds how long a tunnel subprocess gets to exit
	// gracefully before being force-killed.
	ForwardGraceSeconds int      `yaml:"forward_grace_seconds"`
	UI                  UIConfig `yaml:"ui"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		RemoteAgentCommand:  "auto-portforward agent",
		ForwardGraceSeconds: int(util.ForwardGraceTimeout.Seconds()),
		UI:                  UIConfig{RefreshSeconds: util.DefaultRefreshSeconds},
	}
}

// ConfigDir returns the application config directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/auto-portforward.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "auto-portforward"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return filepath.Join(home, ".config", "auto-portforward"), nil
}

// EventsFilePath returns the full path to events.jsonl.
func EventsFilePath() (string, error) {
	d, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "events.jsonl"), nil
}

// HistoryFilePath returns the full path to history.json.
func HistoryFilePath() (string, error) {
	d, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "history.json"), nil
}

// Load reads config.yaml from the config directory.
// If the file doesn't exist, creates it with defaults.
func Load() (Config, error) {
	d, err := ConfigDir()
	if err != nil {
		return Config{}, err
	}
	if err := os.MkdirAll(d, 0o755); err != nil {
		return Config{}, err
	}
	path := filepath.Join(d, "config.yaml")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := Save(cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return normalize(cfg), nil
}

// Save writes config to config.yaml.
func Save(cfg Config) error {
	d, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d, 0o755); err != nil {
		return err
	}
	path := filepath.Join(d, "config.yaml")
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func normalize(cfg Config) Config {
	if cfg.UI.RefreshSeconds <= 0 {
		cfg.UI.RefreshSeconds = util.DefaultRefreshSeconds
	}
	if cfg.ForwardGraceSeconds <= 0 {
		cfg.ForwardGraceSeconds = int(util.ForwardGraceTimeout.Seconds())
	}
	if cfg.RemoteAgentCommand == "" {
		cfg.RemoteAgentCommand = "auto-portforward agent"
	}
	return cfg
}
