package appconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RemoteAgentCommand != "auto-portforward agent" {
		t.Fatalf("unexpected agent command: %s", cfg.RemoteAgentCommand)
	}
	if cfg.UI.RefreshSeconds <= 0 {
		t.Fatalf("unexpected refresh seconds: %d", cfg.UI.RefreshSeconds)
	}
	// The file must have been written so the user has something to edit.
	d, _ := ConfigDir()
	if _, err := os.Stat(filepath.Join(d, "config.yaml")); err != nil {
		t.Fatalf("config.yaml not created: %v", err)
	}
}

func TestLoadNormalizesInvalidValues(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := filepath.Join(xdg, "auto-portforward")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	content := []byte("default_host: fait\nforward_grace_seconds: -1\nui:\n  refresh_seconds: 0\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultHost != "fait" {
		t.Fatalf("default_host not read: %s", cfg.DefaultHost)
	}
	if cfg.ForwardGraceSeconds <= 0 {
		t.Fatalf("grace seconds not normalized: %d", cfg.ForwardGraceSeconds)
	}
	if cfg.UI.RefreshSeconds <= 0 {
		t.Fatalf("refresh seconds not normalized: %d", cfg.UI.RefreshSeconds)
	}
}
