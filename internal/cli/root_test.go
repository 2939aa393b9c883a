package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/soraxas/auto-portforward/internal/events"
	"github.com/soraxas/auto-portforward/internal/history"
)

func TestHostsRecentOrdering(t *testing.T) {
	setupSSHConfigForCLI(t)
	home := os.Getenv("HOME")
	cfg := strings.Join([]string{
		"Host api",
		"  HostName 127.0.0.1",
		"Host db",
		"  HostName 127.0.0.1",
		"",
	}, "\n")
	if err := os.WriteFile(filepath.Join(home, ".ssh", "config"), []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := history.Touch("db"); err != nil {
		t.Fatal(err)
	}
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"hosts"})
	out, err := captureStdout(func() error { return cmd.Execute() })
	if err != nil {
		t.Fatalf("hosts: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 3 {
		t.Fatalf("unexpected output: %s", out)
	}
	if !strings.Contains(lines[1], "db") {
		t.Fatalf("expected db first after header, got: %s", lines[1])
	}
}

func TestDoctorJSONOutput(t *testing.T) {
	setupSSHConfigForCLI(t)
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"doctor", "--json"})
	out, err := captureStdout(func() error { return cmd.Execute() })
	if err != nil {
		t.Fatalf("doctor json: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("invalid doctor json: %v", err)
	}
	if _, ok := payload["issues"]; !ok {
		t.Fatalf("expected issues key in doctor output: %s", out)
	}
}

func TestEventsFilteredOutput(t *testing.T) {
	setupSSHConfigForCLI(t)
	store := events.NewStore()
	if err := store.Append(events.Event{
		Timestamp: time.Now().UTC(),
		Host:      "api",
		EventType: events.TypeForwardStarted,
		Port:      8080,
	}); err != nil {
		t.Fatalf("append event: %v", err)
	}
	if err := store.Append(events.Event{
		Timestamp: time.Now().UTC(),
		Host:      "db",
		EventType: events.TypeBridgeConnected,
	}); err != nil {
		t.Fatalf("append event: %v", err)
	}

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"events", "--host", "api"})
	out, err := captureStdout(func() error { return cmd.Execute() })
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if !strings.Contains(out, "forward_started") || !strings.Contains(out, "8080") {
		t.Fatalf("expected api forward event, got: %s", out)
	}
	if strings.Contains(out, "bridge_connected") {
		t.Fatalf("expected db event filtered out, got: %s", out)
	}
}

func TestForwardRejectsBadPort(t *testing.T) {
	setupSSHConfigForCLI(t)
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"forward", "api", "notaport"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for invalid port argument")
	}

	cmd = NewRootCommand()
	cmd.SetArgs([]string{"forward", "api", "70000"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestForwardRequiresArgsWithoutProfile(t *testing.T) {
	setupSSHConfigForCLI(t)
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"forward", "api"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected usage error without ports")
	}
}

func TestProfileCreateListDeleteLifecycle(t *testing.T) {
	setupSSHConfigForCLI(t)

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"profile", "create", "web", "api", "8080", "443"})
	if _, err := captureStdout(func() error { return cmd.Execute() }); err != nil {
		t.Fatalf("create profile: %v", err)
	}

	cmd = NewRootCommand()
	cmd.SetArgs([]string{"profile", "list"})
	out, err := captureStdout(func() error { return cmd.Execute() })
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if !strings.Contains(out, "web") || !strings.Contains(out, "443, 8080") {
		t.Fatalf("expected profile in list output, got: %s", out)
	}

	cmd = NewRootCommand()
	cmd.SetArgs([]string{"profile", "delete", "web"})
	if _, err := captureStdout(func() error { return cmd.Execute() }); err != nil {
		t.Fatalf("delete profile: %v", err)
	}
}

func TestAgentRejectsBadPort(t *testing.T) {
	setupSSHConfigForCLI(t)
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"agent", "0"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for invalid agent port")
	}
}

func captureStdout(fn func() error) (string, error) {
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}
	os.Stdout = w
	runErr := fn()
	_ = w.Close()
	os.Stdout = orig
	b, readErr := io.ReadAll(r)
	if readErr != nil {
		return "", readErr
	}
	return string(b), runErr
}

func setupSSHConfigForCLI(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	sshDir := filepath.Join(home, ".ssh")
	if err := os.MkdirAll(sshDir, 0o700); err != nil {
		t.Fatal(err)
	}
	cfg := strings.Join([]string{
		"Host api",
		"  HostName 127.0.0.1",
		"  User test",
		"  Port 22",
		"",
	}, "\n")
	if err := os.WriteFile(filepath.Join(sshDir, "config"), []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
}
