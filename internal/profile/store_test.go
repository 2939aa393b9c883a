package profile

import "testing"

func TestCreateListGetDelete(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := Create("web", "prod-web", []int{8080, 443, 8080}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := LoadAll()
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(all) != 1 || all[0].Name != "web" {
		t.Fatalf("unexpected profiles: %+v", all)
	}

	got, err := Get("web")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Ports) != 2 || got.Ports[0] != 443 || got.Ports[1] != 8080 {
		t.Fatalf("expected deduped sorted ports, got %v", got.Ports)
	}
	if got.Host != "prod-web" {
		t.Fatalf("unexpected host: %q", got.Host)
	}

	if err := Delete("web"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	all, err = LoadAll()
	if err != nil {
		t.Fatalf("load after delete: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no profiles, got %d", len(all))
	}
}

func TestCreateValidatesInput(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := Create("", "db", []int{5432}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := Create("x", "", []int{5432}); err == nil {
		t.Fatal("expected error for empty host")
	}
	if err := Create("x", "db", nil); err == nil {
		t.Fatal("expected error for empty ports")
	}
	if err := Create("x", "db", []int{0}); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestGetMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := Get("nope"); err == nil {
		t.Fatal("expected error for missing profile")
	}
	if err := Delete("nope"); err == nil {
		t.Fatal("expected error deleting missing profile")
	}
}
