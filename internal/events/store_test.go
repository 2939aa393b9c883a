package events

import (
	"testing"
	"time"
)

func TestAppendAndRead(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	s := NewStore()

	if err := s.Append(Event{Host: "fait", EventType: TypeForwardStarted, Port: 8080, PID: 123}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(Event{Host: "fait", EventType: TypeForwardStopped, Port: 8080}); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(Event{Host: "other", EventType: TypeBridgeConnected}); err != nil {
		t.Fatal(err)
	}

	all, err := s.Read(Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3", len(all))
	}
	if all[0].Timestamp.IsZero() {
		t.Fatal("timestamp not defaulted on append")
	}

	fait, err := s.Read(Query{Host: "fait"})
	if err != nil {
		t.Fatal(err)
	}
	if len(fait) != 2 {
		t.Fatalf("host filter: got %d events, want 2", len(fait))
	}

	started, err := s.Read(Query{EventType: TypeForwardStarted})
	if err != nil {
		t.Fatal(err)
	}
	if len(started) != 1 || started[0].Port != 8080 {
		t.Fatalf("type filter: %+v", started)
	}
}

func TestReadLimitKeepsMostRecent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	s := NewStore()
	for i := 1; i <= 5; i++ {
		if err := s.Append(Event{EventType: TypeForwardStarted, Port: 8000 + i}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.Read(Query{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Port != 8005 {
		t.Fatalf("limit: %+v", got)
	}
}

func TestReadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	got, err := NewStore().Read(Query{Since: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing journal, got %+v", got)
	}
}
