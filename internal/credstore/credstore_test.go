package credstore

import "testing"

func TestMemoryStore(t *testing.T) {
	m := NewMemory()

	if _, ok, err := m.Get(); ok || err != nil {
		t.Fatalf("fresh store: got ok=%v err=%v, want absent", ok, err)
	}

	if err := m.Set("tok"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	token, ok, err := m.Get()
	if err != nil || !ok || token != "tok" {
		t.Fatalf("Get() = (%q, %v, %v), want (tok, true, nil)", token, ok, err)
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, ok, _ := m.Get(); ok {
		t.Fatal("Get() after Clear() should report absent")
	}

	// Clearing an already-empty store is not an error.
	if err := m.Clear(); err != nil {
		t.Fatalf("second Clear() error: %v", err)
	}
}

func TestNoopStoreNeverFails(t *testing.T) {
	n := Noop{}

	if err := n.Set("tok"); err != nil {
		t.Fatalf("Noop.Set() error: %v", err)
	}
	if _, ok, err := n.Get(); ok || err != nil {
		t.Fatalf("Noop.Get() = (ok=%v, err=%v), want absent without error", ok, err)
	}
	if err := n.Clear(); err != nil {
		t.Fatalf("Noop.Clear() error: %v", err)
	}
}

func TestLayered_ReadsThroughBackend(t *testing.T) {
	back := NewMemory()
	if err := back.Set("persisted"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	l := NewLayered(back)
	token, ok, err := l.Get()
	if err != nil || !ok || token != "persisted" {
		t.Fatalf("Get() = (%q, %v, %v), want (persisted, true, nil)", token, ok, err)
	}

	if err := l.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, ok, _ := back.Get(); ok {
		t.Fatal("Clear() must propagate to the backend")
	}
}

func TestLayered_SurvivesNoopBackend(t *testing.T) {
	// With no persistent backend the artifact still lives for the process.
	l := NewLayered(Noop{})

	if err := l.Set("in-process"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	token, ok, err := l.Get()
	if err != nil || !ok || token != "in-process" {
		t.Fatalf("Get() = (%q, %v, %v), want (in-process, true, nil)", token, ok, err)
	}

	if err := l.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if _, ok, _ := l.Get(); ok {
		t.Fatal("Get() after Clear() should report absent")
	}
}

func TestKeyringKeyPerServer(t *testing.T) {
	if getKeyringKey("api.trainlog.dev") == getKeyringKey("staging.trainlog.dev") {
		t.Fatal("tokens for different servers must not share a keyring key")
	}
}
