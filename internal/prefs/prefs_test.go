package prefs_test

import (
	"os"
	"testing"

	"github.com/dfbb/qrscan/internal/prefs"
)

func TestPrefs(t *testing.T) {
	f, _ := os.CreateTemp("", "prefs-*.json")
	f.Close()
	defer os.Remove(f.Name())

	p, err := prefs.New(f.Name())
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if p.AsciiEnabled("telegram:123") {
		t.Error("expected default to be false")
	}

	p.SetAscii("telegram:123", true)
	if !p.AsciiEnabled("telegram:123") {
		t.Error("expected true after SetAscii(true)")
	}

	p.SetAscii("telegram:123", false)
	if p.AsciiEnabled("telegram:123") {
		t.Error("expected false after SetAscii(false)")
	}

	// reload from disk
	p2, _ := prefs.New(f.Name())
	if p2.AsciiEnabled("telegram:123") {
		t.Error("expected persisted false value after reload")
	}
}

func TestPrefs_Persist(t *testing.T) {
	f, _ := os.CreateTemp("", "prefs-*.json")
	f.Close()
	defer os.Remove(f.Name())

	p, _ := prefs.New(f.Name())
	p.SetAscii("slack:C001", true)

	p2, _ := prefs.New(f.Name())
	if !p2.AsciiEnabled("slack:C001") {
		t.Error("expected persisted true value after reload")
	}
}

func TestPrefs_All(t *testing.T) {
	f, _ := os.CreateTemp("", "prefs-*.json")
	f.Close()
	defer os.Remove(f.Name())

	p, _ := prefs.New(f.Name())
	p.SetAscii("telegram:1", true)
	p.SetAscii("slack:2", false)

	all := p.All()
	if len(all) != 2 {
		t.Errorf("All() returned %d entries, want 2", len(all))
	}
}
