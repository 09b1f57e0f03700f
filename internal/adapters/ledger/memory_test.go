package ledger

import (
	"context"
	"testing"
	"time"
)

func TestMemoryMarkAndFired(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)

	fired, err := m.Fired(ctx, "reminder:a:1")
	if err != nil {
		t.Fatalf("Fired failed: %v", err)
	}
	if fired {
		t.Error("unmarked key reported as fired")
	}

	if err := m.Mark(ctx, "reminder:a:1"); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}

	fired, err = m.Fired(ctx, "reminder:a:1")
	if err != nil {
		t.Fatalf("Fired failed: %v", err)
	}
	if !fired {
		t.Error("marked key not reported as fired")
	}

	// Re-marking the same key is harmless.
	if err := m.Mark(ctx, "reminder:a:1"); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	m := NewMemory(time.Hour)
	m.now = func() time.Time { return now }

	if err := m.Mark(ctx, "habit:2026-03-02"); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}

	now = now.Add(30 * time.Minute)
	if fired, _ := m.Fired(ctx, "habit:2026-03-02"); !fired {
		t.Error("entry expired before its TTL")
	}

	now = now.Add(time.Hour)
	if fired, _ := m.Fired(ctx, "habit:2026-03-02"); fired {
		t.Error("entry still fired past its TTL")
	}
}

func TestMemorySweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	m := NewMemory(time.Hour)
	m.now = func() time.Time { return now }

	m.Mark(ctx, "old:1")
	m.Mark(ctx, "old:2")

	now = now.Add(2 * time.Hour)
	m.Mark(ctx, "fresh:1")

	if dropped := m.Sweep(); dropped != 2 {
		t.Errorf("Sweep dropped %d, want 2", dropped)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}
