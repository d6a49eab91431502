package orchestrator

import (
	"sync/atomic"
	"testing"
)

func TestToolRegistryRegisterUnregister(t *testing.T) {
	r := NewToolRegistry()
	id := r.Register("search", func() {}, nil)
	if r.Len() != 1 {
		t.Fatalf("expected 1 active entry, got %d", r.Len())
	}
	r.Unregister(id)
	if r.Len() != 0 {
		t.Fatalf("expected 0 active entries after unregister, got %d", r.Len())
	}
}

func TestToolRegistryCancelIsIdempotent(t *testing.T) {
	r := NewToolRegistry()
	var calls int32
	id := r.Register("search", func() { atomic.AddInt32(&calls, 1) }, nil)

	if !r.Cancel(id) {
		t.Fatal("first cancel should succeed")
	}
	if r.Cancel(id) {
		t.Fatal("second cancel on the same entry must be a no-op")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("cancel hook invoked %d times, want 1", calls)
	}
}

func TestToolRegistryCancelUnknownID(t *testing.T) {
	r := NewToolRegistry()
	if r.Cancel("nonexistent") {
		t.Fatal("cancel of an unknown id must report false")
	}
}

func TestToolRegistryCancelAll(t *testing.T) {
	r := NewToolRegistry()
	var calls int32
	for i := 0; i < 3; i++ {
		r.Register("t", func() { atomic.AddInt32(&calls, 1) }, nil)
	}
	n := r.CancelAll()
	if n != 3 {
		t.Fatalf("CancelAll returned %d, want 3", n)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("hooks invoked %d times, want 3", calls)
	}
	// Entries remain registered until the tool body unregisters itself.
	if r.Len() != 3 {
		t.Fatalf("expected entries to remain until explicit Unregister, got %d", r.Len())
	}
}

func TestToolRegistryActiveReflectsRegistrationOrder(t *testing.T) {
	r := NewToolRegistry()
	idA := r.Register("a", func() {}, nil)
	idB := r.Register("b", func() {}, nil)

	active := r.Active()
	if len(active) != 2 {
		t.Fatalf("expected 2 active entries, got %d", len(active))
	}
	if active[0].ID != idA || active[1].ID != idB {
		t.Fatalf("Active() did not preserve registration order: %+v", active)
	}
}
