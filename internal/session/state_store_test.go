package session

import (
	"testing"
	"time"

	"datamart/internal/testing/mock"
)

func TestStateStore_TakeIsSingleUse(t *testing.T) {
	store := NewStateStore(time.Minute, mock.NewMockClock(fixedTime))
	store.Put("k", "v")

	if !store.Has("k") {
		t.Fatal("expected value to be present")
	}
	got, ok := store.Take("k")
	if !ok || got != "v" {
		t.Fatalf("Take() = %q, %v; want %q, true", got, ok, "v")
	}
	if _, ok := store.Take("k"); ok {
		t.Error("second Take must report the value absent")
	}
}

func TestStateStore_Expiry(t *testing.T) {
	clock := mock.NewMockClock(fixedTime)
	store := NewStateStore(time.Minute, clock)

	store.Put("k", "v")
	clock.Advance(time.Minute)
	if !store.Has("k") {
		t.Error("value at exactly the TTL should still be valid")
	}

	clock.Advance(time.Second)
	if store.Has("k") {
		t.Error("value past the TTL must not be reported")
	}
	if _, ok := store.Take("k"); ok {
		t.Error("expired value must not be returned")
	}
}

func TestStateStore_PutReplacesAndPurges(t *testing.T) {
	clock := mock.NewMockClock(fixedTime)
	store := NewStateStore(time.Minute, clock)

	store.Put("old", "1")
	store.Put("k", "first")
	store.Put("k", "second")
	clock.Advance(2 * time.Minute)
	store.Put("new", "2")

	store.mu.Lock()
	_, hasOld := store.entries["old"]
	n := len(store.entries)
	store.mu.Unlock()
	if hasOld || n != 1 {
		t.Errorf("expired entries should be purged on Put, have %d entries", n)
	}

	clock.Set(fixedTime)
	store.Put("k", "third")
	if got, _ := store.Take("k"); got != "third" {
		t.Errorf("Take() = %q, want %q", got, "third")
	}
}

func TestNewStateStore_Defaults(t *testing.T) {
	store := NewStateStore(0, nil)
	if store.ttl != DefaultStateTTL {
		t.Errorf("ttl = %v, want %v", store.ttl, DefaultStateTTL)
	}
	store.Put("k", "v")
	if !store.Has("k") {
		t.Error("expected value with system clock")
	}
}
