package mock

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	clock := RealClock{}

	before := time.Now()
	clockTime := clock.Now()
	after := time.Now()

	if clockTime.Before(before) || clockTime.After(after) {
		t.Errorf("RealClock.Now() returned time outside expected range")
	}
}

func TestMockClock_AdvanceAndSet(t *testing.T) {
	startTime := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	clock := NewMockClock(startTime)

	if !clock.Now().Equal(startTime) {
		t.Errorf("Expected time %v, got %v", startTime, clock.Now())
	}

	clock.Advance(90 * time.Minute)
	if want := startTime.Add(90 * time.Minute); !clock.Now().Equal(want) {
		t.Errorf("Expected time %v after advance, got %v", want, clock.Now())
	}

	newTime := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	clock.Set(newTime)
	if !clock.Now().Equal(newTime) {
		t.Errorf("Expected time %v after Set, got %v", newTime, clock.Now())
	}
}

func TestMockClock_ZeroTime(t *testing.T) {
	before := time.Now()
	clock := NewMockClock(time.Time{})
	after := time.Now()

	clockTime := clock.Now()
	if clockTime.Before(before) || clockTime.After(after) {
		t.Errorf("MockClock with zero time should initialize to current time")
	}
}
