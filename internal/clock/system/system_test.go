// Package system exercises the real-time clock adapter.
package system

import (
	"testing"
	"time"
)

// TestClockNowUTC ensures the clock returns UTC timestamps.
func TestClockNowUTC(t *testing.T) {
	t.Parallel()

	clk := New()
	before := time.Now().UTC().Add(-time.Second)
	got := clk.Now()
	after := time.Now().UTC().Add(time.Second)

	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Fatalf("expected %v to be between %v and %v", got, before, after)
	}
}

// TestClockAfterZeroFiresImmediately covers the politeness-delay fast path.
func TestClockAfterZeroFiresImmediately(t *testing.T) {
	t.Parallel()

	select {
	case <-New().After(0):
	case <-time.After(time.Second):
		t.Fatal("expected zero delay to fire immediately")
	}
}

// TestClockAfterWaits checks a positive delay is honored.
func TestClockAfterWaits(t *testing.T) {
	t.Parallel()

	start := time.Now()
	<-New().After(20 * time.Millisecond)
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("expected at least 20ms, got %v", elapsed)
	}
}
