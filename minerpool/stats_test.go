package minerpool

import (
	"testing"
)

func TestHashMeterSubmitAndStopDoNotDeadlock(t *testing.T) {
	m := NewHashMeter(nil)
	m.Start()

	m.Submit(100)
	m.Submit(200)

	if rate := m.HashesPerSecond(); rate != 0 {
		t.Fatalf("rate before the first aggregation tick = %v, want 0", rate)
	}

	m.Stop()

	// Submit/HashesPerSecond after Stop must not block: the quit channel
	// unblocks the pending select on either side.
	m.Submit(1)
	if rate := m.HashesPerSecond(); rate != 0 {
		t.Fatalf("rate after Stop = %v, want 0", rate)
	}
}

func TestNewStatsBroadcasterStartsEmpty(t *testing.T) {
	b := NewStatsBroadcaster()
	if len(b.subscribers) != 0 {
		t.Fatalf("subscribers = %d, want 0 on a fresh broadcaster", len(b.subscribers))
	}
	// Broadcasting with no subscribers must be a no-op, not a panic.
	b.Broadcast(snapshot{HashesPerSecond: 1})
}
