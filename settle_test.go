package sheet

import (
	"testing"
	"time"
)

func TestSettleNotificationWins(t *testing.T) {
	sched := newManualScheduler()
	fired := 0
	s := newSettle(sched, 500*time.Millisecond, func() { fired++ })

	s.fire()
	if fired != 1 {
		t.Fatalf("effect ran %d times, want 1", fired)
	}

	// The losing fallback and repeat firings are no-ops.
	s.fire()
	sched.Advance(time.Second)
	if fired != 1 {
		t.Errorf("effect ran %d times, want exactly 1", fired)
	}
}

func TestSettleFallbackWins(t *testing.T) {
	sched := newManualScheduler()
	fired := 0
	s := newSettle(sched, 500*time.Millisecond, func() { fired++ })

	sched.Advance(499 * time.Millisecond)
	if fired != 0 {
		t.Fatal("fallback fired early")
	}
	sched.Advance(time.Millisecond)
	if fired != 1 {
		t.Fatalf("effect ran %d times, want 1 after fallback", fired)
	}

	// The late notification is a no-op.
	s.fire()
	if fired != 1 {
		t.Errorf("effect ran %d times, want exactly 1", fired)
	}
}

func TestSettleCancelConsumesRace(t *testing.T) {
	sched := newManualScheduler()
	fired := 0
	s := newSettle(sched, 500*time.Millisecond, func() { fired++ })

	s.cancel()
	s.fire()
	sched.Advance(time.Second)
	if fired != 0 {
		t.Errorf("effect ran %d times after cancel, want 0", fired)
	}
}
