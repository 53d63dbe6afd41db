package sheet

import (
	"sync"
	"time"

	"github.com/velarium/sheet/host"
)

// settle races a completion notification against a fallback timer: whichever
// fires first runs the effect exactly once, the loser is ignored. Cancel
// consumes the race without running the effect, so a new open/close edge can
// cleanly supersede a pending one. Used for adjustable-tracking start,
// stack-snapshot retention, and the drag-close deferred clear.
type settle struct {
	once sync.Once
	stop host.CancelFunc
	fn   func()
}

// newSettle arms the fallback timer and returns the race handle.
func newSettle(sched host.Scheduler, fallback time.Duration, fn func()) *settle {
	s := &settle{fn: fn}
	s.stop = sched.AfterFunc(fallback, s.fire)
	return s
}

// fire runs the effect if the race is still live. Safe to call from both the
// notification and the fallback paths; the second firing is a no-op.
func (s *settle) fire() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		s.fn()
	})
}

// cancel consumes the race without running the effect.
func (s *settle) cancel() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}
