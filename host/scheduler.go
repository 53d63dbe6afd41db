package host

import (
	"sync"
	"sync/atomic"
	"time"
)

// TimerScheduler implements Scheduler on the process clock. All callbacks —
// timers and animation frames — run serialized on one internal dispatch
// goroutine, so the core's single-control-thread model holds without the
// host providing a loop of its own. Hosts that deliver input events should
// marshal them onto the same thread with Post.
//
// Frames fire at a fixed interval, so hosts without a vsync source still get
// working animations and fallback timers.
type TimerScheduler struct {
	// FrameInterval is the spacing between animation frames. Zero means
	// 60 FPS.
	FrameInterval time.Duration

	start   sync.Once
	stopped sync.Once
	work    chan func()
	done    chan struct{}
}

// NewTimerScheduler returns a TimerScheduler ticking at 60 FPS.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{FrameInterval: time.Second / 60}
}

func (s *TimerScheduler) init() {
	s.start.Do(func() {
		s.work = make(chan func(), 64)
		s.done = make(chan struct{})
		go s.dispatch()
	})
}

// dispatch is the control thread: it drains the work queue one callback at a
// time until Stop.
func (s *TimerScheduler) dispatch() {
	for {
		select {
		case fn := <-s.work:
			fn()
		case <-s.done:
			return
		}
	}
}

func (s *TimerScheduler) enqueue(fn func()) {
	select {
	case s.work <- fn:
	case <-s.done:
	}
}

// Post runs fn on the dispatch thread. Use it to deliver pointer, viewport
// and lifecycle events from other goroutines.
func (s *TimerScheduler) Post(fn func()) {
	s.init()
	s.enqueue(fn)
}

// Stop terminates the dispatch thread. Pending and future callbacks are
// dropped. Idempotent.
func (s *TimerScheduler) Stop() {
	s.init()
	s.stopped.Do(func() { close(s.done) })
}

// AfterFunc runs fn on the dispatch thread after d.
func (s *TimerScheduler) AfterFunc(d time.Duration, fn func()) CancelFunc {
	s.init()
	var cancelled atomic.Bool
	t := time.AfterFunc(d, func() {
		s.enqueue(func() {
			if !cancelled.Load() {
				fn()
			}
		})
	})
	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}

// RequestFrame runs fn on the dispatch thread after one frame interval.
func (s *TimerScheduler) RequestFrame(fn func(now time.Time)) CancelFunc {
	interval := s.FrameInterval
	if interval <= 0 {
		interval = time.Second / 60
	}
	s.init()
	var cancelled atomic.Bool
	t := time.AfterFunc(interval, func() {
		s.enqueue(func() {
			if !cancelled.Load() {
				fn(time.Now())
			}
		})
	})
	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}
