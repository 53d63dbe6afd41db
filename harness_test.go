package sheet

import (
	"time"

	"github.com/velarium/sheet/host"
)

// fakeSurface records every style variable, flag and attribute write,
// including per-write history for transform and variable assertions.
type fakeSurface struct {
	vars  map[string]string
	flags map[string]bool
	attrs map[string]string

	translateY float64
	backdrop   float64
	height     float64
	scrolls    int

	translates []float64
	varLog     []string // "name=value" in write order
}

func newFakeSurface(height float64) *fakeSurface {
	return &fakeSurface{
		vars:   make(map[string]string),
		flags:  make(map[string]bool),
		attrs:  make(map[string]string),
		height: height,
	}
}

func (s *fakeSurface) SetVar(name, value string) {
	s.vars[name] = value
	s.varLog = append(s.varLog, name+"="+value)
}
func (s *fakeSurface) RemoveVar(name string) { delete(s.vars, name) }
func (s *fakeSurface) SetFlag(name string, on bool) {
	s.flags[name] = on
}
func (s *fakeSurface) SetAttr(name, value string) { s.attrs[name] = value }
func (s *fakeSurface) RemoveAttr(name string)     { delete(s.attrs, name) }
func (s *fakeSurface) TranslateY(px float64) {
	s.translateY = px
	s.translates = append(s.translates, px)
}
func (s *fakeSurface) SetBackdropOpacity(opacity float64) {
	s.backdrop = opacity
}
func (s *fakeSurface) Height() float64        { return s.height }
func (s *fakeSurface) ScrollFocusedIntoView() { s.scrolls++ }

// fakeViewport serves fixed layout and visible-viewport readings.
type fakeViewport struct {
	width, height        float64
	visibleH, visibleOff float64
	visibleOK            bool
}

func (v *fakeViewport) LayoutWidth() float64  { return v.width }
func (v *fakeViewport) LayoutHeight() float64 { return v.height }
func (v *fakeViewport) VisibleBounds() (float64, float64, bool) {
	return v.visibleH, v.visibleOff, v.visibleOK
}

// fakeRegion serves fixed extents and, when observable, lets the test raise
// size-change signals by hand.
type fakeRegion struct {
	width, client, scrollExt, natural float64

	observable bool
	notify     func()
}

func (r *fakeRegion) Width() float64         { return r.width }
func (r *fakeRegion) ClientExtent() float64  { return r.client }
func (r *fakeRegion) ScrollExtent() float64  { return r.scrollExt }
func (r *fakeRegion) NaturalExtent() float64 { return r.natural }
func (r *fakeRegion) Observe(fn func()) (func(), bool) {
	if !r.observable {
		return nil, false
	}
	r.notify = fn
	return func() { r.notify = nil }, true
}

func (r *fakeRegion) change() {
	if r.notify != nil {
		r.notify()
	}
}

// manualScheduler is a hand-cranked host.Scheduler: timers fire from
// Advance, animation frames from pump. Everything runs on the test
// goroutine.
type manualScheduler struct {
	now    time.Time
	timers []*manualTimer
	frames []*manualFrame
}

type manualTimer struct {
	at      time.Time
	fn      func()
	stopped bool
}

type manualFrame struct {
	fn      func(now time.Time)
	stopped bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{now: time.Now()}
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) host.CancelFunc {
	t := &manualTimer{at: s.now.Add(d), fn: fn}
	s.timers = append(s.timers, t)
	return func() { t.stopped = true }
}

func (s *manualScheduler) RequestFrame(fn func(now time.Time)) host.CancelFunc {
	f := &manualFrame{fn: fn}
	s.frames = append(s.frames, f)
	return func() { f.stopped = true }
}

// Advance moves the clock and fires every due timer in arming order. Timers
// armed by fired callbacks run too if they fall within the window.
func (s *manualScheduler) Advance(d time.Duration) {
	s.now = s.now.Add(d)
	for {
		fired := false
		for _, t := range s.timers {
			if t.stopped || t.at.After(s.now) {
				continue
			}
			t.stopped = true
			fired = true
			t.fn()
		}
		if !fired {
			break
		}
	}
}

// pump delivers every pending animation frame at now.
func (s *manualScheduler) pump(now time.Time) {
	pending := s.frames
	s.frames = nil
	for _, f := range pending {
		if !f.stopped {
			f.fn(now)
		}
	}
}

// settleAnimations pumps frames far in the future until every active
// animation has completed.
func (s *manualScheduler) settleAnimations() {
	far := time.Now().Add(time.Hour)
	for i := 0; i < 10 && len(s.frames) > 0; i++ {
		s.pump(far)
	}
}
