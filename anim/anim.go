// Package anim provides a small frame-driven animation runner used for the
// sheet's open slide, drag snap-back and commit slide-out. Animations carry
// an update callback receiving eased progress 0-1 and an optional completion
// callback; the runner pumps host animation frames only while animations are
// active.
package anim

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/velarium/sheet/host"
)

// ID uniquely identifies an animation.
type ID uint64

var nextID atomic.Uint64

func newID() ID {
	return ID(nextID.Add(1))
}

// EasingFunc maps time progress 0-1 to value progress 0-1.
type EasingFunc func(t float64) float64

var (
	// EaseLinear - constant speed.
	EaseLinear EasingFunc = func(t float64) float64 { return t }

	// EaseInQuad - accelerate from zero. Used for the commit slide-out.
	EaseInQuad EasingFunc = func(t float64) float64 { return t * t }

	// EaseOutQuad - decelerate to zero.
	EaseOutQuad EasingFunc = func(t float64) float64 { return t * (2 - t) }

	// EaseOutCubic - smooth deceleration (good for UI).
	EaseOutCubic EasingFunc = func(t float64) float64 {
		t--
		return t*t*t + 1
	}

	// EaseInOutCubic - smooth acceleration and deceleration.
	EaseInOutCubic EasingFunc = func(t float64) float64 {
		if t < 0.5 {
			return 4 * t * t * t
		}
		return (t-1)*(2*t-2)*(2*t-2) + 1
	}
)

// Animation is one active tween. Cancel is safe from any goroutine; a
// cancelled animation never fires its completion callback.
type Animation struct {
	id         ID
	startTime  time.Time
	duration   time.Duration
	easing     EasingFunc
	update     func(progress float64)
	onComplete func()
	cancelled  atomic.Bool
}

// ID returns the animation's unique identifier.
func (a *Animation) ID() ID {
	return a.id
}

// Cancel stops the animation. The update callback will not run again and
// the completion callback is skipped.
func (a *Animation) Cancel() {
	a.cancelled.Store(true)
}

// IsCancelled reports whether the animation was cancelled.
func (a *Animation) IsCancelled() bool {
	return a.cancelled.Load()
}

// Runner owns active animations and drives them from host animation frames.
// It requests frames only while at least one animation is live.
type Runner struct {
	mu         sync.Mutex
	sched      host.Scheduler
	animations map[ID]*Animation
	frameStop  host.CancelFunc
	pumping    bool
}

// NewRunner creates a runner driving frames through sched.
func NewRunner(sched host.Scheduler) *Runner {
	return &Runner{
		sched:      sched,
		animations: make(map[ID]*Animation),
	}
}

// Start begins a new animation. duration must be positive; easing nil means
// EaseOutCubic. update is called each frame with eased progress and once
// with progress 1 at completion, then onComplete fires.
func (r *Runner) Start(duration time.Duration, easing EasingFunc, update func(progress float64), onComplete func()) *Animation {
	if easing == nil {
		easing = EaseOutCubic
	}
	a := &Animation{
		id:         newID(),
		startTime:  time.Now(),
		duration:   duration,
		easing:     easing,
		update:     update,
		onComplete: onComplete,
	}

	r.mu.Lock()
	r.animations[a.id] = a
	if !r.pumping {
		r.pumping = true
		r.frameStop = r.sched.RequestFrame(r.tick)
	}
	r.mu.Unlock()
	return a
}

// CancelAll cancels every active animation and stops the frame pump.
func (r *Runner) CancelAll() {
	r.mu.Lock()
	for _, a := range r.animations {
		a.cancelled.Store(true)
	}
	r.animations = make(map[ID]*Animation)
	stop := r.frameStop
	r.frameStop = nil
	r.pumping = false
	r.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Active reports whether any animation is still running.
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.animations) > 0
}

// tick advances all animations by one frame and re-requests a frame while
// any remain. Update and completion callbacks run outside the lock.
func (r *Runner) tick(now time.Time) {
	r.mu.Lock()
	live := make([]*Animation, 0, len(r.animations))
	for _, a := range r.animations {
		live = append(live, a)
	}
	r.mu.Unlock()

	var completed []*Animation
	for _, a := range live {
		if a.cancelled.Load() {
			r.remove(a.id)
			continue
		}

		elapsed := now.Sub(a.startTime)
		if a.duration <= 0 || elapsed >= a.duration {
			if a.update != nil {
				a.update(a.easing(1.0))
			}
			r.remove(a.id)
			completed = append(completed, a)
			continue
		}

		t := float64(elapsed) / float64(a.duration)
		if a.update != nil {
			a.update(a.easing(t))
		}
	}

	for _, a := range completed {
		if a.onComplete != nil && !a.cancelled.Load() {
			a.onComplete()
		}
	}

	r.mu.Lock()
	if len(r.animations) > 0 {
		r.frameStop = r.sched.RequestFrame(r.tick)
	} else {
		r.frameStop = nil
		r.pumping = false
	}
	r.mu.Unlock()
}

func (r *Runner) remove(id ID) {
	r.mu.Lock()
	delete(r.animations, id)
	r.mu.Unlock()
}
