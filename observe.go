package sheet

import (
	"time"

	"github.com/velarium/sheet/host"
)

// contentObserver watches the scrollable region and its sibling fixed
// regions for size changes and raises a single debounced "content size may
// have changed" signal. Hosts without the observation capability simply
// contribute no signals; the natural-height cache then refreshes only on
// width changes.
type contentObserver struct {
	sched    host.Scheduler
	debounce time.Duration
	onChange func()

	cancels []func()
	pending host.CancelFunc
}

func newContentObserver(sched host.Scheduler, debounce time.Duration, onChange func()) *contentObserver {
	return &contentObserver{
		sched:    sched,
		debounce: debounce,
		onChange: onChange,
	}
}

// attach registers the observer with every region that supports it.
func (o *contentObserver) attach(regions ...host.Region) {
	for _, r := range regions {
		if r == nil {
			continue
		}
		if cancel, ok := r.Observe(o.signal); ok {
			o.cancels = append(o.cancels, cancel)
		}
	}
}

// signal coalesces bursts of region callbacks into one onChange.
func (o *contentObserver) signal() {
	if o.pending != nil {
		o.pending()
	}
	o.pending = o.sched.AfterFunc(o.debounce, func() {
		o.pending = nil
		o.onChange()
	})
}

// detach cancels every observation and any pending signal. Idempotent.
func (o *contentObserver) detach() {
	for _, cancel := range o.cancels {
		cancel()
	}
	o.cancels = nil
	if o.pending != nil {
		o.pending()
		o.pending = nil
	}
}
