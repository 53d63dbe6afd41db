package sheet

import (
	"github.com/velarium/sheet/anim"
	"github.com/velarium/sheet/host"
	"github.com/velarium/sheet/stack"
)

// TargetInfo describes where a touch landed. The host integration layer
// resolves it against its own tree: interactive controls, scrollable
// ancestors scrolled down from their top, and drag-block zones matched by
// the built-in marker or Options.DragStartBlockSelector.
type TargetInfo struct {
	// Interactive is true when the touch started on an interactive
	// control (button, input, link).
	Interactive bool

	// ScrolledRegion is true when the touch started inside a scrollable
	// ancestor that is scrolled down from its top. Downward movement there
	// is scroll intent, not dismiss intent.
	ScrolledRegion bool

	// DragBlocked is true when the touch started inside an opt-out zone.
	DragBlocked bool
}

// TouchPoint is one pointer sample delivered by the host.
type TouchPoint struct {
	// Touches is the number of concurrent touches in the gesture.
	Touches int

	// Y is the vertical position in surface coordinates.
	Y float64

	// Target is resolved for the starting sample only.
	Target TargetInfo
}

// dragHandler tracks a single-finger vertical drag on the panel:
// idle → tracking (no visual) → dragging (visual feedback) → committed or
// snapped back. It owns the panel translate, the backdrop fade, and the
// global drag-progress fan-out during the gesture.
type dragHandler struct {
	cfg     *Config
	surface host.Surface
	coord   *stack.Coordinator
	id      stack.ParticipantID
	runner  *anim.Runner

	// allowed gates gesture start: top-most and dismissible.
	allowed func() bool

	// showBackdrop gates the backdrop fade writes, mirroring the open
	// edge's gating.
	showBackdrop bool

	// onCommit requests the drag-reason close. onSettled fires once the
	// commit slide-out finishes, releasing the deferred geometry clear.
	onCommit  func()
	onSettled func()

	tracking bool
	dragging bool
	startY   float64
	offset   float64
	extent   float64 // panel height committed at gesture start
	release  *anim.Animation
}

// active reports whether a gesture is being tracked.
func (d *dragHandler) active() bool {
	return d.tracking
}

// isDragging reports whether visual drag feedback has begun.
func (d *dragHandler) isDragging() bool {
	return d.dragging
}

// start begins tracking if the gesture qualifies: one finger, on the
// top-most dismissible instance, outside interactive controls, scrolled
// regions and opt-out zones. A second finger arriving during an active
// gesture cancels it.
func (d *dragHandler) start(t TouchPoint) {
	if d.tracking {
		if t.Touches > 1 {
			d.cancel()
		}
		return
	}
	if t.Touches != 1 {
		return
	}
	if t.Target.Interactive || t.Target.ScrolledRegion || t.Target.DragBlocked {
		return
	}
	if d.allowed != nil && !d.allowed() {
		return
	}

	if d.release != nil {
		d.release.Cancel()
		d.release = nil
	}

	d.tracking = true
	d.dragging = false
	d.startY = t.Y
	d.offset = 0
	d.extent = d.surface.Height()
	if d.extent <= 0 {
		d.extent = d.cfg.DragFallbackExtent
	}
}

// move follows the finger. Upward movement before dragging has begun is
// scroll intent and is ignored; once dragging, the offset tracks the finger
// 1:1 and never goes negative.
func (d *dragHandler) move(t TouchPoint) {
	if !d.tracking {
		return
	}
	if t.Touches > 1 {
		d.cancel()
		return
	}

	dy := t.Y - d.startY
	if !d.dragging {
		if dy <= 0 {
			return
		}
		d.dragging = true
		d.surface.SetFlag(host.FlagDragging, true)
	}
	if dy < 0 {
		dy = 0
	}
	d.offset = dy

	progress := d.offset / d.extent
	if progress > 1 {
		progress = 1
	}
	d.surface.TranslateY(d.offset)
	if d.showBackdrop {
		d.surface.SetBackdropOpacity(1 - progress)
	}
	d.coord.SetDragProgress(d.id, progress)
}

// end resolves the gesture: past the threshold it commits (slide fully off,
// close with reason drag), otherwise it snaps back to rest. Either way the
// drag progress and the dragging flag are cleared.
//
// On commit, the close request and the slide-out start before the drag
// progress is cleared: the close edge already resyncs the stack with this
// instance gone, so covered sheets promote in one pass instead of bouncing
// back to full depth mid-dismissal, and the panel animates from the drag
// offset with no intermediate rest state.
func (d *dragHandler) end() {
	if !d.tracking {
		return
	}
	committed := d.dragging && d.offset >= d.cfg.DragThreshold
	offset := d.offset
	extent := d.extent

	d.tracking = false
	d.dragging = false
	d.offset = 0
	d.surface.SetFlag(host.FlagDragging, false)

	if committed {
		if d.onCommit != nil {
			d.onCommit()
		}
		d.release = d.runner.Start(d.cfg.CommitDuration, anim.EaseInQuad, func(p float64) {
			d.surface.TranslateY(offset + (extent-offset)*p)
		}, d.onSettled)
		d.coord.ClearDragProgress(d.id)
		return
	}

	d.coord.ClearDragProgress(d.id)
	if d.showBackdrop {
		d.surface.SetBackdropOpacity(1)
	}
	d.release = d.runner.Start(d.cfg.SnapBackDuration, anim.EaseOutCubic, func(p float64) {
		d.surface.TranslateY(offset * (1 - p))
	}, nil)
}

// cancel aborts the gesture and restores the rest state without leaving
// partial offset or stale drag progress behind.
func (d *dragHandler) cancel() {
	if !d.tracking {
		return
	}
	d.tracking = false
	wasDragging := d.dragging
	d.dragging = false
	d.offset = 0

	if wasDragging {
		d.surface.TranslateY(0)
		if d.showBackdrop {
			d.surface.SetBackdropOpacity(1)
		}
		d.surface.SetFlag(host.FlagDragging, false)
	}
	d.coord.ClearDragProgress(d.id)
}
