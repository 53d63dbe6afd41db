// Package sheet implements a modal sheet overlay primitive: a bottom sheet
// on narrow surfaces, a side drawer on wide ones. Each Sheet owns one
// instance's open/closed lifecycle, drag-to-dismiss gesture, and
// keyboard-aware height; the stack package coordinates ordering and layered
// depth visuals across every simultaneously open instance.
//
// The core is rendering-agnostic: all environment access flows through the
// host package's capability interfaces, and a host integration layer feeds
// pointer, viewport and transition events back in.
package sheet

import (
	"log/slog"
	"strconv"
	"sync"

	"github.com/velarium/sheet/anim"
	"github.com/velarium/sheet/host"
	"github.com/velarium/sheet/stack"
)

// Sheet is one overlay instance. Construct with New, drive with Open, Close
// and the host event entry points, and release with Destroy.
type Sheet struct {
	mu sync.Mutex

	cfg Config
	log *slog.Logger

	coord *stack.Coordinator
	id    stack.ParticipantID
	order stack.OpenOrder

	surface host.Surface
	probe   *viewportProbe
	sched   host.Scheduler
	runner  *anim.Runner

	height   *heightEngine
	observer *contentObserver
	drag     *dragHandler

	// Options, fixed at construction.
	dismissible     bool
	closeOnBackdrop bool
	closeOnEscape   bool
	showBackdrop    bool
	showCloseButton bool
	adjustable      bool
	floatingClose   bool
	mountTo         string
	blockSelector   string
	onOpenChange    func(open bool, reason Reason)

	open          bool
	prevOpen      bool
	pendingReason Reason

	adjustableReady bool
	retainSnapshot  bool
	keyboardOpen    bool

	// keepTransform is set for drag-reason closes: the commit slide owns
	// the panel transform, so the geometry clear must not reset it.
	keepTransform bool

	openSettle  *settle
	closeSettle *settle
	slide       *anim.Animation
	nudges      []host.CancelFunc

	destroyed bool
}

// New validates opts and constructs a closed sheet, registered with its
// coordinator. The only failure mode is an invalid content configuration.
func New(opts Options) (*Sheet, error) {
	n, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = host.NewTimerScheduler()
	}
	surface := opts.Surface
	if surface == nil {
		surface = noopSurface{}
	}
	coord := opts.Coordinator
	if coord == nil {
		// Registries are owned, never ambient: without an explicit
		// coordinator the instance gets one of its own and stacks alone.
		coord = stack.New(logger)
	}

	s := &Sheet{
		cfg:             cfg,
		log:             logger,
		coord:           coord,
		surface:         surface,
		probe:           newViewportProbe(opts.Viewport, cfg.KeyboardEpsilon),
		sched:           sched,
		dismissible:     boolOr(opts.Dismissible, true),
		closeOnBackdrop: boolOr(opts.CloseOnBackdrop, true),
		closeOnEscape:   boolOr(opts.CloseOnEscape, true),
		showBackdrop:    boolOr(opts.ShowBackdrop, true),
		showCloseButton: boolOr(opts.ShowCloseButton, true),
		adjustable:      opts.AdjustableHeight,
		floatingClose:   opts.FloatingCloseButton,
		mountTo:         opts.MountTo,
		blockSelector:   opts.DragStartBlockSelector,
		onOpenChange:    opts.OnOpenChange,
	}
	s.id = coord.ClaimParticipantID()
	s.runner = anim.NewRunner(sched)
	s.height = newHeightEngine(s.probe, n, &s.cfg)
	s.observer = newContentObserver(sched, cfg.ObserveDebounce, s.ContentChanged)
	s.observer.attach(append([]host.Region{n.scroll}, n.fixed...)...)
	s.drag = &dragHandler{
		cfg:          &s.cfg,
		surface:      surface,
		coord:        coord,
		id:           s.id,
		runner:       s.runner,
		showBackdrop: s.showBackdrop,
		allowed:      func() bool { return s.dismissible && s.IsTop() },
		onCommit: func() {
			s.setOpen(false, ReasonDrag)
		},
		onSettled: s.fireCloseSettle,
	}

	surface.SetFlag(host.FlagOpen, false)
	surface.SetFlag(host.FlagFloatingCloseButton, s.floatingClose)

	coord.Register(stack.Participant{
		ID: s.id,
		OpenOrder: func() stack.OpenOrder {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.order
		},
		IsOpen: s.IsOpen,
		Apply:  s.applySnapshot,
	})

	return s, nil
}

// ============================================================================
// Public open/close contract
// ============================================================================

// Open requests open with reason api. No-op if already open.
func (s *Sheet) Open() {
	s.setOpen(true, ReasonAPI)
}

// Close requests close with reason api. No-op if already closed.
func (s *Sheet) Close() {
	s.setOpen(false, ReasonAPI)
}

// CloseWithReason requests close with the given reason. A non-dismissible
// sheet silently refuses every reason except api.
func (s *Sheet) CloseWithReason(reason Reason) {
	s.setOpen(false, reason)
}

// SetOpen mutates the open flag directly, the host-owned path. The reason
// reported for the transition defaults to api.
func (s *Sheet) SetOpen(open bool) {
	s.setOpen(open, ReasonAPI)
}

// IsOpen returns the current open flag.
func (s *Sheet) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// IsTop reports whether this instance is the top-most open sheet.
func (s *Sheet) IsTop() bool {
	return s.coord.IsTop(s.id)
}

// Surface returns the live root surface handle.
func (s *Sheet) Surface() host.Surface {
	return s.surface
}

// MountTo returns the attachment-point hint for the host integration layer.
func (s *Sheet) MountTo() string {
	return s.mountTo
}

// DragStartBlockSelector returns the host-resolved drag opt-out selector.
func (s *Sheet) DragStartBlockSelector() string {
	return s.blockSelector
}

// ShowBackdrop reports the backdrop visibility toggle.
func (s *Sheet) ShowBackdrop() bool {
	return s.showBackdrop
}

// ShowCloseButton reports the close-button visibility toggle.
func (s *Sheet) ShowCloseButton() bool {
	return s.showCloseButton
}

// Destroy detaches all listeners and observers, clears visuals, and
// unregisters from the coordinator. Idempotent; no callback fires on a
// destroyed instance afterwards.
func (s *Sheet) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.open = false
	s.prevOpen = false
	if s.openSettle != nil {
		s.openSettle.cancel()
		s.openSettle = nil
	}
	if s.closeSettle != nil {
		s.closeSettle.cancel()
		s.closeSettle = nil
	}
	nudges := s.nudges
	s.nudges = nil
	s.mu.Unlock()

	for _, cancel := range nudges {
		cancel()
	}
	s.runner.CancelAll()
	s.drag.tracking = false
	s.drag.dragging = false
	s.observer.detach()
	s.coord.ClearDragProgress(s.id)
	s.coord.Unregister(s.id)

	s.surface.SetFlag(host.FlagOpen, false)
	s.surface.SetFlag(host.FlagDragging, false)
	s.surface.SetFlag(host.FlagKeyboardOpen, false)
	s.surface.SetFlag(host.FlagAdjustableTracking, false)
	s.surface.SetFlag(host.FlagStackTop, false)
	s.surface.SetFlag(host.FlagStackDragging, false)
	s.surface.TranslateY(0)
	s.surface.RemoveVar(host.VarMobileHeight)
	s.surface.RemoveVar(host.VarKeyboardHeight)
	s.surface.RemoveVar(host.VarStackLayer)
	s.surface.RemoveVar(host.VarStackOffset)
	s.surface.RemoveVar(host.VarStackScale)
	s.surface.RemoveAttr(host.AttrStackDepth)
	s.surface.RemoveAttr(host.AttrStackSize)

	s.log.Debug("sheet destroyed", "id", uint64(s.id))
}

// ============================================================================
// Host event entry points
// ============================================================================

// TouchStart, TouchMove, TouchEnd and TouchCancel feed the drag gesture.
func (s *Sheet) TouchStart(t TouchPoint) {
	if s.IsOpen() {
		s.drag.start(t)
	}
}

func (s *Sheet) TouchMove(t TouchPoint) {
	s.drag.move(t)
}

func (s *Sheet) TouchEnd() {
	s.drag.end()
}

func (s *Sheet) TouchCancel() {
	s.drag.cancel()
}

// HandleBackdropTap requests a backdrop dismissal. Only the top-most
// instance reacts, and only when the source is enabled.
func (s *Sheet) HandleBackdropTap() {
	if !s.closeOnBackdrop || !s.IsOpen() || !s.IsTop() {
		return
	}
	s.setOpen(false, ReasonBackdrop)
}

// HandleEscape requests an escape-key dismissal. Only the top-most instance
// reacts, and only when the source is enabled.
func (s *Sheet) HandleEscape() {
	if !s.closeOnEscape || !s.IsOpen() || !s.IsTop() {
		return
	}
	s.setOpen(false, ReasonEscape)
}

// HandleCloseButton requests a close-button dismissal.
func (s *Sheet) HandleCloseButton() {
	if !s.IsOpen() {
		return
	}
	s.setOpen(false, ReasonCloseButton)
}

// ViewportChanged re-applies geometry after a host resize or viewport event.
// Idempotent while the open flag is stable.
func (s *Sheet) ViewportChanged() {
	s.reconcile()
}

// WidthChanged invalidates the natural-height cache and re-applies geometry.
// Covers width changes that do not come with a viewport event, including
// crossing the narrow/wide breakpoint.
func (s *Sheet) WidthChanged() {
	s.height.invalidate()
	s.reconcile()
}

// ContentChanged invalidates the natural-height cache and re-applies
// geometry. The content observer calls this on debounced size signals;
// hosts without the observation capability may call it directly.
func (s *Sheet) ContentChanged() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.height.invalidate()
	s.syncGeometry()
}

// ============================================================================
// State machine
// ============================================================================

// setOpen applies an open-flag mutation and reconciles. A non-dismissible
// instance silently refuses non-api close requests.
func (s *Sheet) setOpen(open bool, reason Reason) {
	s.mu.Lock()
	if s.destroyed || s.open == open {
		s.mu.Unlock()
		return
	}
	if !open && !s.dismissible && reason != ReasonAPI {
		s.mu.Unlock()
		return
	}
	s.open = open
	s.pendingReason = reason
	s.mu.Unlock()

	s.reconcile()
}

// reconcile compares the current open flag against the previously observed
// value and runs the matching edge. With no edge it re-applies geometry
// idempotently (host resize or viewport events while state is stable).
func (s *Sheet) reconcile() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	cur, prev := s.open, s.prevOpen
	s.prevOpen = cur
	reason := s.pendingReason
	if reason == "" {
		reason = ReasonAPI
	}
	s.pendingReason = ""
	s.mu.Unlock()

	switch {
	case cur && !prev:
		s.handleOpenEdge(reason)
	case !cur && prev:
		s.handleCloseEdge(reason)
	default:
		s.syncGeometry()
	}
}

// handleOpenEdge runs the closed→open transition: claim a fresh open-order,
// reset the deferred-clear and readiness state, re-apply geometry, resync
// the stack, and start the slide-in.
func (s *Sheet) handleOpenEdge(reason Reason) {
	s.mu.Lock()
	s.order = s.coord.ClaimOpenOrder()
	if s.closeSettle != nil {
		s.closeSettle.cancel()
		s.closeSettle = nil
	}
	if s.openSettle != nil {
		s.openSettle.cancel()
		s.openSettle = nil
	}
	if s.slide != nil {
		s.slide.Cancel()
	}
	s.adjustableReady = false
	s.retainSnapshot = false
	s.keepTransform = false
	adjustable := s.adjustable
	s.mu.Unlock()

	s.height.captureBase()
	s.surface.SetFlag(host.FlagOpen, true)
	if s.showBackdrop {
		s.surface.SetBackdropOpacity(1)
	}
	s.syncGeometry()
	s.coord.Sync()

	narrow := s.probe.narrow(s.cfg.NarrowMaxWidth)
	if adjustable && narrow {
		st := newSettle(s.sched, s.cfg.OpenFallback, s.adjustableTrackingReady)
		s.mu.Lock()
		s.openSettle = st
		s.mu.Unlock()
	}

	extent := s.surface.Height()
	if extent <= 0 {
		extent = s.cfg.DragFallbackExtent
	}
	slide := s.runner.Start(s.cfg.OpenDuration, anim.EaseOutCubic, func(p float64) {
		s.surface.TranslateY(extent * (1 - p))
	}, s.fireOpenSettle)
	s.mu.Lock()
	s.slide = slide
	s.mu.Unlock()

	s.log.Debug("sheet opened", "id", uint64(s.id), "order", uint64(s.order), "reason", string(reason))
	s.notifyOpenChange(true, reason)
}

// handleCloseEdge runs the open→closed transition. With adjustable height
// active on a narrow surface, geometry and the stack snapshot are retained
// until the exit animation completes (bounded by a fallback timer) so the
// sheet neither snaps in size nor pops out of the layered stack before it
// finishes animating away.
func (s *Sheet) handleCloseEdge(reason Reason) {
	s.mu.Lock()
	if s.openSettle != nil {
		s.openSettle.cancel()
		s.openSettle = nil
	}
	if s.slide != nil {
		s.slide.Cancel()
	}
	s.adjustableReady = false
	s.keepTransform = reason == ReasonDrag
	narrow := s.probe.narrow(s.cfg.NarrowMaxWidth)
	deferred := s.adjustable && narrow
	s.retainSnapshot = deferred
	var cs *settle
	if deferred {
		cs = newSettle(s.sched, s.cfg.CloseFallback, s.closeSettled)
		s.closeSettle = cs
	}
	s.mu.Unlock()

	s.surface.SetFlag(host.FlagOpen, false)
	s.surface.SetFlag(host.FlagAdjustableTracking, false)
	s.coord.Sync()

	if reason != ReasonDrag {
		// The drag handler animates its own commit; every other dismissal
		// slides out from rest.
		extent := s.surface.Height()
		if extent <= 0 {
			extent = s.cfg.DragFallbackExtent
		}
		slide := s.runner.Start(s.cfg.CloseDuration, anim.EaseInQuad, func(p float64) {
			s.surface.TranslateY(extent * p)
		}, s.fireCloseSettle)
		s.mu.Lock()
		s.slide = slide
		s.mu.Unlock()
	}

	if !deferred {
		s.clearClosedGeometry()
	}

	s.log.Debug("sheet closed", "id", uint64(s.id), "reason", string(reason))
	s.notifyOpenChange(false, reason)
}

// adjustableTrackingReady is the open settle effect: content-fit tracking
// begins only after the slide-in finished (or its fallback elapsed), so the
// height-follows-content animation never fights the open slide.
func (s *Sheet) adjustableTrackingReady() {
	s.mu.Lock()
	if s.destroyed || !s.open {
		s.mu.Unlock()
		return
	}
	s.adjustableReady = true
	s.openSettle = nil
	s.mu.Unlock()

	s.surface.SetFlag(host.FlagAdjustableTracking, true)
	s.syncGeometry()
}

// closeSettled is the close settle effect: the deferred geometry clear and
// the end of stack-snapshot retention.
func (s *Sheet) closeSettled() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.closeSettle = nil
	s.retainSnapshot = false
	s.mu.Unlock()

	s.clearClosedGeometry()
	s.coord.Sync()
}

// fireOpenSettle and fireCloseSettle route animation completions into the
// pending settle race, if one is armed.
func (s *Sheet) fireOpenSettle() {
	s.mu.Lock()
	st := s.openSettle
	s.mu.Unlock()
	if st != nil {
		st.fire()
	}
}

func (s *Sheet) fireCloseSettle() {
	s.mu.Lock()
	st := s.closeSettle
	s.mu.Unlock()
	if st != nil {
		st.fire()
	}
}

// notifyOpenChange fires the host callback once per actual transition,
// after internal state has been resynchronized.
func (s *Sheet) notifyOpenChange(open bool, reason Reason) {
	s.mu.Lock()
	cb := s.onOpenChange
	destroyed := s.destroyed
	s.mu.Unlock()
	if destroyed || cb == nil {
		return
	}
	cb(open, reason)
}

// ============================================================================
// Geometry
// ============================================================================

// syncGeometry applies the height engine's current answer to the surface.
// Idempotent; a no-op on wide surfaces beyond clearing the mobile state.
func (s *Sheet) syncGeometry() {
	s.mu.Lock()
	if s.destroyed || !s.open {
		s.mu.Unlock()
		return
	}
	adjustableReady := s.adjustable && s.adjustableReady
	wasKeyboardOpen := s.keyboardOpen
	s.mu.Unlock()

	if !s.probe.narrow(s.cfg.NarrowMaxWidth) {
		s.surface.RemoveVar(host.VarMobileHeight)
		s.surface.RemoveVar(host.VarKeyboardHeight)
		s.surface.SetFlag(host.FlagKeyboardOpen, false)
		s.mu.Lock()
		s.keyboardOpen = false
		s.mu.Unlock()
		return
	}

	s.height.captureBase()
	kb := s.height.keyboardHeight()
	target := s.height.target(adjustableReady)

	s.surface.SetVar(host.VarMobileHeight, px(target))
	s.surface.SetVar(host.VarKeyboardHeight, px(kb))
	kbOpen := kb > 0
	s.surface.SetFlag(host.FlagKeyboardOpen, kbOpen)

	s.mu.Lock()
	s.keyboardOpen = kbOpen
	s.mu.Unlock()

	if kbOpen && !wasKeyboardOpen {
		s.scheduleFocusNudges()
	}
}

// clearClosedGeometry removes the mobile geometry state after a close has
// fully settled (or immediately when no deferral applies). On drag-reason
// closes the commit slide owns the panel transform and it is left alone; the
// next open edge animates from off-surface regardless.
func (s *Sheet) clearClosedGeometry() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	nudges := s.nudges
	s.nudges = nil
	s.keyboardOpen = false
	keepTransform := s.keepTransform
	s.mu.Unlock()

	for _, cancel := range nudges {
		cancel()
	}
	s.surface.RemoveVar(host.VarMobileHeight)
	s.surface.RemoveVar(host.VarKeyboardHeight)
	s.surface.SetFlag(host.FlagKeyboardOpen, false)
	if !keepTransform {
		s.surface.TranslateY(0)
	}
}

// scheduleFocusNudges schedules focused-element-into-view corrections at
// several delays, absorbing platform keyboard-animation jitter. New
// keyboard openings supersede pending nudges.
func (s *Sheet) scheduleFocusNudges() {
	s.mu.Lock()
	old := s.nudges
	s.nudges = nil
	s.mu.Unlock()
	for _, cancel := range old {
		cancel()
	}

	fresh := make([]host.CancelFunc, 0, len(s.cfg.FocusNudgeDelays))
	for _, delay := range s.cfg.FocusNudgeDelays {
		fresh = append(fresh, s.sched.AfterFunc(delay, func() {
			if s.IsOpen() {
				s.surface.ScrollFocusedIntoView()
			}
		}))
	}
	s.mu.Lock()
	s.nudges = fresh
	s.mu.Unlock()
}

// ============================================================================
// Stack snapshot application
// ============================================================================

// applySnapshot receives the coordinator's freshly derived visual state.
// nil means this instance is not part of the visible stack; visuals are then
// cleared, unless retention is holding them through a close deferral.
func (s *Sheet) applySnapshot(snap *stack.Snapshot) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	retain := s.retainSnapshot
	s.mu.Unlock()

	if snap == nil {
		if retain {
			return
		}
		s.surface.RemoveVar(host.VarStackLayer)
		s.surface.RemoveVar(host.VarStackOffset)
		s.surface.RemoveVar(host.VarStackScale)
		s.surface.RemoveAttr(host.AttrStackDepth)
		s.surface.RemoveAttr(host.AttrStackSize)
		s.surface.SetFlag(host.FlagStackTop, false)
		s.surface.SetFlag(host.FlagStackDragging, false)
		return
	}

	offset := snap.VisualDepth * s.cfg.StackOffsetStep
	scale := 1 - snap.VisualDepth*s.cfg.StackScaleStep
	s.surface.SetVar(host.VarStackLayer, strconv.Itoa(snap.Layer))
	s.surface.SetVar(host.VarStackOffset, px(offset))
	s.surface.SetVar(host.VarStackScale, strconv.FormatFloat(scale, 'f', -1, 64))
	s.surface.SetAttr(host.AttrStackDepth, strconv.Itoa(snap.DepthFromTop))
	s.surface.SetAttr(host.AttrStackSize, strconv.Itoa(snap.OpenCount))
	s.surface.SetFlag(host.FlagStackTop, snap.IsTop)
	s.surface.SetFlag(host.FlagStackDragging, snap.Dragging)
}

// px formats a pixel style-variable value.
func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

// noopSurface stands in when the host supplies no surface handle; the state
// machine still runs, nothing renders.
type noopSurface struct{}

func (noopSurface) SetVar(name, value string)          {}
func (noopSurface) RemoveVar(name string)              {}
func (noopSurface) SetFlag(name string, on bool)       {}
func (noopSurface) SetAttr(name, value string)         {}
func (noopSurface) RemoveAttr(name string)             {}
func (noopSurface) TranslateY(px float64)              {}
func (noopSurface) SetBackdropOpacity(opacity float64) {}
func (noopSurface) Height() float64                    { return 0 }
func (noopSurface) ScrollFocusedIntoView()             {}
