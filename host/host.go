// Package host defines the capability boundary between the sheet core and
// the environment that actually renders it. The core never touches a
// rendering surface directly: it reads viewport geometry through Viewport,
// measures and watches content through Region, writes visuals through
// Surface, and defers work through Scheduler. A host integration layer
// implements these four interfaces for its rendering technology and feeds
// pointer/viewport events back into the core.
package host

import "time"

// ============================================================================
// Style Variables and State Markers
// ============================================================================

// Style variable names written to the root surface. External styling keys off
// these; the names are part of the compatibility contract and must not change.
const (
	VarMobileHeight    = "--sheet-mobile-height"
	VarKeyboardHeight  = "--sheet-keyboard-height"
	VarRootOffsetY     = "--sheet-root-offset-y"
	VarStackLayer      = "--sheet-stack-layer"
	VarStackOffset     = "--sheet-stack-offset"
	VarStackScale      = "--sheet-stack-scale"
	VarBackdropOpacity = "--sheet-backdrop-opacity"
)

// Boolean state markers and valued state attributes attached to the root
// surface. Like the style variables, these names are contractual.
const (
	FlagOpen                = "open"
	FlagDragging            = "dragging"
	FlagKeyboardOpen        = "keyboard-open"
	FlagStackTop            = "stack-top"
	FlagStackDragging       = "stack-dragging"
	FlagAdjustableTracking  = "adjustable-tracking"
	FlagFloatingCloseButton = "floating-close-button"

	AttrStackDepth = "stack-depth"
	AttrStackSize  = "stack-size"
)

// ============================================================================
// Capabilities
// ============================================================================

// Viewport exposes read-only queries against the host's viewport signals.
// A nil Viewport means the capability is absent; callers degrade to
// narrow-surface defaults rather than failing.
type Viewport interface {
	// LayoutWidth returns the layout-viewport width in pixels.
	LayoutWidth() float64

	// LayoutHeight returns the layout-viewport height in pixels.
	LayoutHeight() float64

	// VisibleBounds returns the visible-viewport height and its vertical
	// offset from the layout viewport. ok is false when the host cannot
	// distinguish the visible viewport (no fine-grained introspection);
	// callers then treat the keyboard as closed.
	VisibleBounds() (height, offset float64, ok bool)
}

// Region is a handle to one content region of the sheet (the scrollable
// region or a sibling fixed region).
type Region interface {
	// Width returns the region's current content width.
	Width() float64

	// ClientExtent returns the region's rendered (clipped) height.
	ClientExtent() float64

	// ScrollExtent returns the region's scrollable content height. For a
	// region whose content overflows, this exceeds ClientExtent.
	ScrollExtent() float64

	// NaturalExtent measures the region's unconstrained content height.
	// Implementations may temporarily relax sizing constraints to measure,
	// but must restore them exactly: the measurement must never leave an
	// observable visual side effect.
	NaturalExtent() float64

	// Observe registers fn to be called whenever the region's content may
	// have changed size (child attachment/detachment, mutation, deferred
	// image loads). Returns a cancel func detaching the observation, and
	// ok=false when the host has no size-observation capability.
	Observe(fn func()) (cancel func(), ok bool)
}

// Surface is the live handle to a sheet's root surface. All visual output of
// the core flows through it: style variables, state markers, the drag/open
// transform, and backdrop opacity.
type Surface interface {
	// SetVar writes a named style variable. RemoveVar clears it.
	SetVar(name, value string)
	RemoveVar(name string)

	// SetFlag toggles a boolean state marker.
	SetFlag(name string, on bool)

	// SetAttr writes a valued state attribute. RemoveAttr clears it.
	SetAttr(name, value string)
	RemoveAttr(name string)

	// TranslateY offsets the panel vertically by px (0 = rest position).
	// Implementations expose this as the VarRootOffsetY style variable.
	TranslateY(px float64)

	// SetBackdropOpacity sets the backdrop opacity in [0,1].
	// Implementations expose this as the VarBackdropOpacity variable.
	SetBackdropOpacity(opacity float64)

	// Height returns the panel's current rendered height, or 0 if it cannot
	// be measured.
	Height() float64

	// ScrollFocusedIntoView nudges the host's focused element into the
	// visible viewport. Used for keyboard-driven corrections; a no-op when
	// nothing is focused.
	ScrollFocusedIntoView()
}

// CancelFunc cancels a scheduled callback. Safe to call more than once and
// after the callback has fired.
type CancelFunc func()

// Scheduler defers work on the host's control thread: every callback must
// run serialized with the host's event delivery, never concurrently with it.
// Both methods return a CancelFunc; cancelling after the callback ran is a
// no-op.
type Scheduler interface {
	// AfterFunc runs fn after d has elapsed.
	AfterFunc(d time.Duration, fn func()) CancelFunc

	// RequestFrame runs fn at the next animation frame with the frame time.
	RequestFrame(fn func(now time.Time)) CancelFunc
}
