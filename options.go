package sheet

import (
	"errors"
	"log/slog"

	"github.com/velarium/sheet/host"
	"github.com/velarium/sheet/stack"
)

// Construction errors. These are the only user-visible failures in the
// system; everything later degrades or no-ops.
var (
	// ErrNoContent - neither Content nor Sections was supplied.
	ErrNoContent = errors.New("sheet: content required: supply Content or Sections")

	// ErrBothContentForms - Content and Sections were both supplied.
	ErrBothContentForms = errors.New("sheet: Content and Sections are mutually exclusive")

	// ErrScrollableCount - Sections did not contain exactly one scrollable
	// region.
	ErrScrollableCount = errors.New("sheet: Sections must contain exactly one scrollable region")
)

// Section is one content region in an ordered section list. Exactly one
// section must be flagged Scrollable.
type Section struct {
	Region     host.Region
	Scrollable bool
}

// Options configures a sheet instance. All fields are consumed once at
// construction. Exactly one of Content and Sections must be set.
type Options struct {
	// Content is the single scrollable content region.
	Content host.Region

	// Sections is an ordered list of regions, exactly one flagged
	// scrollable. Mutually exclusive with Content.
	Sections []Section

	// Dismissible gates all non-programmatic close paths. Defaults to
	// true; when false only an api-reason close succeeds.
	Dismissible *bool

	// CloseOnBackdrop and CloseOnEscape gate those two dismissal sources.
	// Both default to true.
	CloseOnBackdrop *bool
	CloseOnEscape   *bool

	// ShowBackdrop and ShowCloseButton are visibility toggles, independent
	// of dismissal gating. Both default to true.
	ShowBackdrop    *bool
	ShowCloseButton *bool

	// AdjustableHeight enables content-fit sizing on narrow surfaces.
	AdjustableHeight bool

	// FloatingCloseButton is a positioning hint for external styling only.
	FloatingCloseButton bool

	// DragStartBlockSelector names additional host-resolved zones that opt
	// out of the drag gesture, additive with the built-in marker.
	DragStartBlockSelector string

	// MountTo is an attachment-point hint for the host integration layer.
	// An unresolved value falls back to the host's default root.
	MountTo string

	// Surface is the root surface handle. Nil degrades to a no-op surface.
	Surface host.Surface

	// Viewport supplies viewport signals. Nil means the capability is
	// absent: narrow-surface defaults apply and the keyboard is treated
	// as closed.
	Viewport host.Viewport

	// Scheduler defers timers and animation frames. Nil means a
	// host.TimerScheduler at 60 FPS.
	Scheduler host.Scheduler

	// Coordinator is the stack registry this instance participates in.
	// Instances meant to stack together must share one. Nil means a
	// coordinator private to this instance.
	Coordinator *stack.Coordinator

	// OnOpenChange fires once per actual open-flag transition, after
	// internal state has been fully resynchronized.
	OnOpenChange func(open bool, reason Reason)

	// Config overrides the tuning defaults. Nil means DefaultConfig.
	Config *Config

	// Logger for debug output. Nil means slog.Default().
	Logger *slog.Logger
}

// normalized is the validated projection of Options: the one scrollable
// region plus the ordered fixed regions.
type normalized struct {
	scroll host.Region
	fixed  []host.Region
}

// normalize validates the content configuration and splits it into the
// scrollable region and its sibling fixed regions.
func (o *Options) normalize() (normalized, error) {
	hasContent := o.Content != nil
	hasSections := len(o.Sections) > 0

	switch {
	case hasContent && hasSections:
		return normalized{}, ErrBothContentForms
	case !hasContent && !hasSections:
		return normalized{}, ErrNoContent
	case hasContent:
		return normalized{scroll: o.Content}, nil
	}

	var n normalized
	scrollables := 0
	for _, s := range o.Sections {
		if s.Scrollable {
			scrollables++
			n.scroll = s.Region
		} else {
			n.fixed = append(n.fixed, s.Region)
		}
	}
	if scrollables != 1 {
		return normalized{}, ErrScrollableCount
	}
	return n, nil
}

// boolOr resolves a default-true option pointer.
func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
