package sheet

import "github.com/velarium/sheet/host"

// heightEngine computes the panel's rendered height on narrow surfaces: the
// viewport-fraction cap reduced by keyboard height, optionally replaced by a
// content-fit height once adjustable tracking is ready. The natural content
// height is cached and revalidated lazily; the base viewport height is
// captured on first open and only ever grows, so a transient shrink during
// orientation or keyboard changes is never mistaken for a smaller device.
type heightEngine struct {
	probe  *viewportProbe
	scroll host.Region
	fixed  []host.Region
	cfg    *Config

	base float64 // grow-only base viewport height

	natural      float64
	naturalValid bool
	lastWidth    float64
}

func newHeightEngine(probe *viewportProbe, n normalized, cfg *Config) *heightEngine {
	return &heightEngine{
		probe:  probe,
		scroll: n.scroll,
		fixed:  n.fixed,
		cfg:    cfg,
	}
}

// captureBase folds the current layout height into the grow-only base.
func (e *heightEngine) captureBase() {
	if h := e.probe.layoutHeight(); h > e.base {
		e.base = h
	}
}

// baseHeight returns the captured base viewport height.
func (e *heightEngine) baseHeight() float64 {
	return e.base
}

// keyboardHeight returns the detected keyboard height against the base.
func (e *heightEngine) keyboardHeight() float64 {
	return e.probe.keyboardHeight(e.base)
}

// target computes the panel height for the current viewport state.
// adjustable is true only when content-fit mode is active and tracking has
// become ready.
func (e *heightEngine) target(adjustable bool) float64 {
	capped := e.cfg.ViewportFraction*e.base - e.keyboardHeight()
	if capped < 0 {
		capped = 0
	}
	if adjustable {
		if n := e.naturalContentHeight(); n < capped {
			return n
		}
	}
	return capped
}

// naturalContentHeight returns the cached natural height, revalidating when
// the content width changed or a content mutation invalidated it. The
// scrollable region is measured alone; the fixed regions contribute their
// live client extents.
func (e *heightEngine) naturalContentHeight() float64 {
	w := e.scroll.Width()
	if !e.naturalValid || w != e.lastWidth {
		e.natural = e.measure()
		e.naturalValid = true
		e.lastWidth = w
	}
	return e.natural
}

// measure reads the scrollable region's natural extent. When its content
// already overflows, the live scroll extent is the answer; otherwise the
// host performs the unconstrained measurement.
func (e *heightEngine) measure() float64 {
	var h float64
	if e.scroll.ScrollExtent() > e.scroll.ClientExtent() {
		h = e.scroll.ScrollExtent()
	} else {
		h = e.scroll.NaturalExtent()
	}
	for _, f := range e.fixed {
		if f != nil {
			h += f.ClientExtent()
		}
	}
	return h
}

// invalidate marks the natural-height cache dirty; the next read remeasures.
func (e *heightEngine) invalidate() {
	e.naturalValid = false
}
