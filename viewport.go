package sheet

import (
	"math"

	"github.com/velarium/sheet/host"
)

// viewportProbe wraps the host viewport capability with the degraded
// behavior for its absence: a nil or partial viewport reads as a narrow
// surface with no keyboard.
type viewportProbe struct {
	vp      host.Viewport
	epsilon float64
}

func newViewportProbe(vp host.Viewport, epsilon float64) *viewportProbe {
	return &viewportProbe{vp: vp, epsilon: epsilon}
}

// layoutWidth returns the layout-viewport width, 0 when unknown.
func (p *viewportProbe) layoutWidth() float64 {
	if p.vp == nil {
		return 0
	}
	return p.vp.LayoutWidth()
}

// layoutHeight returns the layout-viewport height, 0 when unknown.
func (p *viewportProbe) layoutHeight() float64 {
	if p.vp == nil {
		return 0
	}
	return p.vp.LayoutHeight()
}

// keyboardHeight derives the on-screen keyboard height from the visible
// viewport: the part of the base height the visible viewport no longer
// covers. Sub-epsilon values read as zero so rounding jitter does not
// flicker the keyboard state.
func (p *viewportProbe) keyboardHeight(base float64) float64 {
	if p.vp == nil || base <= 0 {
		return 0
	}
	visible, offset, ok := p.vp.VisibleBounds()
	if !ok {
		return 0
	}
	kb := math.Round(base - (visible + offset))
	if kb < p.epsilon {
		return 0
	}
	return kb
}

// narrow reports whether the surface is narrow (bottom sheet mode). An
// absent viewport defaults to narrow.
func (p *viewportProbe) narrow(maxWidth float64) bool {
	if p.vp == nil {
		return true
	}
	return p.vp.LayoutWidth() < maxWidth
}
