package sheet

import (
	"fmt"
	"io"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the tuning values the sheet subsystems share. Hosts normally
// use DefaultConfig; packaged apps can ship overrides in a TOML file read by
// LoadConfig.
type Config struct {
	// NarrowMaxWidth is the exclusive upper bound on layout-viewport width
	// for narrow-surface (bottom sheet) behavior. At or above it the sheet
	// renders as a side drawer and the mobile height engine is off.
	NarrowMaxWidth float64

	// ViewportFraction caps the panel height as a fraction of the base
	// viewport height on narrow surfaces.
	ViewportFraction float64

	// KeyboardEpsilon zeroes out sub-pixel keyboard heights to avoid
	// flicker from rounding.
	KeyboardEpsilon float64

	// DragThreshold is the accumulated downward offset, in pixels, at
	// which releasing a drag commits the dismissal.
	DragThreshold float64

	// DragFallbackExtent substitutes for the panel height in progress
	// arithmetic when the panel cannot be measured.
	DragFallbackExtent float64

	// Transition durations.
	OpenDuration     time.Duration
	CloseDuration    time.Duration
	SnapBackDuration time.Duration
	CommitDuration   time.Duration

	// Settle fallbacks: upper bounds on waiting for a transition
	// completion before the deferred effect runs anyway.
	OpenFallback  time.Duration
	CloseFallback time.Duration

	// ObserveDebounce coalesces bursts of content-size signals.
	ObserveDebounce time.Duration

	// FocusNudgeDelays schedules focused-element-into-view corrections
	// after the keyboard opens, at several delays to absorb platform
	// keyboard-animation jitter.
	FocusNudgeDelays []time.Duration

	// StackOffsetStep and StackScaleStep translate visual depth into the
	// stack offset (px) and scale style variables.
	StackOffsetStep float64
	StackScaleStep  float64
}

// DefaultConfig returns the standard tuning values.
func DefaultConfig() Config {
	return Config{
		NarrowMaxWidth:     768,
		ViewportFraction:   0.95,
		KeyboardEpsilon:    1,
		DragThreshold:      150,
		DragFallbackExtent: 500,
		OpenDuration:       300 * time.Millisecond,
		CloseDuration:      250 * time.Millisecond,
		SnapBackDuration:   200 * time.Millisecond,
		CommitDuration:     200 * time.Millisecond,
		OpenFallback:       500 * time.Millisecond,
		CloseFallback:      500 * time.Millisecond,
		ObserveDebounce:    50 * time.Millisecond,
		FocusNudgeDelays: []time.Duration{
			50 * time.Millisecond,
			150 * time.Millisecond,
			300 * time.Millisecond,
		},
		StackOffsetStep: 10,
		StackScaleStep:  0.05,
	}
}

// fileConfig is the TOML shape of Config. Durations are milliseconds; zero
// or omitted values keep their defaults.
type fileConfig struct {
	NarrowMaxWidth     float64 `toml:"narrow_max_width"`
	ViewportFraction   float64 `toml:"viewport_fraction"`
	KeyboardEpsilon    float64 `toml:"keyboard_epsilon"`
	DragThreshold      float64 `toml:"drag_threshold"`
	DragFallbackExtent float64 `toml:"drag_fallback_extent"`
	OpenMS             int64   `toml:"open_ms"`
	CloseMS            int64   `toml:"close_ms"`
	SnapBackMS         int64   `toml:"snap_back_ms"`
	CommitMS           int64   `toml:"commit_ms"`
	OpenFallbackMS     int64   `toml:"open_fallback_ms"`
	CloseFallbackMS    int64   `toml:"close_fallback_ms"`
	ObserveDebounceMS  int64   `toml:"observe_debounce_ms"`
	FocusNudgeMS       []int64 `toml:"focus_nudge_ms"`
	StackOffsetStep    float64 `toml:"stack_offset_step"`
	StackScaleStep     float64 `toml:"stack_scale_step"`
}

// LoadConfig reads TOML overrides on top of DefaultConfig.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	var fc fileConfig
	if err := toml.NewDecoder(r).Decode(&fc); err != nil {
		return cfg, fmt.Errorf("sheet: parse config: %w", err)
	}

	if fc.NarrowMaxWidth > 0 {
		cfg.NarrowMaxWidth = fc.NarrowMaxWidth
	}
	if fc.ViewportFraction > 0 {
		cfg.ViewportFraction = fc.ViewportFraction
	}
	if fc.KeyboardEpsilon > 0 {
		cfg.KeyboardEpsilon = fc.KeyboardEpsilon
	}
	if fc.DragThreshold > 0 {
		cfg.DragThreshold = fc.DragThreshold
	}
	if fc.DragFallbackExtent > 0 {
		cfg.DragFallbackExtent = fc.DragFallbackExtent
	}
	if fc.OpenMS > 0 {
		cfg.OpenDuration = time.Duration(fc.OpenMS) * time.Millisecond
	}
	if fc.CloseMS > 0 {
		cfg.CloseDuration = time.Duration(fc.CloseMS) * time.Millisecond
	}
	if fc.SnapBackMS > 0 {
		cfg.SnapBackDuration = time.Duration(fc.SnapBackMS) * time.Millisecond
	}
	if fc.CommitMS > 0 {
		cfg.CommitDuration = time.Duration(fc.CommitMS) * time.Millisecond
	}
	if fc.OpenFallbackMS > 0 {
		cfg.OpenFallback = time.Duration(fc.OpenFallbackMS) * time.Millisecond
	}
	if fc.CloseFallbackMS > 0 {
		cfg.CloseFallback = time.Duration(fc.CloseFallbackMS) * time.Millisecond
	}
	if fc.ObserveDebounceMS > 0 {
		cfg.ObserveDebounce = time.Duration(fc.ObserveDebounceMS) * time.Millisecond
	}
	if len(fc.FocusNudgeMS) > 0 {
		delays := make([]time.Duration, 0, len(fc.FocusNudgeMS))
		for _, ms := range fc.FocusNudgeMS {
			if ms > 0 {
				delays = append(delays, time.Duration(ms)*time.Millisecond)
			}
		}
		cfg.FocusNudgeDelays = delays
	}
	if fc.StackOffsetStep > 0 {
		cfg.StackOffsetStep = fc.StackOffsetStep
	}
	if fc.StackScaleStep > 0 {
		cfg.StackScaleStep = fc.StackScaleStep
	}

	return cfg, nil
}
