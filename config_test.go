package sheet

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.NarrowMaxWidth != 768 {
		t.Errorf("NarrowMaxWidth = %v, want 768", cfg.NarrowMaxWidth)
	}
	if cfg.ViewportFraction != 0.95 {
		t.Errorf("ViewportFraction = %v, want 0.95", cfg.ViewportFraction)
	}
	if cfg.DragThreshold != 150 {
		t.Errorf("DragThreshold = %v, want 150", cfg.DragThreshold)
	}
	if cfg.DragFallbackExtent != 500 {
		t.Errorf("DragFallbackExtent = %v, want 500", cfg.DragFallbackExtent)
	}
	if len(cfg.FocusNudgeDelays) != 3 {
		t.Errorf("FocusNudgeDelays length = %d, want 3", len(cfg.FocusNudgeDelays))
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	input := `
narrow_max_width = 640
drag_threshold = 120
open_ms = 400
focus_nudge_ms = [25, 100]
stack_scale_step = 0.1
`
	cfg, err := LoadConfig(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.NarrowMaxWidth != 640 {
		t.Errorf("NarrowMaxWidth = %v, want 640", cfg.NarrowMaxWidth)
	}
	if cfg.DragThreshold != 120 {
		t.Errorf("DragThreshold = %v, want 120", cfg.DragThreshold)
	}
	if cfg.OpenDuration != 400*time.Millisecond {
		t.Errorf("OpenDuration = %v, want 400ms", cfg.OpenDuration)
	}
	if len(cfg.FocusNudgeDelays) != 2 || cfg.FocusNudgeDelays[0] != 25*time.Millisecond {
		t.Errorf("FocusNudgeDelays = %v, want [25ms 100ms]", cfg.FocusNudgeDelays)
	}
	if cfg.StackScaleStep != 0.1 {
		t.Errorf("StackScaleStep = %v, want 0.1", cfg.StackScaleStep)
	}

	// Everything omitted keeps its default.
	if cfg.CloseDuration != 250*time.Millisecond {
		t.Errorf("CloseDuration = %v, want the 250ms default", cfg.CloseDuration)
	}
	if cfg.ViewportFraction != 0.95 {
		t.Errorf("ViewportFraction = %v, want the 0.95 default", cfg.ViewportFraction)
	}
}

func TestLoadConfigEmptyKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("LoadConfig(\"\") = %+v, want the defaults", cfg)
	}
}

func TestLoadConfigParseError(t *testing.T) {
	_, err := LoadConfig(strings.NewReader("narrow_max_width = ["))
	if err == nil {
		t.Fatal("expected a parse error")
	}
}
