package sheet

import (
	"testing"

	"github.com/velarium/sheet/host"
)

func touch(y float64) TouchPoint {
	return TouchPoint{Touches: 1, Y: y}
}

func TestDragFollowsFinger(t *testing.T) {
	env := newTestEnv()
	s, surface := env.newSheet(t, nil)
	surface.height = 150

	s.Open()
	s.TouchStart(touch(100))
	s.TouchMove(touch(175))

	if !surface.flags[host.FlagDragging] {
		t.Error("dragging flag not set")
	}
	if surface.translateY != 75 {
		t.Errorf("translate = %v, want 75 (1:1 with the finger)", surface.translateY)
	}
	if surface.backdrop != 0.5 {
		t.Errorf("backdrop opacity = %v, want 0.5", surface.backdrop)
	}
	if owner, p := env.coord.DragProgress(); owner == 0 || p != 0.5 {
		t.Errorf("drag progress = %v (owner %d), want 0.5 with an owner", p, owner)
	}
}

func TestDragFansOutToCoveredSheets(t *testing.T) {
	env := newTestEnv()
	a, surfA := env.newSheet(t, nil)
	b, surfB := env.newSheet(t, nil)
	c, surfC := env.newSheet(t, nil)
	surfC.height = 150

	a.Open()
	b.Open()
	c.Open()

	c.TouchStart(touch(0))
	c.TouchMove(touch(75))

	// At progress 0.5 every covered sheet shifts half a depth toward the
	// position the top sheet is about to vacate: depth 1 reads 0.5, depth 2
	// reads 1.5.
	if got := surfB.vars[host.VarStackOffset]; got != "5px" {
		t.Errorf("depth-1 sheet offset var = %q, want \"5px\"", got)
	}
	if got := surfB.vars[host.VarStackScale]; got != "0.975" {
		t.Errorf("depth-1 sheet scale var = %q, want \"0.975\"", got)
	}
	if got := surfA.vars[host.VarStackOffset]; got != "15px" {
		t.Errorf("depth-2 sheet offset var = %q, want \"15px\"", got)
	}
	if !surfA.flags[host.FlagStackDragging] || !surfB.flags[host.FlagStackDragging] {
		t.Error("stack-wide dragging flag not set on covered sheets")
	}
}

func TestDragCommitClosesWithDragReason(t *testing.T) {
	env := newTestEnv()
	var got *[]transition
	s, surface := env.newSheet(t, func(o *Options) {
		got = recordTransitions(o)
	})

	s.Open()
	s.TouchStart(touch(0))
	s.TouchMove(touch(200))
	s.TouchEnd()

	if s.IsOpen() {
		t.Fatal("drag past the threshold should close on release")
	}
	last := (*got)[len(*got)-1]
	if last.open || last.reason != ReasonDrag {
		t.Errorf("transition = %+v, want close with reason drag", last)
	}
	if surface.flags[host.FlagDragging] {
		t.Error("dragging flag left set after commit")
	}
	if owner, p := env.coord.DragProgress(); owner != 0 || p != 0 {
		t.Errorf("drag progress not cleared: owner=%d progress=%v", owner, p)
	}

	// The commit slide runs the panel fully off-screen.
	env.sched.settleAnimations()
	if surface.translateY != surface.height {
		t.Errorf("final translate = %v, want %v", surface.translateY, surface.height)
	}
}

func TestDragCommitSlidesFromOffsetWithoutRestSnap(t *testing.T) {
	env := newTestEnv()
	s, surface := env.newSheet(t, nil)

	s.Open()
	s.TouchStart(touch(0))
	s.TouchMove(touch(200))

	mark := len(surface.translates)
	s.TouchEnd()
	env.sched.settleAnimations()

	// The panel must travel from the 200px drag offset to fully
	// off-surface; an intermediate snap back to rest is a visual glitch.
	release := surface.translates[mark:]
	if len(release) == 0 {
		t.Fatal("commit produced no transform writes")
	}
	for i, y := range release {
		if y < 200 {
			t.Fatalf("transform write %d = %v, want >= the 200px drag offset (sequence %v)", i, y, release)
		}
	}
	if got := release[len(release)-1]; got != surface.height {
		t.Errorf("final transform = %v, want fully off-surface at %v", got, surface.height)
	}
}

func TestDragCommitPromotesCoveredSheetWithoutBounce(t *testing.T) {
	env := newTestEnv()
	a, surfA := env.newSheet(t, nil)
	b, _ := env.newSheet(t, nil)

	a.Open()
	b.Open()

	b.TouchStart(touch(0))
	b.TouchMove(touch(200)) // progress 200/600, covered sheet partway promoted

	mark := len(surfA.varLog)
	b.TouchEnd()

	if b.IsOpen() || !a.IsTop() {
		t.Fatal("commit did not close the top sheet")
	}
	// The covered sheet must go straight to depth 0; returning to its full
	// resting depth mid-dismissal is the bounce.
	for _, entry := range surfA.varLog[mark:] {
		if entry == host.VarStackOffset+"=10px" {
			t.Fatalf("covered sheet bounced to full depth during commit: %v", surfA.varLog[mark:])
		}
	}
	if got := surfA.vars[host.VarStackOffset]; got != "0px" {
		t.Errorf("covered sheet offset var = %q, want \"0px\" after promotion", got)
	}
}

func TestDragLeavesBackdropAloneWhenHidden(t *testing.T) {
	env := newTestEnv()
	s, surface := env.newSheet(t, func(o *Options) {
		o.ShowBackdrop = boolPtr(false)
	})

	s.Open()
	s.TouchStart(touch(0))
	s.TouchMove(touch(100))
	if surface.backdrop != 0 {
		t.Errorf("backdrop = %v during drag, want untouched at 0", surface.backdrop)
	}

	s.TouchEnd() // snap back
	if surface.backdrop != 0 {
		t.Errorf("backdrop = %v after snap-back, want untouched at 0", surface.backdrop)
	}

	s.TouchStart(touch(0))
	s.TouchMove(touch(90))
	s.TouchCancel()
	if surface.backdrop != 0 {
		t.Errorf("backdrop = %v after cancel, want untouched at 0", surface.backdrop)
	}
}

func TestDragBelowThresholdSnapsBack(t *testing.T) {
	env := newTestEnv()
	s, surface := env.newSheet(t, nil)

	s.Open()
	s.TouchStart(touch(0))
	s.TouchMove(touch(100))
	s.TouchEnd()

	if !s.IsOpen() {
		t.Fatal("drag below the threshold must not close")
	}
	if surface.backdrop != 1 {
		t.Errorf("backdrop = %v, want restored to 1", surface.backdrop)
	}
	env.sched.settleAnimations()
	if surface.translateY != 0 {
		t.Errorf("translate after snap-back = %v, want 0", surface.translateY)
	}
	if owner, _ := env.coord.DragProgress(); owner != 0 {
		t.Error("drag progress owner left set after snap-back")
	}
}

func TestDragFallbackExtentWhenUnmeasurable(t *testing.T) {
	env := newTestEnv()
	s, surface := env.newSheet(t, nil)
	surface.height = 0

	s.Open()
	s.TouchStart(touch(0))
	s.TouchMove(touch(75))

	if _, p := env.coord.DragProgress(); p != 0.15 {
		t.Errorf("progress = %v, want 75/500 against the fallback extent", p)
	}
}

func TestDragStartRefusals(t *testing.T) {
	tests := []struct {
		name  string
		point TouchPoint
	}{
		{"multiTouch", TouchPoint{Touches: 2, Y: 0}},
		{"interactiveTarget", TouchPoint{Touches: 1, Target: TargetInfo{Interactive: true}}},
		{"scrolledRegion", TouchPoint{Touches: 1, Target: TargetInfo{ScrolledRegion: true}}},
		{"blockedZone", TouchPoint{Touches: 1, Target: TargetInfo{DragBlocked: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			s, surface := env.newSheet(t, nil)
			s.Open()

			s.TouchStart(tt.point)
			s.TouchMove(touch(200))
			s.TouchEnd()

			if !s.IsOpen() {
				t.Error("refused gesture still dismissed the sheet")
			}
			if surface.flags[host.FlagDragging] {
				t.Error("refused gesture set the dragging flag")
			}
		})
	}
}

func TestDragRefusedOnCoveredSheet(t *testing.T) {
	env := newTestEnv()
	a, surfA := env.newSheet(t, nil)
	b, _ := env.newSheet(t, nil)

	a.Open()
	b.Open()

	a.TouchStart(touch(0))
	a.TouchMove(touch(300))
	a.TouchEnd()

	if !a.IsOpen() {
		t.Error("covered sheet dismissed by drag")
	}
	if surfA.flags[host.FlagDragging] {
		t.Error("covered sheet entered dragging")
	}
}

func TestDragRefusedWhenNonDismissible(t *testing.T) {
	env := newTestEnv()
	s, surface := env.newSheet(t, func(o *Options) {
		o.Dismissible = boolPtr(false)
	})

	s.Open()
	s.TouchStart(touch(0))
	s.TouchMove(touch(300))
	s.TouchEnd()

	if !s.IsOpen() {
		t.Error("non-dismissible sheet dismissed by drag")
	}
	if surface.flags[host.FlagDragging] {
		t.Error("non-dismissible sheet entered dragging")
	}
}

func TestDragUpwardMovementIgnored(t *testing.T) {
	env := newTestEnv()
	s, surface := env.newSheet(t, nil)

	s.Open()
	s.TouchStart(touch(100))
	s.TouchMove(touch(60))

	if surface.flags[host.FlagDragging] {
		t.Error("upward movement before dragging must read as scroll intent")
	}

	// Downward movement afterwards still starts the drag.
	s.TouchMove(touch(130))
	if !surface.flags[host.FlagDragging] {
		t.Error("downward movement did not start the drag")
	}
	if surface.translateY != 30 {
		t.Errorf("translate = %v, want 30", surface.translateY)
	}
}

func TestSecondFingerCancelsDrag(t *testing.T) {
	env := newTestEnv()
	s, surface := env.newSheet(t, nil)

	s.Open()
	s.TouchStart(touch(0))
	s.TouchMove(touch(80))
	s.TouchMove(TouchPoint{Touches: 2, Y: 120})

	if !s.IsOpen() {
		t.Fatal("cancelled gesture dismissed the sheet")
	}
	if surface.translateY != 0 {
		t.Errorf("translate = %v, want restored to 0", surface.translateY)
	}
	if surface.flags[host.FlagDragging] {
		t.Error("dragging flag left set after cancel")
	}
	if owner, _ := env.coord.DragProgress(); owner != 0 {
		t.Error("drag progress owner left set after cancel")
	}
}

func TestTouchCancelRestoresRest(t *testing.T) {
	env := newTestEnv()
	s, surface := env.newSheet(t, nil)

	s.Open()
	s.TouchStart(touch(0))
	s.TouchMove(touch(90))
	s.TouchCancel()

	if !s.IsOpen() {
		t.Error("cancelled gesture dismissed the sheet")
	}
	if surface.translateY != 0 || surface.backdrop != 1 {
		t.Errorf("rest state not restored: translate=%v backdrop=%v", surface.translateY, surface.backdrop)
	}
}

func TestDestroyMidDragClearsProgress(t *testing.T) {
	env := newTestEnv()
	a, surfA := env.newSheet(t, nil)
	b, _ := env.newSheet(t, nil)

	a.Open()
	b.Open()
	b.TouchStart(touch(0))
	b.TouchMove(touch(75))

	b.Destroy()

	if owner, p := env.coord.DragProgress(); owner != 0 || p != 0 {
		t.Errorf("destroy left drag progress: owner=%d progress=%v", owner, p)
	}
	if surfA.flags[host.FlagStackDragging] {
		t.Error("covered sheet still flagged stack-dragging after destroy")
	}
	if got := surfA.vars[host.VarStackOffset]; got != "0px" {
		t.Errorf("covered sheet offset var = %q, want \"0px\" once promoted", got)
	}
}
