// Package stack coordinates every simultaneously open sheet instance on one
// surface. The Coordinator owns the only cross-instance shared state in the
// system: a participant registry, a monotonic open-order source, and the
// single global drag-progress scalar. All cross-instance effects flow
// through snapshot application; participants never see each other.
package stack

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// ParticipantID identifies a registered participant. IDs are claimed once at
// instance creation and never reused. The zero value is reserved.
type ParticipantID uint64

// OpenOrder is a strictly increasing integer claimed at each open
// transition. Greater means more recently opened.
type OpenOrder uint64

// Snapshot is the freshly derived visual state handed to one open
// participant on every coordinator pass. Snapshots are values: never owned
// across recomputations, never diffed.
type Snapshot struct {
	// DepthFromTop is 0 for the top-most open instance, counting up toward
	// the oldest.
	DepthFromTop int

	// VisualDepth is DepthFromTop adjusted by the live drag progress,
	// never negative. As the top sheet drags toward dismissal, the sheet
	// below animates from depth 1 toward depth 0.
	VisualDepth float64

	// Layer is the participant's position in open order (0 = oldest).
	Layer int

	// OpenCount is the number of currently open participants.
	OpenCount int

	// IsTop is true for the single top-most open participant.
	IsTop bool

	// Dragging is true while any participant owns drag progress.
	Dragging bool
}

// Participant is the projection of one sheet instance registered with the
// coordinator: a stable identity plus callbacks into the instance.
type Participant struct {
	// ID is the participant's stable identity.
	ID ParticipantID

	// OpenOrder reads the instance's current open-order number.
	OpenOrder func() OpenOrder

	// IsOpen reads the instance's current open state.
	IsOpen func() bool

	// Apply receives a computed snapshot, or nil when the instance is not
	// currently part of the visible stack.
	Apply func(*Snapshot)
}

// Coordinator is the process-wide registry of live sheet instances.
// Construct one per surface (or per test) and hand a reference to each
// instance at construction; it must not be ambient global state.
type Coordinator struct {
	mu           sync.Mutex
	participants map[ParticipantID]Participant

	nextID    atomic.Uint64
	nextOrder atomic.Uint64

	// Global drag state: at most one owner at a time.
	dragOwner    ParticipantID
	dragProgress float64

	log *slog.Logger
}

// New creates an empty coordinator. logger may be nil.
func New(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		participants: make(map[ParticipantID]Participant),
		log:          logger,
	}
}

// ClaimParticipantID returns a fresh, never-reused identifier.
func (c *Coordinator) ClaimParticipantID() ParticipantID {
	return ParticipantID(c.nextID.Add(1))
}

// ClaimOpenOrder returns a fresh, strictly increasing open-order number.
// Claimed once per open transition, so re-opening a previously closed
// instance moves it to the top of the stack.
func (c *Coordinator) ClaimOpenOrder() OpenOrder {
	return OpenOrder(c.nextOrder.Add(1))
}

// Register adds a participant and recomputes the stack. Registering the same
// id twice replaces the prior entry.
func (c *Coordinator) Register(p Participant) {
	c.mu.Lock()
	c.participants[p.ID] = p
	c.mu.Unlock()
	c.log.Debug("stack participant registered", "id", uint64(p.ID))
	c.Sync()
}

// Unregister removes a participant and recomputes the stack. Repeated
// unregister and unknown ids are no-ops.
func (c *Coordinator) Unregister(id ParticipantID) {
	c.mu.Lock()
	_, known := c.participants[id]
	if known {
		delete(c.participants, id)
	}
	c.mu.Unlock()
	if known {
		c.log.Debug("stack participant unregistered", "id", uint64(id))
		c.Sync()
	}
}

// IsTop reports whether id is the open participant with the greatest
// open-order. False when id is unknown or no participant is open.
func (c *Coordinator) IsTop(id ParticipantID) bool {
	open := c.openParticipants()
	if len(open) == 0 {
		return false
	}
	return open[len(open)-1].ID == id
}

// OpenCount returns the number of currently open participants.
func (c *Coordinator) OpenCount() int {
	return len(c.openParticipants())
}

// SetDragProgress stores the live drag progress for id, clamped to [0,1],
// and recomputes the stack. Identical (id, progress) pairs are no-ops.
func (c *Coordinator) SetDragProgress(id ParticipantID, progress float64) {
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}

	c.mu.Lock()
	if c.dragOwner == id && c.dragProgress == progress {
		c.mu.Unlock()
		return
	}
	c.dragOwner = id
	c.dragProgress = progress
	c.mu.Unlock()

	c.Sync()
}

// ClearDragProgress resets the global drag state to (no owner, 0). With a
// non-zero id the reset only happens if id matches the current owner;
// mismatches are routine races (instance destroyed mid-gesture) and are
// ignored. Sync runs only on an actual change.
func (c *Coordinator) ClearDragProgress(id ParticipantID) {
	c.mu.Lock()
	if c.dragOwner == 0 || (id != 0 && id != c.dragOwner) {
		c.mu.Unlock()
		return
	}
	c.dragOwner = 0
	c.dragProgress = 0
	c.mu.Unlock()

	c.Sync()
}

// DragProgress returns the current drag owner and progress. Zero owner means
// no active drag.
func (c *Coordinator) DragProgress() (ParticipantID, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragOwner, c.dragProgress
}

// Sync recomputes snapshots for all participants and applies them. Open
// participants are ordered by open-order ascending; layer is the position in
// that order (0 = oldest) and depth-from-top counts down from the newest.
// The live drag progress pulls every participant strictly below the top
// toward the position the top sheet is about to vacate. Registered-but-not-
// open participants receive nil. No callback is invoked more than once per
// pass.
func (c *Coordinator) Sync() {
	c.mu.Lock()
	all := make([]Participant, 0, len(c.participants))
	for _, p := range c.participants {
		all = append(all, p)
	}
	dragOwner := c.dragOwner
	progress := c.dragProgress
	c.mu.Unlock()

	open := make([]Participant, 0, len(all))
	closed := make([]Participant, 0, len(all))
	for _, p := range all {
		if p.IsOpen != nil && p.IsOpen() {
			open = append(open, p)
		} else {
			closed = append(closed, p)
		}
	}
	sortByOpenOrder(open)

	count := len(open)
	dragging := dragOwner != 0
	for i, p := range open {
		depth := count - 1 - i
		visual := float64(depth)
		if dragging && depth > 0 {
			visual -= progress
			if visual < 0 {
				visual = 0
			}
		}
		snap := &Snapshot{
			DepthFromTop: depth,
			VisualDepth:  visual,
			Layer:        i,
			OpenCount:    count,
			IsTop:        depth == 0,
			Dragging:     dragging,
		}
		if p.Apply != nil {
			p.Apply(snap)
		}
	}
	for _, p := range closed {
		if p.Apply != nil {
			p.Apply(nil)
		}
	}
}

// openParticipants returns the currently open participants sorted by
// open-order ascending.
func (c *Coordinator) openParticipants() []Participant {
	c.mu.Lock()
	all := make([]Participant, 0, len(c.participants))
	for _, p := range c.participants {
		all = append(all, p)
	}
	c.mu.Unlock()

	open := all[:0]
	for _, p := range all {
		if p.IsOpen != nil && p.IsOpen() {
			open = append(open, p)
		}
	}
	sortByOpenOrder(open)
	return open
}

func sortByOpenOrder(ps []Participant) {
	sort.Slice(ps, func(i, j int) bool {
		return ps[i].OpenOrder() < ps[j].OpenOrder()
	})
}
