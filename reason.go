package sheet

// Reason identifies which dismissal path changed the open flag. It is
// transient: reported through OnOpenChange for one transition and reset
// afterwards.
type Reason string

const (
	// ReasonAPI - programmatic open/close, and the default whenever the
	// open flag changed without passing through a dismissal path.
	ReasonAPI Reason = "api"

	// ReasonDrag - drag-to-dismiss gesture committed.
	ReasonDrag Reason = "drag"

	// ReasonBackdrop - tap on the backdrop.
	ReasonBackdrop Reason = "backdrop"

	// ReasonEscape - escape key.
	ReasonEscape Reason = "escape"

	// ReasonCloseButton - the built-in close button.
	ReasonCloseButton Reason = "close-button"
)
