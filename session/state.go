package session

import "github.com/pkg/errors"

// State is where a Session is in the region editing flow.
type State int

// The states a Session moves through. Detection (or a manual region) leads from StateIdle to
// StateRegionsDetected; selecting leads to StateRegionSelected, from which a corner edit may begin.
// Confirming or canceling the edit returns to StateRegionsDetected.
const (
	StateIdle State = iota
	StateRegionsDetected
	StateRegionSelected
	StateCornerEditing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRegionsDetected:
		return "regions_detected"
	case StateRegionSelected:
		return "region_selected"
	case StateCornerEditing:
		return "corner_editing"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidState is returned when an operation is not allowed in the current state.
	ErrInvalidState = errors.New("operation not allowed in current state")
	// ErrUnknownRegion is returned for a region ID the session does not hold.
	ErrUnknownRegion = errors.New("unknown region")
	// ErrDuplicateRegion is returned when a manual region mostly overlaps an existing one.
	ErrDuplicateRegion = errors.New("region overlaps an existing region")
	// ErrSessionNotFound is returned by a Manager for missing or expired sessions.
	ErrSessionNotFound = errors.New("session not found")
)

func invalidState(op string, s State) error {
	return errors.Wrapf(ErrInvalidState, "cannot %s while %s", op, s)
}
