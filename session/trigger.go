package session

import (
	"time"

	"github.com/bep/debounce"
)

// NewDebouncedTrigger returns an OnChange callback that runs f once changes have stopped arriving
// for after. Dragging a corner fires a change per pointer move; this collapses them into one
// regeneration.
func NewDebouncedTrigger(after time.Duration, f func()) func() {
	debounced := debounce.New(after)
	return func() {
		debounced(f)
	}
}
