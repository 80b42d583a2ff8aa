package monitor

import "github.com/benjoco/sitescope/internal/domain"

// Classification of a fresh probe result against the previously
// recorded status.
type Classification int

const (
	// FirstObservation: the site had never been probed (UNKNOWN).
	FirstObservation Classification = iota
	// Unchanged: same status as before; never alert-worthy.
	Unchanged
	// Flipped: a transition between two known statuses.
	Flipped
)

func (c Classification) String() string {
	switch c {
	case FirstObservation:
		return "first_observation"
	case Flipped:
		return "flipped"
	default:
		return "unchanged"
	}
}

// Classify compares the stored status with the fresh probe verdict.
// The previous value must be read before the fresh one is persisted.
func Classify(prev, fresh domain.Status) Classification {
	switch {
	case prev == domain.StatusUnknown || prev == "":
		return FirstObservation
	case prev == fresh:
		return Unchanged
	default:
		return Flipped
	}
}
