package probe

import (
	"context"

	"github.com/benjoco/sitescope/internal/domain"
)

// Result is the unified outcome of a single probe. HTTPCode is 0 for
// transport-level failures (DNS, connect, timeout).
type Result struct {
	Status    domain.Status
	HTTPCode  int
	LatencyMS float64
	Reason    string
}

// Checker performs one bounded reachability check against a target URL.
// Implementations never return an error; every failure mode collapses
// into a DOWN result with a reason.
type Checker interface {
	Check(ctx context.Context, target string) Result
}
