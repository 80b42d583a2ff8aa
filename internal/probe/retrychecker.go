package probe

import (
	"context"
	"time"

	"github.com/benjoco/sitescope/internal/domain"
)

// RetryChecker re-probes a DOWN verdict before reporting it, to avoid
// flapping alerts on a single dropped connection. The verdict stays
// binary; retries only tighten false DOWNs.
type RetryChecker struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

func (r *RetryChecker) Check(ctx context.Context, target string) Result {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last Result
	for i := 0; i < attempts; i++ {
		last = r.Inner.Check(ctx, target)
		if last.Status == domain.StatusUp {
			return last
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return last
			case <-time.After(r.Backoff):
			}
		}
	}
	if attempts > 1 {
		last.Reason = last.Reason + " (after retries)"
	}
	return last
}
