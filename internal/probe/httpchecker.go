package probe

import (
	"context"
	"net/http"
	"time"

	"github.com/benjoco/sitescope/internal/domain"
)

// HTTPChecker probes a URL with a single GET. Any response below 400
// counts as UP (redirects are followed by the client first, so a 3xx
// here means a redirect loop stopped early and the endpoint is still
// answering). Everything else, including transport errors, is DOWN.
type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPChecker{
		Client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTPChecker) Check(ctx context.Context, target string) Result {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{Status: domain.StatusDown, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", "SiteScope/1.0")

	resp, err := h.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return Result{Status: domain.StatusDown, Reason: err.Error(), LatencyMS: latency}
	}
	defer resp.Body.Close()

	st := domain.StatusDown
	if resp.StatusCode < 400 {
		st = domain.StatusUp
	}
	return Result{
		Status:    st,
		HTTPCode:  resp.StatusCode,
		LatencyMS: latency,
		Reason:    resp.Status,
	}
}
