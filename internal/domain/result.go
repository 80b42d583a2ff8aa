package domain

import "time"

// ProbeResult is the outcome of a single reachability check.
// HTTPCode is 0 when the request never produced a response
// (transport error, DNS failure, timeout).
type ProbeResult struct {
	SiteID    SiteID    `json:"site_id"`
	Status    Status    `json:"status"`
	HTTPCode  int       `json:"http_code,omitempty"`
	LatencyMS float64   `json:"latency_ms"`
	Reason    string    `json:"reason,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// HTTPCodePtr returns the observed HTTP code as a nullable value
// for the status log.
func (r ProbeResult) HTTPCodePtr() *int {
	if r.HTTPCode == 0 {
		return nil
	}
	c := r.HTTPCode
	return &c
}
