package domain

import "time"

type SiteID string

type UserID string

// Status is the last-known availability of a monitored site.
type Status string

const (
	StatusUnknown Status = "UNKNOWN"
	StatusUp      Status = "UP"
	StatusDown    Status = "DOWN"
)

// MaxAlertEmails caps the resolved recipient set for one alert,
// primary address included.
const MaxAlertEmails = 5

// Site is a monitored endpoint owned by a user. URL is stored in
// normalized form (see urlutil.Normalize).
type Site struct {
	ID          SiteID    `json:"id"`
	UserID      UserID    `json:"user_id"`
	URL         string    `json:"url"`
	Status      Status    `json:"status"`
	LastChecked time.Time `json:"last_checked"`
	AlertEmails []string  `json:"alert_emails,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// StatusLogEntry is one append-only history record per probe.
type StatusLogEntry struct {
	ID        int64     `json:"id"`
	SiteID    SiteID    `json:"site_id"`
	Status    Status    `json:"status"`
	HTTPCode  *int      `json:"http_code"` // nil when the probe never got a response
	CheckedAt time.Time `json:"checked_at"`
}

// AlertProfile is what the dispatcher needs to know about a user:
// where alert emails go beyond the per-site list.
type AlertProfile struct {
	UserID       UserID   `json:"user_id"`
	PrimaryEmail string   `json:"primary_email"`
	ExtraEmails  []string `json:"extra_emails,omitempty"`
}
