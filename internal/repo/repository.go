package repo

import (
	"context"
	"time"

	"github.com/benjoco/sitescope/internal/domain"
)

// Ports (interfaces) — swap in any DB adapter later.

// SiteStore owns the monitored-site rows. Status writes against a site
// that was deleted in the meantime are no-ops, never errors.
type SiteStore interface {
	// Add upserts by (user, url): registering an existing URL updates
	// the per-site alert emails instead of failing. Fills ID/CreatedAt.
	Add(ctx context.Context, s *domain.Site) error
	Get(ctx context.Context, id domain.SiteID) (*domain.Site, error)
	// GetByURL returns nil, nil when the user has no such site.
	GetByURL(ctx context.Context, user domain.UserID, url string) (*domain.Site, error)
	ListAll(ctx context.Context) ([]domain.Site, error)
	ListByUser(ctx context.Context, user domain.UserID) ([]domain.Site, error)
	SetStatus(ctx context.Context, id domain.SiteID, st domain.Status, checkedAt time.Time) error
	// Delete removes the site and cascades to its log entries.
	// Returns false when nothing matched.
	Delete(ctx context.Context, id domain.SiteID, user domain.UserID) (bool, error)
}

// LogStore appends immutable status history. Append against a deleted
// site is a no-op.
type LogStore interface {
	Append(ctx context.Context, e *domain.StatusLogEntry) error
	// ListBySite returns entries newest first.
	ListBySite(ctx context.Context, id domain.SiteID, limit int) ([]domain.StatusLogEntry, error)
}

// TokenStore holds push-registration tokens per user. SaveToken
// upserts by token (a device token moving between accounts follows
// the account).
type TokenStore interface {
	SaveToken(ctx context.Context, user domain.UserID, token string) error
	TokensByUser(ctx context.Context, user domain.UserID) ([]string, error)
	DeleteToken(ctx context.Context, token string) error
}

// UserStore exposes the slice of account data the dispatcher needs.
type UserStore interface {
	// AlertProfile returns nil, nil for an unknown user.
	AlertProfile(ctx context.Context, user domain.UserID) (*domain.AlertProfile, error)
}
