package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/benjoco/sitescope/internal/domain"
	"github.com/benjoco/sitescope/internal/repo"
)

var _ repo.SiteStore = (*Store)(nil)
var _ repo.LogStore = (*Store)(nil)
var _ repo.TokenStore = (*Store)(nil)
var _ repo.UserStore = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the tables the monitoring core reads and writes.
// Account/auth tables are owned by the bootstrap service; users is
// created here only so AlertProfile has something to join against in
// a fresh database.
func (s *Store) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL,
	alert_emails  JSONB NOT NULL DEFAULT '[]'::jsonb
);
CREATE TABLE IF NOT EXISTS sites (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	url           TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'UNKNOWN',
	last_checked  TIMESTAMPTZ,
	alert_emails  JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, url)
);
CREATE TABLE IF NOT EXISTS site_logs (
	id          BIGSERIAL PRIMARY KEY,
	site_id     TEXT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
	status      TEXT NOT NULL,
	http_code   INT,
	checked_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS site_logs_site_checked ON site_logs (site_id, checked_at DESC);
CREATE TABLE IF NOT EXISTS user_tokens (
	token    TEXT PRIMARY KEY,
	user_id  TEXT NOT NULL
);
`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// ---- SiteStore ----

func (s *Store) Add(ctx context.Context, site *domain.Site) error {
	if site.ID == "" {
		site.ID = domain.SiteID(makeID())
	}
	if site.CreatedAt.IsZero() {
		site.CreatedAt = time.Now().UTC()
	}
	if site.Status == "" {
		site.Status = domain.StatusUnknown
	}
	emails := site.AlertEmails
	if emails == nil {
		emails = []string{}
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO sites (id, user_id, url, status, alert_emails, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, url)
		 DO UPDATE SET alert_emails = EXCLUDED.alert_emails
		 RETURNING id, status, created_at`,
		string(site.ID), string(site.UserID), site.URL, string(site.Status), emails, site.CreatedAt,
	)
	var id, status string
	var createdAt time.Time
	if err := row.Scan(&id, &status, &createdAt); err != nil {
		return fmt.Errorf("upsert site: %w", err)
	}
	site.ID = domain.SiteID(id)
	site.Status = domain.Status(status)
	site.CreatedAt = createdAt
	return nil
}

const siteColumns = `id, user_id, url, status, last_checked, alert_emails, created_at`

func (s *Store) Get(ctx context.Context, id domain.SiteID) (*domain.Site, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id = $1`, string(id))
	site, err := scanSite(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get site: %w", err)
	}
	return site, nil
}

func (s *Store) GetByURL(ctx context.Context, user domain.UserID, url string) (*domain.Site, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE user_id = $1 AND url = $2`,
		string(user), url)
	site, err := scanSite(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get site by url: %w", err)
	}
	return site, nil
}

func (s *Store) ListAll(ctx context.Context) ([]domain.Site, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+siteColumns+` FROM sites ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()
	return collectSites(rows)
}

func (s *Store) ListByUser(ctx context.Context, user domain.UserID) ([]domain.Site, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE user_id = $1 ORDER BY created_at ASC, id ASC`,
		string(user))
	if err != nil {
		return nil, fmt.Errorf("list sites by user: %w", err)
	}
	defer rows.Close()
	return collectSites(rows)
}

func (s *Store) SetStatus(ctx context.Context, id domain.SiteID, st domain.Status, checkedAt time.Time) error {
	// zero rows means the site was deleted mid-cycle: fine
	_, err := s.pool.Exec(ctx,
		`UPDATE sites SET status = $1, last_checked = $2 WHERE id = $3`,
		string(st), checkedAt, string(id))
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id domain.SiteID, user domain.UserID) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sites WHERE id = $1 AND user_id = $2`,
		string(id), string(user))
	if err != nil {
		return false, fmt.Errorf("delete site: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (*domain.Site, error) {
	var (
		id, userID, url, status string
		lastChecked             *time.Time
		emails                  []string
		createdAt               time.Time
	)
	if err := row.Scan(&id, &userID, &url, &status, &lastChecked, &emails, &createdAt); err != nil {
		return nil, err
	}
	site := &domain.Site{
		ID:          domain.SiteID(id),
		UserID:      domain.UserID(userID),
		URL:         url,
		Status:      domain.Status(status),
		AlertEmails: emails,
		CreatedAt:   createdAt,
	}
	if lastChecked != nil {
		site.LastChecked = *lastChecked
	}
	return site, nil
}

func collectSites(rows pgx.Rows) ([]domain.Site, error) {
	var out []domain.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		out = append(out, *site)
	}
	return out, rows.Err()
}

// ID format matches the memory store: 20060102Thhmmss.nnnnnnnnn
func makeID() string {
	now := time.Now().UTC()
	return now.Format("20060102T150405.") + fmt.Sprintf("%09d", now.Nanosecond())
}
