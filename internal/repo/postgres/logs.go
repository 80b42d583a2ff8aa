package postgres

import (
	"context"
	"fmt"

	"github.com/benjoco/sitescope/internal/domain"
)

// ---- LogStore ----

// Append inserts one history record. When the site was deleted between
// the probe and this write, the guarded insert hits zero rows and the
// entry is silently dropped.
func (s *Store) Append(ctx context.Context, e *domain.StatusLogEntry) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO site_logs (site_id, status, http_code, checked_at)
		 SELECT $1, $2, $3, $4
		  WHERE EXISTS (SELECT 1 FROM sites WHERE id = $1)
		 RETURNING id`,
		string(e.SiteID), string(e.Status), e.HTTPCode, e.CheckedAt,
	)
	if err := row.Scan(&e.ID); err != nil {
		if isNoRows(err) {
			return nil // site deleted mid-cycle
		}
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

func (s *Store) ListBySite(ctx context.Context, id domain.SiteID, limit int) ([]domain.StatusLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, site_id, status, http_code, checked_at
		   FROM site_logs
		  WHERE site_id = $1
		  ORDER BY checked_at DESC, id DESC
		  LIMIT $2`,
		string(id), limit)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var out []domain.StatusLogEntry
	for rows.Next() {
		var (
			e      domain.StatusLogEntry
			siteID string
			status string
		)
		if err := rows.Scan(&e.ID, &siteID, &status, &e.HTTPCode, &e.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		e.SiteID = domain.SiteID(siteID)
		e.Status = domain.Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}
