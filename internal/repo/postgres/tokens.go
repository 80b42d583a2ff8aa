package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/benjoco/sitescope/internal/domain"
)

// ---- TokenStore ----

func (s *Store) SaveToken(ctx context.Context, user domain.UserID, token string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_tokens (user_id, token)
		 VALUES ($1, $2)
		 ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id`,
		string(user), token)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *Store) TokensByUser(ctx context.Context, user domain.UserID) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT token FROM user_tokens WHERE user_id = $1 ORDER BY token`,
		string(user))
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) DeleteToken(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM user_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// ---- UserStore ----

func (s *Store) AlertProfile(ctx context.Context, user domain.UserID) (*domain.AlertProfile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT email, alert_emails FROM users WHERE id = $1`, string(user))
	p := &domain.AlertProfile{UserID: user}
	if err := row.Scan(&p.PrimaryEmail, &p.ExtraEmails); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("alert profile: %w", err)
	}
	return p, nil
}

func isNoRows(err error) bool {
	return err == pgx.ErrNoRows
}
