// Package keychain stores douban credentials (one cookie per user id)
// in sqlite. Cookies cannot be refreshed programmatically, so unlike a
// token store there is no expiry daemon: a dead cookie is only
// discovered when validation or a sync fails.
package keychain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"doubansync-backend/lib/scrapers/douban/core"
	"doubansync-backend/lib/timezone"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a user has no stored credential.
var ErrNotFound = errors.New("credential not found")

type Service struct {
	db *sql.DB
}

func NewService(database *sql.DB) Service {
	return Service{db: database}
}

func (s Service) SetCredential(ctx context.Context, userID string, cred core.Credential) error {
	now := timezone.Now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credential (user_id, cookie, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			cookie = excluded.cookie,
			updated_at = excluded.updated_at
	`, userID, cred.Cookie, now, now)
	if err != nil {
		return fmt.Errorf("set credential: %w", err)
	}
	return nil
}

func (s Service) GetCredential(ctx context.Context, userID string) (core.Credential, error) {
	var cookie string
	err := s.db.QueryRowContext(ctx, `
		SELECT cookie FROM credential WHERE user_id = ?
	`, userID).Scan(&cookie)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Credential{}, ErrNotFound
	}
	if err != nil {
		return core.Credential{}, fmt.Errorf("get credential: %w", err)
	}
	return core.Credential{Cookie: cookie}, nil
}

func (s Service) DeleteCredential(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM credential WHERE user_id = ?
	`, userID)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

func (s Service) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM credential ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		users = append(users, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows user ids: %w", err)
	}
	return users, nil
}
