// Package tokens persists the encrypted calendar refresh token on the
// user's row. Only the encrypted form ever reaches this package.
package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the stored encrypted token. ok is false when the user never
// granted calendar access.
func (s *Store) Get(ctx context.Context, userID int) (string, bool, error) {
	var token sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT google_refresh_token
		FROM users
		WHERE id = $1
	`, userID).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get calendar token: %w", err)
	}
	if !token.Valid || token.String == "" {
		return "", false, nil
	}
	return token.String, true, nil
}

func (s *Store) Put(ctx context.Context, userID int, encrypted string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET google_refresh_token = $1
		WHERE id = $2
	`, encrypted, userID)
	if err != nil {
		return fmt.Errorf("save calendar token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("save calendar token: user %d not found", userID)
	}
	return nil
}
