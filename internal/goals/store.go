package goals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the goal owned by userID. ok is false when no such goal exists.
func (s *Store) Get(ctx context.Context, userID int, goalID string) (Goal, bool, error) {
	if _, err := uuid.Parse(goalID); err != nil {
		// not a goal id we could have issued
		return Goal{}, false, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, avatar, created_at
		FROM goals
		WHERE user_id = $1 AND id = $2
	`, userID, goalID)

	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Goal{}, false, nil
	}
	if err != nil {
		return Goal{}, false, fmt.Errorf("get goal: %w", err)
	}
	return g, true, nil
}

func (s *Store) List(ctx context.Context, userID int) ([]Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, description, avatar, created_at
		FROM goals
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := []Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, userID int, in CreateInput) (Goal, error) {
	g := Goal{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: trimmedOrNil(in.Description),
		Avatar:      trimmedOrNil(in.Avatar),
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO goals (id, user_id, name, description, avatar)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, g.ID, g.UserID, g.Name, g.Description, g.Avatar).Scan(&g.CreatedAt)
	if err != nil {
		return Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGoal(s scanner) (Goal, error) {
	var (
		g           Goal
		desc, avatr sql.NullString
	)
	if err := s.Scan(&g.ID, &g.UserID, &g.Name, &desc, &avatr, &g.CreatedAt); err != nil {
		return Goal{}, err
	}
	if desc.Valid {
		g.Description = &desc.String
	}
	if avatr.Valid {
		g.Avatar = &avatr.String
	}
	return g, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
