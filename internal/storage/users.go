package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/zerbin/internal/common"
	"github.com/Veraticus/zerbin/internal/model"
)

// CreateUser inserts a user with a zero balance. Points only enter
// through CreditPoints.
func (s *SQLiteStorage) CreateUser(ctx context.Context, user *model.User) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateUser(user); err != nil {
		return err
	}
	return s.createUserTx(ctx, s.db, user)
}

func (s *SQLiteStorage) createUserTx(ctx context.Context, q queryable, user *model.User) error {
	if user.Role == "" {
		user.Role = model.RoleCitizen
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Points = 0

	result, err := q.ExecContext(ctx, `
		INSERT INTO users (username, email, role, points, created_at)
		VALUES (?, ?, ?, 0, ?)
	`, user.Username, user.Email, string(user.Role), user.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create user: %w", classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user ID: %w", err)
	}
	user.ID = id
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStorage) GetUser(ctx context.Context, id int64) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getUserTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getUserTx(ctx context.Context, q queryable, id int64) (*model.User, error) {
	var user model.User
	var role string
	err := q.QueryRowContext(ctx, `
		SELECT id, username, email, role, points, created_at
		FROM users
		WHERE id = ?
	`, id).Scan(&user.ID, &user.Username, &user.Email, &role, &user.Points, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("user %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", classify(err))
	}
	user.Role = model.Role(role)
	return &user, nil
}

// ListUsers retrieves all users ordered by ID.
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listUsersTx(ctx, s.db)
}

func (s *SQLiteStorage) listUsersTx(ctx context.Context, q queryable) ([]model.User, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, username, email, role, points, created_at
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		var user model.User
		var role string
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &role, &user.Points, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Role = model.Role(role)
		users = append(users, user)
	}
	return users, rows.Err()
}
