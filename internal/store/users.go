// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/askroom/askroom/internal/models"
)

// CreateUser inserts a new account. The password must already be
// hashed. Returns ErrDuplicateUsername when the username is taken.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string, isAdmin bool) (*models.User, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)`, username).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, ErrDuplicateUsername
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (username, password, is_admin) VALUES (?, ?, ?) RETURNING id`,
		username, passwordHash, isAdmin).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user: %w", err)
	}

	return &models.User{ID: id, Username: username, Password: passwordHash, IsAdmin: isAdmin}, nil
}

// GetUserByID fetches a user by primary key. Returns ErrUserNotFound
// when no row matches.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.scanUser(s.conn.QueryRowContext(ctx,
		`SELECT id, username, password, is_admin FROM users WHERE id = ?`, id))
}

// GetUserByUsername fetches a user by username. Returns
// ErrUserNotFound when no row matches.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.scanUser(s.conn.QueryRowContext(ctx,
		`SELECT id, username, password, is_admin FROM users WHERE username = ?`, username))
}

// FirstAdmin returns the admin account with the lowest id. New
// conversations are assigned to this account. Returns
// ErrNoAdminAvailable when no admin exists.
func (s *Store) FirstAdmin(ctx context.Context) (*models.User, error) {
	u, err := s.scanUser(s.conn.QueryRowContext(ctx,
		`SELECT id, username, password, is_admin FROM users WHERE is_admin ORDER BY id LIMIT 1`))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrNoAdminAvailable
	}
	return u, err
}

func (s *Store) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.IsAdmin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}
