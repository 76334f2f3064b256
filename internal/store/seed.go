// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package store

import (
	"context"
	"fmt"

	"github.com/askroom/askroom/internal/logging"
)

var seedAdminUsernames = []string{"admin1", "admin2", "admin3"}

// SeedAdmins creates the bootstrap admin accounts when the database
// holds no admin at all. The password must already be hashed. Runs in
// a single transaction so a partial seed cannot survive a crash.
func (s *Store) SeedAdmins(ctx context.Context, passwordHash string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var haveAdmin bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE is_admin)`).Scan(&haveAdmin)
	if err != nil {
		return fmt.Errorf("failed to check for admins: %w", err)
	}
	if haveAdmin {
		return nil
	}

	for _, name := range seedAdminUsernames {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, password, is_admin) VALUES (?, ?, TRUE)`,
			name, passwordHash)
		if err != nil {
			return fmt.Errorf("failed to seed admin %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit admin seed: %w", err)
	}

	logging.Info().Int("count", len(seedAdminUsernames)).Msg("Seeded bootstrap admin accounts")
	return nil
}
