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

// CreateConversation opens a new conversation owned by questionerID
// and assigned to answererID.
func (s *Store) CreateConversation(ctx context.Context, title string, questionerID, answererID int64) (*models.Conversation, error) {
	var id int64
	err := s.conn.QueryRowContext(ctx,
		`INSERT INTO conversations (title, user_q_id, user_a_id) VALUES (?, ?, ?) RETURNING id`,
		title, questionerID, answererID).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	return &models.Conversation{ID: id, Title: title, QuestionerID: questionerID, AnswererID: answererID}, nil
}

// GetConversation fetches a conversation by id. Returns
// ErrConversationNotFound when no row matches.
func (s *Store) GetConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	var c models.Conversation
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, title, user_q_id, user_a_id FROM conversations WHERE id = ?`, id).
		Scan(&c.ID, &c.Title, &c.QuestionerID, &c.AnswererID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}
	return &c, nil
}

// ListAllConversations returns every conversation ordered by id. This
// is the admin view.
func (s *Store) ListAllConversations(ctx context.Context) ([]models.Conversation, error) {
	return s.listConversations(ctx,
		`SELECT id, title, user_q_id, user_a_id FROM conversations ORDER BY id`)
}

// ListConversationsByQuestioner returns the conversations opened by
// the given user, ordered by id.
func (s *Store) ListConversationsByQuestioner(ctx context.Context, userID int64) ([]models.Conversation, error) {
	return s.listConversations(ctx,
		`SELECT id, title, user_q_id, user_a_id FROM conversations WHERE user_q_id = ? ORDER BY id`, userID)
}

func (s *Store) listConversations(ctx context.Context, query string, args ...any) ([]models.Conversation, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.QuestionerID, &c.AnswererID); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return conversations, nil
}

// DeleteConversation removes a conversation and all of its messages in
// one transaction. Either everything is deleted or nothing is.
func (s *Store) DeleteConversation(ctx context.Context, id int64) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversations WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check conversation: %w", err)
	}
	if !exists {
		return ErrConversationNotFound
	}

	// Messages first, the FK points at the conversation.
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}
