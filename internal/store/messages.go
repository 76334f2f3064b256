// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/askroom/askroom/internal/models"
)

// CreateMessage persists a chat message. The timestamp is assigned
// here so message ordering follows insertion order.
func (s *Store) CreateMessage(ctx context.Context, conversationID, senderID int64, content, imagePath string) (*models.Message, error) {
	now := time.Now().UTC()

	var id int64
	err := s.conn.QueryRowContext(ctx,
		`INSERT INTO messages (conversation_id, sender_id, content, image_path, created_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		conversationID, senderID, content, nullable(imagePath), now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	return &models.Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		ImagePath:      imagePath,
		Timestamp:      now,
	}, nil
}

// ListMessages returns the full history of a conversation in send
// order, with each sender's username resolved. Senders whose account
// no longer exists are reported as "unknown".
func (s *Store) ListMessages(ctx context.Context, conversationID int64) ([]models.MessageView, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT m.sender_id, COALESCE(u.username, 'unknown'), m.content, m.image_path, m.created_at
		 FROM messages m
		 LEFT JOIN users u ON u.id = m.sender_id
		 WHERE m.conversation_id = ?
		 ORDER BY m.created_at, m.id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.MessageView, 0)
	for rows.Next() {
		var (
			v       models.MessageView
			content sql.NullString
			image   sql.NullString
		)
		if err := rows.Scan(&v.SenderID, &v.SenderUsername, &content, &image, &v.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		v.Content = content.String
		v.ImagePath = image.String
		messages = append(messages, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// CountMessages returns the number of messages in a conversation.
func (s *Store) CountMessages(ctx context.Context, conversationID int64) (int64, error) {
	var n int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
