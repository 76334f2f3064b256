// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

// Package models defines data structures used throughout the Askroom
// application: user/conversation/message records, the realtime wire events,
// and the standard API response envelope.
package models

import (
	"time"
)

// Role is the authorization role carried on an authenticated session.
// Checks against it use exhaustive switches rather than boolean probing so
// that a new role cannot silently fall through an access check.
type Role string

const (
	// RoleRegular is an ordinary user: sees and creates only their own
	// conversations.
	RoleRegular Role = "regular"

	// RoleAdmin sees every conversation, is assigned as answerer on new
	// conversations, and may delete conversations.
	RoleAdmin Role = "admin"
)

// RoleFor maps the stored admin flag to a Role.
func RoleFor(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}
	return RoleRegular
}

// User is an identity record. The Password field holds a bcrypt hash and is
// never serialized.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	IsAdmin  bool   `json:"is_admin"`
}

// Role returns the user's authorization role.
func (u *User) Role() Role {
	return RoleFor(u.IsAdmin)
}

// Conversation binds one regular user (the questioner) to one admin (the
// answerer). The answerer is fixed at creation time.
type Conversation struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	QuestionerID int64  `json:"user_q_id"`
	AnswererID   int64  `json:"user_a_id"`
}

// Message is one chat utterance. Immutable after insert; Timestamp is
// server-assigned and is the sole ordering key within a conversation.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	Content        string    `json:"content"`
	ImagePath      string    `json:"image_path,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// MessageView is a message joined with its sender's username, as returned by
// the conversation history endpoint.
type MessageView struct {
	SenderID       int64     `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	Content        string    `json:"content"`
	ImagePath      string    `json:"image_path,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
