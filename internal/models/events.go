// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package models

// Realtime event types exchanged over the WebSocket channel.
const (
	EventTypeJoin           = "join"
	EventTypeSendMessage    = "send_message"
	EventTypeReceiveMessage = "receive_message"
)

// JoinEvent registers the sending connection into a conversation room.
type JoinEvent struct {
	ConversationID int64 `json:"conversation_id"`
}

// SendMessageEvent is the inbound chat message payload. A message with empty
// (post-trim) content and no image URL is dropped without persistence or
// broadcast.
type SendMessageEvent struct {
	ConversationID int64  `json:"conversation_id"`
	UserID         int64  `json:"user_id"`
	Content        string `json:"content"`
	ImageURL       string `json:"image_url,omitempty"`
}

// ReceiveMessageEvent is broadcast to every member of the conversation room,
// including the sender's own connection. Clients render their own echo as
// the delivery confirmation.
type ReceiveMessageEvent struct {
	SenderID       int64  `json:"sender_id"`
	SenderUsername string `json:"sender_username"`
	Content        string `json:"content"`
	ImageURL       string `json:"image_url,omitempty"`
}
