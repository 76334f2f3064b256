// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/askroom/askroom/internal/logging"
	"github.com/askroom/askroom/internal/models"
	"github.com/askroom/askroom/internal/store"
)

// storeCallTimeout bounds every database call made on behalf of a
// websocket event.
const storeCallTimeout = 5 * time.Second

// Relay takes inbound send_message events, persists them, and
// publishes the persisted result to the bus. A message that cannot be
// stored is never broadcast.
type Relay struct {
	store *store.Store
	bus   *Bus

	// mu serializes the persist-publish pair. HandleSend runs on each
	// connection's read goroutine; without this, two senders in one
	// room could publish in the opposite order of their inserts, and
	// live delivery would disagree with a history reload.
	mu sync.Mutex
}

// NewRelay wires the relay.
func NewRelay(st *store.Store, bus *Bus) *Relay {
	return &Relay{store: st, bus: bus}
}

// HandleSend processes one send_message event. Messages that are
// empty after trimming and carry no image are dropped silently, the
// same as a blank form submit.
func (r *Relay) HandleSend(ctx context.Context, ev *models.SendMessageEvent) {
	content := strings.TrimSpace(ev.Content)
	if content == "" && ev.ImageURL == "" {
		messagesDropped.WithLabelValues("empty").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(ctx, storeCallTimeout)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.store.CreateMessage(ctx, ev.ConversationID, ev.UserID, content, ev.ImageURL); err != nil {
		messagesDropped.WithLabelValues("persist_failed").Inc()
		logging.Error().Err(err).
			Int64("conversation_id", ev.ConversationID).
			Int64("sender_id", ev.UserID).
			Msg("failed to persist message, not broadcasting")
		return
	}

	out := &models.ReceiveMessageEvent{
		SenderID:       ev.UserID,
		SenderUsername: r.resolveUsername(ctx, ev.UserID),
		Content:        content,
		ImageURL:       ev.ImageURL,
	}
	if err := r.bus.PublishMessage(ev.ConversationID, out); err != nil {
		logging.Error().Err(err).Int64("conversation_id", ev.ConversationID).Msg("failed to publish message event")
		return
	}
	messagesRelayed.Inc()
}

// resolveUsername looks up the sender's username, falling back to
// "unknown" when the account cannot be found.
func (r *Relay) resolveUsername(ctx context.Context, userID int64) string {
	user, err := r.store.GetUserByID(ctx, userID)
	if err != nil {
		return "unknown"
	}
	return user.Username
}
