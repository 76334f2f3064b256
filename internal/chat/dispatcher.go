// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package chat

import (
	"context"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/askroom/askroom/internal/logging"
	"github.com/askroom/askroom/internal/models"
)

// Dispatcher consumes persisted message events from the bus and fans
// them out to the hub's rooms.
type Dispatcher struct {
	bus *Bus
	hub *Hub
}

// NewDispatcher wires the dispatcher.
func NewDispatcher(bus *Bus, hub *Hub) *Dispatcher {
	return &Dispatcher{bus: bus, hub: hub}
}

// RunWithContext consumes the bus until the context is canceled.
// Designed for suture supervision.
func (d *Dispatcher) RunWithContext(ctx context.Context) error {
	messages, err := d.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	logging.Info().Str("topic", TopicMessages).Msg("chat dispatcher started")
	for {
		select {
		case <-ctx.Done():
			logging.Info().Str("component", "chat-dispatcher").Msg("chat dispatcher stopped")
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				logging.Info().Str("component", "chat-dispatcher").Msg("bus closed, dispatcher stopping")
				return nil
			}
			d.dispatch(msg)
		}
	}
}

// dispatch delivers one bus message. Malformed messages are acked and
// dropped; redelivery cannot fix them.
func (d *Dispatcher) dispatch(msg *message.Message) {
	defer msg.Ack()

	conversationID, err := strconv.ParseInt(msg.Metadata.Get(metadataConversationID), 10, 64)
	if err != nil {
		logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("bus message without conversation id")
		return
	}

	var ev models.ReceiveMessageEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("malformed bus message payload")
		return
	}

	d.hub.BroadcastToRoom(conversationID, Message{
		Type: MessageTypeReceiveMessage,
		Data: &ev,
	})
}
