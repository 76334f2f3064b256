// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package chat

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/askroom/askroom/internal/logging"
	"github.com/askroom/askroom/internal/models"
)

// TopicMessages is the bus topic carrying persisted chat messages on
// their way to connected clients.
const TopicMessages = "chat.messages"

const metadataConversationID = "conversation_id"

// Bus is the in-process pub/sub channel between the relay (producer)
// and the hub dispatcher (consumer). Everything on the bus has
// already been persisted.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates the in-process event bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 256},
			newWatermillLogger(),
		),
	}
}

// PublishMessage puts a delivered-message event on the bus.
func (b *Bus) PublishMessage(conversationID int64, ev *models.ReceiveMessageEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal message event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(metadataConversationID, strconv.FormatInt(conversationID, 10))

	if err := b.pubsub.Publish(TopicMessages, msg); err != nil {
		return fmt.Errorf("publish message event: %w", err)
	}
	return nil
}

// Subscribe returns the consumer channel for the messages topic.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	ch, err := b.pubsub.Subscribe(ctx, TopicMessages)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TopicMessages, err)
	}
	return ch, nil
}

// Close shuts the bus down; pending messages are dropped.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// watermillLogger adapts the application logger to watermill's
// LoggerAdapter interface.
type watermillLogger struct {
	fields watermill.LogFields
}

func newWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(logging.Error().Err(err), fields, msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), fields, msg) // watermill is chatty at info
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), fields, msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), fields, msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLogger{fields: l.fields.Add(fields)}
}

func (l *watermillLogger) event(ev *zerolog.Event, fields watermill.LogFields, msg string) {
	for k, v := range l.fields.Add(fields) {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}
