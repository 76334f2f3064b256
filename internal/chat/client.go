// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package chat

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/askroom/askroom/internal/logging"
	"github.com/askroom/askroom/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB

	// Inbound events per client. Chat is human-paced; anything past
	// this is a misbehaving client.
	inboundRateLimit = rate.Limit(10)
	inboundRateBurst = 20
)

// clientIDCounter generates unique, monotonically increasing client
// IDs so broadcast iteration order is stable.
var clientIDCounter atomic.Uint64

// inboundMessage is the envelope clients send. Data stays raw until
// the type is known.
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	id       uint64
	hub      *Hub
	relay    *Relay
	conn     *websocket.Conn
	send     chan Message
	limiter  *rate.Limiter
	userID   int64
	username string

	// done signals the pumps to stop. The send channel itself is
	// never closed, so enqueue can run from any goroutine while the
	// hub evicts the client.
	done      chan struct{}
	closeOnce sync.Once

	// room is the conversation the client has joined, 0 for none.
	// Mutated only by the hub goroutine.
	room int64
}

// NewClient creates a client for a websocket connection. user may be
// nil; the channel itself does not require a session, and the sender
// id then comes from the event payload.
func NewClient(hub *Hub, relay *Relay, conn *websocket.Conn, user *models.User) *Client {
	c := &Client{
		id:      clientIDCounter.Add(1),
		hub:     hub,
		relay:   relay,
		conn:    conn,
		send:    make(chan Message, 256),
		limiter: rate.NewLimiter(inboundRateLimit, inboundRateBurst),
		done:    make(chan struct{}),
	}
	if user != nil {
		c.userID = user.ID
		c.username = user.Username
	}
	return c
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// close stops the write pump. Safe to call more than once and from
// any goroutine.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// enqueue queues a message for the write pump without blocking.
// Returns false when the client is closed or its buffer is full.
func (c *Client) enqueue(msg Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Start registers the client with the hub and begins the read and
// write pumps.
func (c *Client) Start() {
	c.hub.Register <- c
	go c.writePump()
	go c.readPump()
}

// readPump pumps events from the websocket connection into the hub
// and relay.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}

		if !c.limiter.Allow() {
			messagesDropped.WithLabelValues("rate_limited").Inc()
			logging.Warn().Int64("user_id", c.userID).Str("type", msg.Type).Msg("client rate limited, dropping event")
			continue
		}

		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg inboundMessage) {
	switch msg.Type {
	case MessageTypeJoin:
		var ev models.JoinEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logging.Warn().Err(err).Int64("user_id", c.userID).Msg("malformed join event")
			return
		}
		c.hub.join <- joinRequest{client: c, conversationID: ev.ConversationID}

	case MessageTypeSendMessage:
		var ev models.SendMessageEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logging.Warn().Err(err).Int64("user_id", c.userID).Msg("malformed send_message event")
			return
		}
		// An authenticated connection overrides whatever sender id
		// the payload claims.
		if c.userID != 0 {
			ev.UserID = c.userID
		}
		c.relay.HandleSend(context.Background(), &ev)

	case MessageTypePing:
		c.enqueue(Message{Type: MessageTypePong})

	default:
		logging.Debug().Str("type", msg.Type).Msg("ignoring unknown websocket event")
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err == nil {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			}
			return

		case message := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("failed to write JSON message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
