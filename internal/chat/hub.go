// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

// Package chat implements the realtime layer: a websocket hub with
// per-conversation rooms, the message relay that persists before it
// broadcasts, and the in-process event bus joining the two.
package chat

import (
	"context"
	"sort"
	"sync"

	"github.com/askroom/askroom/internal/logging"
)

// Message types for websocket communication
const (
	MessageTypeJoin           = "join"
	MessageTypeSendMessage    = "send_message"
	MessageTypeReceiveMessage = "receive_message"
	MessageTypePing           = "ping"
	MessageTypePong           = "pong"
)

// Message represents a websocket message envelope.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// RoomMessage is a message addressed to every client joined to one
// conversation.
type RoomMessage struct {
	ConversationID int64
	Message        Message
}

type joinRequest struct {
	client         *Client
	conversationID int64
}

// Hub maintains the set of active clients, tracks which conversation
// room each client has joined, and fans messages out to rooms.
type Hub struct {
	clients    map[*Client]bool
	rooms      map[int64]map[*Client]bool
	broadcast  chan RoomMessage
	Register   chan *Client
	Unregister chan *Client
	join       chan joinRequest
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[int64]map[*Client]bool),
		broadcast:  make(chan RoomMessage, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		join:       make(chan joinRequest),
	}
}

// RunWithContext runs the hub event loop until the context is
// canceled, then closes every client. Designed for suture
// supervision.
//
// Uses priority-based selection: shutdown first, then client
// lifecycle events, then broadcasts. Client state is always settled
// before messages are delivered.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Lifecycle events before broadcasts (non-blocking check).
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		case req := <-h.join:
			h.joinRoom(req.client, req.conversationID)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case req := <-h.join:
			h.joinRoom(req.client, req.conversationID)
		case rm := <-h.broadcast:
			h.broadcastToRoom(rm)
		}
	}
}

// BroadcastToRoom queues a message for every client in the
// conversation's room. Drops the message when the hub is saturated
// rather than blocking the caller.
func (h *Hub) BroadcastToRoom(conversationID int64, msg Message) {
	select {
	case h.broadcast <- RoomMessage{ConversationID: conversationID, Message: msg}:
	default:
		messagesDropped.WithLabelValues("hub_saturated").Inc()
		logging.Warn().Int64("conversation_id", conversationID).Msg("broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of clients joined to a conversation.
func (h *Hub) RoomClientCount(conversationID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	connectedClients.Set(float64(total))
	logging.Info().
		Int64("user_id", client.userID).
		Int("total_clients", total).
		Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		h.leaveRoomLocked(client)
		client.close()
	}
	total := len(h.clients)
	h.mu.Unlock()

	connectedClients.Set(float64(total))
	logging.Info().
		Int64("user_id", client.userID).
		Int("total_clients", total).
		Msg("websocket client disconnected")
}

// joinRoom moves the client into a conversation room. Joining the
// room it is already in is a no-op; joining another room leaves the
// previous one first. A client is in at most one room.
func (h *Hub) joinRoom(client *Client, conversationID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	if client.room == conversationID {
		return
	}

	h.leaveRoomLocked(client)
	room, ok := h.rooms[conversationID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[conversationID] = room
	}
	room[client] = true
	client.room = conversationID

	logging.Debug().
		Int64("user_id", client.userID).
		Int64("conversation_id", conversationID).
		Int("room_clients", len(room)).
		Msg("client joined room")
}

// leaveRoomLocked removes the client from its current room and prunes
// the room when it empties. Caller holds h.mu.
func (h *Hub) leaveRoomLocked(client *Client) {
	if client.room == 0 {
		return
	}
	if room, ok := h.rooms[client.room]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, client.room)
		}
	}
	client.room = 0
}

// broadcastToRoom delivers to room members in client-ID order so
// delivery order is reproducible. Clients with a full send buffer are
// dropped.
func (h *Hub) broadcastToRoom(rm RoomMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[rm.ConversationID]
	if !ok || len(room) == 0 {
		return
	}

	members := make([]*Client, 0, len(room))
	for client := range room {
		members = append(members, client)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].id < members[j].id
	})

	var toRemove []*Client
	for _, client := range members {
		if !client.enqueue(rm.Message) {
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		delete(h.clients, client)
		h.leaveRoomLocked(client)
		client.close()
		messagesDropped.WithLabelValues("slow_client").Inc()
	}
}

// shutdown closes every client in ID order.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	for _, client := range clients {
		delete(h.clients, client)
		h.leaveRoomLocked(client)
		client.close()
	}
	h.mu.Unlock()

	connectedClients.Set(0)
	logging.Info().
		Str("component", "chat-hub").
		Str("reason", shutdownReason(ctx)).
		Int("clients_closed", len(clients)).
		Msg("chat hub stopped")
}

func shutdownReason(ctx context.Context) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "context_deadline"
	}
	return "context_canceled"
}
