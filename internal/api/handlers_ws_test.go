// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package api

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/askroom/askroom/internal/models"
)

// wsEnvelope mirrors the wire shape of hub messages for decoding.
type wsEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// dialWS opens a websocket connection to the test server with an
// accepted Origin header.
func dialWS(t *testing.T, app *testApp) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(app.srv.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://example.com"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, eventType string, data interface{}) {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("failed to marshal event data: %v", err)
	}
	if err := conn.WriteJSON(wsEnvelope{Type: eventType, Data: payload}); err != nil {
		t.Fatalf("failed to write %s event: %v", eventType, err)
	}
}

// readReceiveMessage reads frames until a receive_message event
// arrives or the deadline passes.
func readReceiveMessage(t *testing.T, conn *websocket.Conn) *models.ReceiveMessageEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var envelope wsEnvelope
		if err := conn.ReadJSON(&envelope); err != nil {
			t.Fatalf("failed to read websocket frame: %v", err)
		}
		if envelope.Type != models.EventTypeReceiveMessage {
			continue
		}
		var ev models.ReceiveMessageEvent
		if err := json.Unmarshal(envelope.Data, &ev); err != nil {
			t.Fatalf("failed to decode receive_message: %v", err)
		}
		return &ev
	}
}

func TestWebSocketRoomEcho(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	client := newClient(t)
	registerAndLogin(t, app, client, "alice", "pw1")
	alice, err := app.store.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("failed to look up alice: %v", err)
	}
	admin, err := app.store.FirstAdmin(ctx)
	if err != nil {
		t.Fatalf("failed to look up admin: %v", err)
	}
	conversation, err := app.store.CreateConversation(ctx, "help", alice.ID, admin.ID)
	if err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}

	connA := dialWS(t, app)
	connB := dialWS(t, app)

	join := models.JoinEvent{ConversationID: conversation.ID}
	sendEvent(t, connA, models.EventTypeJoin, join)
	sendEvent(t, connB, models.EventTypeJoin, join)
	time.Sleep(100 * time.Millisecond)

	sendEvent(t, connA, models.EventTypeSendMessage, models.SendMessageEvent{
		ConversationID: conversation.ID,
		UserID:         alice.ID,
		Content:        "hi",
	})

	for _, conn := range []*websocket.Conn{connA, connB} {
		ev := readReceiveMessage(t, conn)
		if ev.Content != "hi" {
			t.Errorf("expected content %q, got %q", "hi", ev.Content)
		}
		if ev.SenderUsername != "alice" {
			t.Errorf("expected sender alice, got %q", ev.SenderUsername)
		}
		if ev.SenderID != alice.ID {
			t.Errorf("expected sender id %d, got %d", alice.ID, ev.SenderID)
		}
	}

	count, err := app.store.CountMessages(ctx, conversation.ID)
	if err != nil {
		t.Fatalf("failed to count messages: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 persisted message, got %d", count)
	}
}

func TestWebSocketEmptyMessageDropped(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	client := newClient(t)
	registerAndLogin(t, app, client, "alice", "pw1")
	alice, err := app.store.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("failed to look up alice: %v", err)
	}
	admin, err := app.store.FirstAdmin(ctx)
	if err != nil {
		t.Fatalf("failed to look up admin: %v", err)
	}
	conversation, err := app.store.CreateConversation(ctx, "help", alice.ID, admin.ID)
	if err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}

	conn := dialWS(t, app)
	sendEvent(t, conn, models.EventTypeJoin, models.JoinEvent{ConversationID: conversation.ID})
	time.Sleep(50 * time.Millisecond)

	sendEvent(t, conn, models.EventTypeSendMessage, models.SendMessageEvent{
		ConversationID: conversation.ID,
		UserID:         alice.ID,
		Content:        "   ",
	})
	time.Sleep(200 * time.Millisecond)

	count, err := app.store.CountMessages(ctx, conversation.ID)
	if err != nil {
		t.Fatalf("failed to count messages: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty message to be dropped, found %d rows", count)
	}
}

func TestWebSocketRejectsMissingOrigin(t *testing.T) {
	app := newTestApp(t)

	wsURL := "ws" + strings.TrimPrefix(app.srv.URL, "http") + "/ws"
	dialer := websocket.Dialer{}
	conn, resp, err := dialer.Dial(wsURL, nil)
	if err == nil {
		conn.Close()
		t.Fatal("expected handshake to fail without Origin header")
	}
	if resp != nil {
		resp.Body.Close()
	}
}

func TestWebSocketUnknownSenderFallback(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	client := newClient(t)
	registerAndLogin(t, app, client, "alice", "pw1")
	alice, err := app.store.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("failed to look up alice: %v", err)
	}
	admin, err := app.store.FirstAdmin(ctx)
	if err != nil {
		t.Fatalf("failed to look up admin: %v", err)
	}
	conversation, err := app.store.CreateConversation(ctx, "help", alice.ID, admin.ID)
	if err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}

	conn := dialWS(t, app)
	sendEvent(t, conn, models.EventTypeJoin, models.JoinEvent{ConversationID: conversation.ID})
	time.Sleep(50 * time.Millisecond)

	// Sender id 9999 no longer resolves to a user.
	sendEvent(t, conn, models.EventTypeSendMessage, models.SendMessageEvent{
		ConversationID: conversation.ID,
		UserID:         9999,
		Content:        "ghost message",
	})

	ev := readReceiveMessage(t, conn)
	if ev.SenderUsername != "unknown" {
		t.Errorf("expected sender fallback %q, got %q", "unknown", ev.SenderUsername)
	}
}
