// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package store

import (
	"context"
	"testing"
)

func TestListMessagesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	questioner, admin, conv := seedConversationFixture(t, s)

	texts := []string{"first", "second", "third"}
	senders := []int64{questioner.ID, admin.ID, questioner.ID}
	for i, text := range texts {
		if _, err := s.CreateMessage(ctx, conv.ID, senders[i], text, ""); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages() error: %v", err)
	}
	if len(got) != len(texts) {
		t.Fatalf("ListMessages() returned %d messages, want %d", len(got), len(texts))
	}
	for i, v := range got {
		if v.Content != texts[i] {
			t.Errorf("message %d content = %q, want %q", i, v.Content, texts[i])
		}
		if i > 0 && got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Errorf("message %d timestamp precedes message %d", i, i-1)
		}
	}
	if got[0].SenderUsername != "alice" || got[1].SenderUsername != "admin1" {
		t.Errorf("sender usernames = %q, %q", got[0].SenderUsername, got[1].SenderUsername)
	}
}

func TestListMessagesUnknownSender(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, _, conv := seedConversationFixture(t, s)

	// sender_id has no FK so a vanished account is representable
	if _, err := s.CreateMessage(ctx, conv.ID, 9999, "ghost post", ""); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ListMessages() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d messages, want 1", len(got))
	}
	if got[0].SenderUsername != "unknown" {
		t.Errorf("sender username = %q, want unknown", got[0].SenderUsername)
	}
}

func TestCreateMessageWithImage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	questioner, _, conv := seedConversationFixture(t, s)

	if _, err := s.CreateMessage(ctx, conv.ID, questioner.ID, "", "/uploads/shot.png"); err != nil {
		t.Fatalf("CreateMessage() error: %v", err)
	}

	got, err := s.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ImagePath != "/uploads/shot.png" {
		t.Errorf("image path = %q", got[0].ImagePath)
	}
	if got[0].Content != "" {
		t.Errorf("content = %q, want empty", got[0].Content)
	}
}
