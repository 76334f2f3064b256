// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/askroom/askroom/internal/models"
)

// seedConversationFixture creates a questioner, an admin and one
// conversation between them.
func seedConversationFixture(t *testing.T, s *Store) (questioner, admin *models.User, conv *models.Conversation) {
	t.Helper()
	ctx := context.Background()

	questioner, err := s.CreateUser(ctx, "alice", "h", false)
	if err != nil {
		t.Fatal(err)
	}
	admin, err = s.CreateUser(ctx, "admin1", "h", true)
	if err != nil {
		t.Fatal(err)
	}
	conv, err = s.CreateConversation(ctx, "printer on fire", questioner.ID, admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	return questioner, admin, conv
}

func TestCreateAndGetConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	questioner, admin, conv := seedConversationFixture(t, s)

	got, err := s.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation() error: %v", err)
	}
	if got.Title != "printer on fire" {
		t.Errorf("title = %q", got.Title)
	}
	if got.QuestionerID != questioner.ID || got.AnswererID != admin.ID {
		t.Errorf("participants = (%d, %d), want (%d, %d)",
			got.QuestionerID, got.AnswererID, questioner.ID, admin.ID)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetConversation(context.Background(), 99); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("GetConversation() error = %v, want ErrConversationNotFound", err)
	}
}

func TestListConversationsScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	questioner, admin, _ := seedConversationFixture(t, s)

	bob, err := s.CreateUser(ctx, "bob", "h", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateConversation(ctx, "vpn question", bob.ID, admin.ID); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListAllConversations(ctx)
	if err != nil {
		t.Fatalf("ListAllConversations() error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListAllConversations() returned %d conversations, want 2", len(all))
	}

	mine, err := s.ListConversationsByQuestioner(ctx, questioner.ID)
	if err != nil {
		t.Fatalf("ListConversationsByQuestioner() error: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("ListConversationsByQuestioner() returned %d conversations, want 1", len(mine))
	}
	if mine[0].QuestionerID != questioner.ID {
		t.Errorf("listed conversation belongs to user %d, want %d", mine[0].QuestionerID, questioner.ID)
	}
}

func TestDeleteConversationCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	questioner, admin, conv := seedConversationFixture(t, s)

	for _, text := range []string{"hello", "anyone there?"} {
		if _, err := s.CreateMessage(ctx, conv.ID, questioner.ID, text, ""); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.CreateMessage(ctx, conv.ID, admin.ID, "on it", ""); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteConversation(ctx, conv.ID); err != nil {
		t.Fatalf("DeleteConversation() error: %v", err)
	}

	if _, err := s.GetConversation(ctx, conv.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("conversation still readable after delete, err=%v", err)
	}
	n, err := s.CountMessages(ctx, conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("%d messages survived the cascade delete", n)
	}
}

func TestDeleteConversationNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.DeleteConversation(context.Background(), 7); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("DeleteConversation() error = %v, want ErrConversationNotFound", err)
	}
}
