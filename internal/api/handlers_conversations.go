// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/askroom/askroom/internal/auth"
	"github.com/askroom/askroom/internal/logging"
	"github.com/askroom/askroom/internal/models"
	"github.com/askroom/askroom/internal/store"
)

// ChatList returns the conversations visible to the current user:
// everything for admins, only their own for regular users.
func (h *Handler) ChatList(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	var (
		conversations []models.Conversation
		err           error
	)
	switch user.Role() {
	case models.RoleAdmin:
		conversations, err = h.store.ListAllConversations(r.Context())
	case models.RoleRegular:
		conversations, err = h.store.ListConversationsByQuestioner(r.Context(), user.ID)
	default:
		respondError(w, http.StatusForbidden, "FORBIDDEN", "unknown role", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list conversations", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"conversations": conversations,
		"flash":         popFlash(w, r),
	})
}

// CreateConversationPage renders the new-conversation form description.
func (h *Handler) CreateConversationPage(w http.ResponseWriter, r *http.Request) {
	respondPage(w, r, "create_conversation")
}

// CreateConversation opens a conversation between the current user and
// the first admin on record. The answerer is fixed at creation time.
func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, "/create_conversation", "malformed form submission")
		return
	}
	req := &createConversationRequest{
		Title: strings.TrimSpace(r.PostFormValue("title")),
	}
	if apiErr := validateRequest(req); apiErr != nil {
		redirectWithFlash(w, r, "/create_conversation", apiErr.Message)
		return
	}

	admin, err := h.store.FirstAdmin(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNoAdminAvailable) {
			redirectWithFlash(w, r, "/create_conversation", "no admin available to answer")
			return
		}
		logging.Error().Err(err).Msg("Failed to resolve answerer")
		redirectWithFlash(w, r, "/create_conversation", "failed to create conversation")
		return
	}

	conversation, err := h.store.CreateConversation(r.Context(), req.Title, user.ID, admin.ID)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create conversation")
		redirectWithFlash(w, r, "/create_conversation", "failed to create conversation")
		return
	}

	logging.Info().
		Int64("conversation_id", conversation.ID).
		Int64("questioner_id", user.ID).
		Int64("answerer_id", admin.ID).
		Msg("Conversation created")
	http.Redirect(w, r, fmt.Sprintf("/chat/%d", conversation.ID), http.StatusFound)
}

// Chat returns the message history of one conversation in timestamp
// order. Admins may view any conversation; regular users only their
// own.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	conversationID, ok := h.conversationIDParam(w, r)
	if !ok {
		return
	}

	conversation, err := h.store.GetConversation(r.Context(), conversationID)
	if err != nil {
		if errors.Is(err, store.ErrConversationNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "conversation not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load conversation", err)
		return
	}

	if !canAccess(user, conversation) {
		respondError(w, http.StatusForbidden, "FORBIDDEN", "not a participant of this conversation", nil)
		return
	}

	messages, err := h.store.ListMessages(r.Context(), conversationID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load messages", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"conversation": conversation,
		"messages":     messages,
	})
}

// DeleteConversation removes a conversation and all its messages. The
// router restricts this route to admins.
func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := h.conversationIDParam(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteConversation(r.Context(), conversationID); err != nil {
		if errors.Is(err, store.ErrConversationNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "conversation not found", nil)
			return
		}
		logging.Error().Err(err).Int64("conversation_id", conversationID).Msg("Failed to delete conversation")
		redirectWithFlash(w, r, "/chat_list", "failed to delete conversation")
		return
	}

	logging.Info().Int64("conversation_id", conversationID).Msg("Conversation deleted")
	redirectWithFlash(w, r, "/chat_list", "conversation deleted")
}

// conversationIDParam parses the {conversationID} route parameter.
func (h *Handler) conversationIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "conversationID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "invalid conversation id", nil)
		return 0, false
	}
	return id, true
}

// canAccess reports whether user may view the conversation. Roles are
// matched exhaustively; an unknown role gets no access.
func canAccess(user *models.User, conversation *models.Conversation) bool {
	switch user.Role() {
	case models.RoleAdmin:
		return true
	case models.RoleRegular:
		return conversation.QuestionerID == user.ID
	default:
		return false
	}
}
