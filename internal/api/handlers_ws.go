// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package api

import (
	"net/http"

	"github.com/askroom/askroom/internal/auth"
	"github.com/askroom/askroom/internal/chat"
	"github.com/askroom/askroom/internal/logging"
)

// WebSocket upgrades the connection and hands it to the chat hub. The
// channel itself does not require a session; when one is present the
// authenticated identity overrides the sender id in event payloads.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "realtime service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	user, _ := auth.UserFromContext(r.Context())
	client := chat.NewClient(h.hub, h.relay, conn, user)
	client.Start()
}
