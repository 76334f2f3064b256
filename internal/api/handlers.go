// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/askroom/askroom/internal/auth"
	"github.com/askroom/askroom/internal/chat"
	"github.com/askroom/askroom/internal/config"
	"github.com/askroom/askroom/internal/logging"
	"github.com/askroom/askroom/internal/media"
	"github.com/askroom/askroom/internal/store"
)

// Handler contains dependencies for the API handlers.
//
// Handler methods are split across files:
//   - handlers_auth.go: register, login, logout
//   - handlers_conversations.go: list, create, history, delete
//   - handlers_media.go: image upload
//   - handlers_ws.go: WebSocket entry point
//   - handlers_health.go: liveness
type Handler struct {
	store     *store.Store
	authSvc   *auth.Service
	uploader  media.Uploader
	hub       *chat.Hub
	relay     *chat.Relay
	config    *config.Config
	startTime time.Time
}

// NewHandler creates an API handler wired to the application services.
func NewHandler(st *store.Store, authSvc *auth.Service, uploader media.Uploader, hub *chat.Hub, relay *chat.Relay, cfg *config.Config) *Handler {
	return &Handler{
		store:     st,
		authSvc:   authSvc,
		uploader:  uploader,
		hub:       hub,
		relay:     relay,
		config:    cfg,
		startTime: time.Now(),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins against
// the configured CORS origins. Browser WebSockets always send Origin;
// an empty header means a non-browser client bypassing CORS, so it is
// rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	// Fail open when unconfigured, for tests and development.
	if h.config == nil {
		return true
	}

	for _, allowed := range h.config.Server.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
