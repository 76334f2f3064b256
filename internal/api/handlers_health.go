// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package api

import (
	"context"
	"net/http"
	"time"
)

// healthCheckTimeout bounds the database ping.
const healthCheckTimeout = 5 * time.Second

// Healthz reports liveness: the process is up and the database
// answers a ping.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "database ping failed", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status":            "ok",
		"uptime_seconds":    int64(time.Since(h.startTime).Seconds()),
		"connected_clients": h.hub.ClientCount(),
	})
}
