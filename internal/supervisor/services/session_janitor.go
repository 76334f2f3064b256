// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package services

import (
	"context"
	"time"

	"github.com/askroom/askroom/internal/logging"
)

// SessionCleaner matches the expiry sweep of auth.SessionStore.
type SessionCleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// SessionJanitorService periodically removes expired sessions from
// the session store.
type SessionJanitorService struct {
	sessions SessionCleaner
	interval time.Duration
	name     string
}

// NewSessionJanitorService creates the cleanup service. A zero or
// negative interval defaults to 5 minutes.
func NewSessionJanitorService(sessions SessionCleaner, interval time.Duration) *SessionJanitorService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionJanitorService{
		sessions: sessions,
		interval: interval,
		name:     "session-janitor",
	}
}

// Serve implements suture.Service. Sweep failures are logged and
// retried on the next tick rather than crashing the service.
func (s *SessionJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed, err := s.sessions.CleanupExpired(ctx)
			if err != nil {
				logging.Warn().Err(err).Msg("Session cleanup sweep failed")
				continue
			}
			if removed > 0 {
				logging.Debug().Int("removed", removed).Msg("Expired sessions removed")
			}
		}
	}
}

// String implements fmt.Stringer for suture's log messages.
func (s *SessionJanitorService) String() string {
	return s.name
}
