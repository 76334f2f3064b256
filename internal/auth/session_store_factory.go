// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package auth

import (
	"fmt"
	"io"

	"github.com/askroom/askroom/internal/config"
	"github.com/askroom/askroom/internal/logging"
)

// NewSessionStore builds the session store selected by configuration.
// The returned closer is a no-op for the memory backend.
func NewSessionStore(cfg *config.SecurityConfig) (SessionStore, io.Closer, error) {
	switch cfg.SessionStore {
	case "memory":
		logging.Info().Msg("Using in-memory session store")
		return NewMemorySessionStore(), nopCloser{}, nil
	case "badger":
		store, err := NewBadgerSessionStore(cfg.SessionStorePath)
		if err != nil {
			return nil, nil, err
		}
		logging.Info().Str("path", cfg.SessionStorePath).Msg("Using Badger session store")
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store backend: %s", cfg.SessionStore)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
