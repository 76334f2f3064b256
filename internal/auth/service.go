// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/askroom/askroom/internal/config"
	"github.com/askroom/askroom/internal/logging"
	"github.com/askroom/askroom/internal/models"
	"github.com/askroom/askroom/internal/store"
)

// SessionCookieName is the cookie holding the signed session token.
const SessionCookieName = "askroom_session"

// ErrInvalidCredentials is returned for both unknown usernames and
// wrong passwords, so login failures do not reveal which accounts
// exist.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Service implements registration, login and logout on top of the
// user store and a session store.
type Service struct {
	users    *store.Store
	sessions SessionStore
	tokens   *JWTManager
	timeout  time.Duration
	secure   bool
}

// NewService wires the authentication service.
func NewService(users *store.Store, sessions SessionStore, tokens *JWTManager, cfg *config.SecurityConfig) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		timeout:  cfg.SessionTimeout,
		secure:   cfg.CookieSecure,
	}
}

// Register creates a regular (non-admin) account. Returns
// store.ErrDuplicateUsername when the username is taken.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, username, hash, false)
	if err != nil {
		return nil, err
	}

	logging.Info().Str("username", username).Msg("User registered")
	return user, nil
}

// Login verifies the credentials and opens a session. The returned
// token goes into the session cookie.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrUserNotFound) {
		// Same error as a wrong password, unknown usernames must
		// not be distinguishable.
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !CheckPassword(user.Password, password) {
		return "", nil, ErrInvalidCredentials
	}

	session := NewSession(user, s.timeout)
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.tokens.GenerateToken(session)
	if err != nil {
		return "", nil, err
	}

	logging.Info().Str("username", username).Str("role", string(user.Role())).Msg("User logged in")
	return token, user, nil
}

// Logout destroys the session. Unknown session IDs are not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// SetSessionCookie writes the signed session token as an HTTP-only
// cookie.
func (s *Service) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.timeout.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func (s *Service) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
