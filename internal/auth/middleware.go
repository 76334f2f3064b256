// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package auth

import (
	"context"
	"net/http"

	"github.com/askroom/askroom/internal/logging"
	"github.com/askroom/askroom/internal/models"
)

type contextKey string

const (
	userContextKey    contextKey = "auth.user"
	sessionContextKey contextKey = "auth.session"
)

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userContextKey).(*models.User)
	return u, ok
}

// SessionFromContext returns the active session, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	return s, ok
}

// Authenticate resolves the session cookie into a user and attaches
// both to the request context. A missing cookie passes through
// unauthenticated; a stale cookie (bad token, expired session, or a
// user that no longer exists) is cleared so the browser falls back to
// the login page.
func (s *Service) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := s.tokens.ValidateToken(cookie.Value)
		if err != nil {
			logging.Debug().Err(err).Msg("Rejected session token")
			s.ClearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		session, err := s.sessions.Get(r.Context(), claims.SessionID)
		if err != nil {
			s.ClearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.users.GetUserByID(r.Context(), session.UserID)
		if err != nil {
			// The account behind the session vanished, drop both.
			s.sessions.Delete(r.Context(), session.ID) //nolint:errcheck
			s.ClearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		ctx = context.WithValue(ctx, userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth redirects unauthenticated requests to the login page.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects non-admin users with 403. Unauthenticated
// requests are redirected to login like everywhere else.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		switch user.Role() {
		case models.RoleAdmin:
			next.ServeHTTP(w, r)
		case models.RoleRegular:
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			http.Error(w, "forbidden", http.StatusForbidden)
		}
	})
}
