// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/askroom/askroom/internal/auth"
	"github.com/askroom/askroom/internal/logging"
	"github.com/askroom/askroom/internal/store"
)

// RegisterPage renders the registration form description.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	respondPage(w, r, "register")
}

// Register creates a new regular user from the submitted form. On
// success the caller is redirected to login; there is no auto-login.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseCredentials(w, r, "/register")
	if !ok {
		return
	}

	user, err := h.authSvc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			redirectWithFlash(w, r, "/register", "username already taken")
			return
		}
		logging.Error().Err(err).Msg("Registration failed")
		redirectWithFlash(w, r, "/register", "registration failed")
		return
	}

	logging.Info().Str("username", sanitizeLogValue(user.Username)).Int64("user_id", user.ID).Msg("User registered")
	redirectWithFlash(w, r, "/login", "registration successful, please log in")
}

// LoginPage renders the login form description.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	respondPage(w, r, "login")
}

// Login validates credentials and establishes a session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseCredentials(w, r, "/login")
	if !ok {
		return
	}

	token, user, err := h.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			redirectWithFlash(w, r, "/login", "invalid username or password")
			return
		}
		logging.Error().Err(err).Msg("Login failed")
		redirectWithFlash(w, r, "/login", "login failed")
		return
	}

	h.authSvc.SetSessionCookie(w, token)
	logging.Info().Str("username", sanitizeLogValue(user.Username)).Int64("user_id", user.ID).Msg("User logged in")
	http.Redirect(w, r, "/chat_list", http.StatusFound)
}

// Logout destroys the session. Idempotent: logging out without a
// session still clears the cookie and redirects.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if session, ok := auth.SessionFromContext(r.Context()); ok {
		if err := h.authSvc.Logout(r.Context(), session.ID); err != nil {
			logging.Warn().Err(err).Msg("Failed to delete session on logout")
		}
	}
	h.authSvc.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// parseCredentials extracts and validates the username/password form
// fields, redirecting back to the form page on failure.
func (h *Handler) parseCredentials(w http.ResponseWriter, r *http.Request, formPage string) (*credentialsRequest, bool) {
	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, formPage, "malformed form submission")
		return nil, false
	}

	req := &credentialsRequest{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
	if apiErr := validateRequest(req); apiErr != nil {
		redirectWithFlash(w, r, formPage, apiErr.Message)
		return nil, false
	}
	return req, true
}
