// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package api

// credentialsRequest is the register and login form payload.
type credentialsRequest struct {
	Username string `validate:"required,min=1,max=64"`
	Password string `validate:"required,min=1,max=128"`
}

// createConversationRequest is the new-conversation form payload.
type createConversationRequest struct {
	Title string `validate:"required,min=1,max=200"`
}
