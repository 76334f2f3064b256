// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package store

import "errors"

// Sentinel errors returned by the store. Callers match on these with
// errors.Is to translate persistence failures into user-facing ones.
var (
	ErrDuplicateUsername    = errors.New("username already taken")
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNoAdminAvailable     = errors.New("no admin account available")
)
