// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package services

import (
	"context"
)

// ContextRunner matches components whose run loop takes a context and
// returns when it is canceled. Satisfied by *chat.Hub and
// *chat.Dispatcher.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService wraps a ContextRunner as a supervised service. The
// run loop already implements the suture.Service pattern; this adds
// the name used in supervisor logs.
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewHubService wraps the chat hub.
func NewHubService(hub ContextRunner) *RunnerService {
	return &RunnerService{runner: hub, name: "chat-hub"}
}

// NewDispatcherService wraps the event bus dispatcher.
func NewDispatcherService(dispatcher ContextRunner) *RunnerService {
	return &RunnerService{runner: dispatcher, name: "chat-dispatcher"}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture's log messages.
func (s *RunnerService) String() string {
	return s.name
}
