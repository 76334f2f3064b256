// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type mockCleaner struct {
	sweeps atomic.Int64
	err    error
}

func (m *mockCleaner) CleanupExpired(ctx context.Context) (int, error) {
	m.sweeps.Add(1)
	return 1, m.err
}

func TestSessionJanitorSweeps(t *testing.T) {
	cleaner := &mockCleaner{}
	svc := NewSessionJanitorService(cleaner, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}

	if cleaner.sweeps.Load() == 0 {
		t.Error("expected at least one cleanup sweep")
	}
}

func TestSessionJanitorSurvivesSweepErrors(t *testing.T) {
	cleaner := &mockCleaner{err: errors.New("store offline")}
	svc := NewSessionJanitorService(cleaner, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if cleaner.sweeps.Load() < 2 {
		t.Errorf("expected sweeps to continue after errors, got %d", cleaner.sweeps.Load())
	}
}

func TestRunnerServiceNames(t *testing.T) {
	hub := NewHubService(runnerFunc(func(ctx context.Context) error { return nil }))
	if hub.String() != "chat-hub" {
		t.Errorf("unexpected hub service name %q", hub.String())
	}
	dispatcher := NewDispatcherService(runnerFunc(func(ctx context.Context) error { return nil }))
	if dispatcher.String() != "chat-dispatcher" {
		t.Errorf("unexpected dispatcher service name %q", dispatcher.String())
	}
}

type runnerFunc func(ctx context.Context) error

func (f runnerFunc) RunWithContext(ctx context.Context) error { return f(ctx) }
