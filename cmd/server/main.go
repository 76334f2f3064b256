// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

// Package main is the entry point for the Askroom server.
//
// Askroom is a small help-desk chat service: users register, open a
// conversation with an admin, and exchange text and image messages in
// real time over a WebSocket channel.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered settings (defaults, YAML, env)
//  2. Database: DuckDB store for users, conversations and messages
//  3. Admin seeding: admin1..admin3 created when no admin exists
//  4. Sessions: in-memory or BadgerDB session store plus JWT cookies
//  5. Media: local-disk or Cloudinary image uploader
//  6. Realtime: chat hub, Watermill event bus, relay and dispatcher
//  7. HTTP server: Chi router with the page, upload and ws routes
//
// The whole application runs under a suture supervision tree and
// shuts down gracefully on SIGINT and SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askroom/askroom/internal/api"
	"github.com/askroom/askroom/internal/auth"
	"github.com/askroom/askroom/internal/chat"
	"github.com/askroom/askroom/internal/config"
	"github.com/askroom/askroom/internal/logging"
	"github.com/askroom/askroom/internal/media"
	"github.com/askroom/askroom/internal/store"
	"github.com/askroom/askroom/internal/supervisor"
	"github.com/askroom/askroom/internal/supervisor/services"
)

const (
	httpShutdownTimeout    = 10 * time.Second
	sessionCleanupInterval = 5 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).Msg("Starting Askroom")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.New(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	if err := seedAdmins(ctx, st, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Failed to seed admin accounts")
	}

	sessions, sessionCloser, err := auth.NewSessionStore(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create session store")
	}
	defer func() {
		if err := sessionCloser.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close session store")
		}
	}()
	logging.Info().Str("backend", cfg.Security.SessionStore).Msg("Session store initialized")

	tokens, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create token manager")
	}
	authSvc := auth.NewService(st, sessions, tokens, &cfg.Security)

	uploader, err := media.NewUploader(&cfg.Storage)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create image uploader")
	}
	logging.Info().Str("backend", cfg.Storage.Backend).Msg("Image storage initialized")

	bus := chat.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close event bus")
		}
	}()
	hub := chat.NewHub()
	relay := chat.NewRelay(st, bus)
	dispatcher := chat.NewDispatcher(bus, hub)

	handler := api.NewHandler(st, authSvc, uploader, hub, relay, cfg)
	router := api.NewRouter(handler, authSvc, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddMessagingService(services.NewDispatcherService(dispatcher))
	tree.AddMessagingService(services.NewSessionJanitorService(sessions, sessionCleanupInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, httpShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("Supervision tree assembled")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Askroom stopped gracefully")
}

// seedAdmins ensures the bootstrap admin accounts exist. A no-op when
// any admin is already present.
func seedAdmins(ctx context.Context, st *store.Store, cfg *config.Config) error {
	if cfg.Security.AdminBootstrapPassword == "" {
		logging.Warn().Msg("Admin bootstrap password empty, skipping admin seeding")
		return nil
	}
	hash, err := auth.HashPassword(cfg.Security.AdminBootstrapPassword)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}
	return st.SeedAdmins(ctx, hash)
}
