// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

// Package store provides DuckDB-backed persistence for users,
// conversations and messages.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/askroom/askroom/internal/config"
	"github.com/askroom/askroom/internal/logging"
)

const (
	connectTimeout = 10 * time.Second
	schemaTimeout  = 30 * time.Second
)

// Store wraps the DuckDB connection and exposes the persistence
// operations the rest of the application uses.
type Store struct {
	conn *sql.DB
}

// New opens (or creates) the database at cfg.Path and initializes the
// schema. An empty path opens an in-memory database, which is what the
// tests use.
func New(cfg config.DatabaseConfig) (*Store, error) {
	dsn := ""
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		threads := cfg.Threads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		dsn = fmt.Sprintf("%s?threads=%d&max_memory=%s", cfg.Path, threads, cfg.MaxMemory)
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.initialize(); err != nil {
		conn.Close()
		return nil, err
	}

	logging.Info().Str("path", cfg.Path).Msg("Database initialized")
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping verifies the connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *Store) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()

	for _, q := range schemaQueries() {
		if _, err := s.conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// schemaQueries returns the DDL statements in dependency order.
// DuckDB has no auto-increment columns, so each table draws its
// primary key from a sequence.
func schemaQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_users_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_conversations_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_messages_id START 1`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_users_id'),
			username VARCHAR(64) NOT NULL UNIQUE,
			password VARCHAR(256) NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_conversations_id'),
			title VARCHAR(256) NOT NULL,
			user_q_id BIGINT NOT NULL REFERENCES users(id),
			user_a_id BIGINT NOT NULL REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_messages_id'),
			conversation_id BIGINT NOT NULL REFERENCES conversations(id),
			sender_id BIGINT NOT NULL,
			content VARCHAR,
			image_path VARCHAR,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_questioner ON conversations (user_q_id)`,
	}
}
