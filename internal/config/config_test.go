// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package config

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// validConfig returns a config that passes Validate, for mutation in tests.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.SessionSecret = testSecret
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 5000 {
		t.Errorf("default port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Database.Path != "data/askroom.duckdb" {
		t.Errorf("default database path = %q", cfg.Database.Path)
	}
	if cfg.Security.SessionStore != "memory" {
		t.Errorf("default session store = %q, want memory", cfg.Security.SessionStore)
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("default storage backend = %q, want local", cfg.Storage.Backend)
	}
	if cfg.Security.SessionTimeout != 24*time.Hour {
		t.Errorf("default session timeout = %s, want 24h", cfg.Security.SessionTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_PATH", "/tmp/test.duckdb")
	t.Setenv("STORAGE_BACKEND", "cloudinary")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/test.duckdb" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Storage.Backend != "cloudinary" {
		t.Errorf("storage backend = %q", cfg.Storage.Backend)
	}
	if cfg.Storage.CloudinaryCloudName != "demo" {
		t.Errorf("cloud name = %q", cfg.Storage.CloudinaryCloudName)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSOrigins) != len(want) {
		t.Fatalf("cors origins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	for i := range want {
		if cfg.Server.CORSOrigins[i] != want[i] {
			t.Errorf("cors origins[%d] = %q, want %q", i, cfg.Server.CORSOrigins[i], want[i])
		}
	}
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without a session secret")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "short secret",
			mutate:  func(c *Config) { c.Security.SessionSecret = "short" },
			wantErr: "session_secret",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "unknown session store",
			mutate:  func(c *Config) { c.Security.SessionStore = "redis" },
			wantErr: "session_store",
		},
		{
			name: "badger store without path",
			mutate: func(c *Config) {
				c.Security.SessionStore = "badger"
				c.Security.SessionStorePath = ""
			},
			wantErr: "session_store_path",
		},
		{
			name:    "unknown storage backend",
			mutate:  func(c *Config) { c.Storage.Backend = "s3" },
			wantErr: "storage.backend",
		},
		{
			name: "cloudinary without credentials passes validation",
			mutate: func(c *Config) {
				c.Storage.Backend = "cloudinary"
			},
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestCloudinaryConfigured(t *testing.T) {
	s := StorageConfig{}
	if s.CloudinaryConfigured() {
		t.Error("empty credentials should not report configured")
	}

	s = StorageConfig{CloudinaryCloudName: "demo", CloudinaryAPIKey: "key"}
	if s.CloudinaryConfigured() {
		t.Error("partial credentials should not report configured")
	}

	s.CloudinaryAPISecret = "secret"
	if !s.CloudinaryConfigured() {
		t.Error("full credential set should report configured")
	}
}
