// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

// Package config provides layered configuration for Askroom using Koanf v2.
//
// Precedence (highest wins): environment variables > optional YAML config
// file > built-in defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Askroom server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Storage  StorageConfig  `koanf:"storage"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	CORSOrigins []string      `koanf:"cors_origins"`
}

// DatabaseConfig holds DuckDB settings. Path is a file path; an empty path
// opens an in-memory database (used by tests).
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// SecurityConfig holds authentication and session settings.
type SecurityConfig struct {
	// SessionSecret signs session tokens (HS256). Minimum 32 characters.
	SessionSecret string `koanf:"session_secret"`

	// SessionTimeout is the session lifetime.
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// SessionStore selects the session backend: "memory" or "badger".
	SessionStore string `koanf:"session_store"`

	// SessionStorePath is the BadgerDB directory when SessionStore=badger.
	SessionStorePath string `koanf:"session_store_path"`

	// CookieSecure sets the Secure flag on the session cookie.
	CookieSecure bool `koanf:"cookie_secure"`

	// AdminBootstrapPassword is the password assigned to the seeded
	// admin1..admin3 accounts when no admin exists at startup.
	AdminBootstrapPassword string `koanf:"admin_bootstrap_password"`

	// RateLimitReqs / RateLimitWindow bound auth-endpoint request rates.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// StorageConfig holds image upload settings.
type StorageConfig struct {
	// Backend selects the uploader: "local" or "cloudinary".
	Backend string `koanf:"backend"`

	// UploadsDir is the directory for the local backend.
	UploadsDir string `koanf:"uploads_dir"`

	// Cloudinary credentials. All three are required when
	// Backend=cloudinary; uploads fail with a storage error otherwise.
	CloudinaryCloudName string `koanf:"cloudinary_cloud_name"`
	CloudinaryAPIKey    string `koanf:"cloudinary_api_key"`
	CloudinaryAPISecret string `koanf:"cloudinary_api_secret"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// CloudinaryConfigured reports whether the full three-part Cloudinary
// credential set is present.
func (s *StorageConfig) CloudinaryConfigured() bool {
	return s.CloudinaryCloudName != "" && s.CloudinaryAPIKey != "" && s.CloudinaryAPISecret != ""
}

// Validate checks the configuration for values that would prevent startup.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.SessionSecret) < 32 {
		return fmt.Errorf("security.session_secret must be at least 32 characters (set SESSION_SECRET)")
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("security.session_timeout must be positive, got %s", c.Security.SessionTimeout)
	}
	switch c.Security.SessionStore {
	case "memory":
	case "badger":
		if c.Security.SessionStorePath == "" {
			return fmt.Errorf("security.session_store_path is required when session_store=badger")
		}
	default:
		return fmt.Errorf("security.session_store must be %q or %q, got %q", "memory", "badger", c.Security.SessionStore)
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case "local":
		if c.Storage.UploadsDir == "" {
			return fmt.Errorf("storage.uploads_dir is required when backend=local")
		}
	case "cloudinary":
		// Missing credentials are reported at upload time as a storage
		// error, matching the runtime diagnostic contract.
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", "local", "cloudinary", c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be %q or %q, got %q", "json", "console", c.Logging.Format)
	}
	return nil
}
