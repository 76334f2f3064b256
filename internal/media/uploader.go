// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

// Package media stores uploaded chat images, either on local disk or
// in Cloudinary.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/askroom/askroom/internal/config"
)

// Upload failure modes the HTTP layer maps to client errors.
var (
	ErrNoFile             = errors.New("no file part in request")
	ErrEmptyFilename      = errors.New("no selected file")
	ErrStorageUnavailable = errors.New("image storage unavailable")
)

// Uploader stores one image and returns the URL clients embed in
// messages.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// NewUploader builds the storage backend selected by configuration.
// A cloudinary backend with incomplete credentials still constructs;
// its uploads fail with ErrStorageUnavailable, which surfaces to the
// client as a storage error.
func NewUploader(cfg *config.StorageConfig) (Uploader, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalUploader(cfg.UploadsDir)
	case "cloudinary":
		return NewCloudinaryUploader(cfg), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// sanitizeFilename strips path components and anything outside a
// conservative character set, keeping the extension usable.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	cleaned := strings.Trim(b.String(), ".")
	if cleaned == "" {
		return "upload"
	}
	return cleaned
}
