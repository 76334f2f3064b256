// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/askroom/askroom/internal/logging"
)

// URLPrefix is where the HTTP layer serves locally stored uploads.
const URLPrefix = "/uploads/"

// LocalUploader writes images to a directory on disk. Filenames get a
// random prefix so concurrent uploads of the same name cannot collide.
type LocalUploader struct {
	dir string
}

// NewLocalUploader creates the uploads directory if needed.
func NewLocalUploader(dir string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &LocalUploader{dir: dir}, nil
}

// Dir returns the directory uploads are written to.
func (u *LocalUploader) Dir() string {
	return u.dir
}

// Upload stores the image and returns its serving URL.
func (u *LocalUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if filename == "" {
		return "", ErrEmptyFilename
	}

	name := uuid.NewString() + "_" + sanitizeFilename(filename)
	path := filepath.Join(u.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path) //nolint:errcheck
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path) //nolint:errcheck
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	logging.Debug().Str("file", name).Msg("stored local upload")
	return URLPrefix + name, nil
}
