// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/askroom/askroom/internal/logging"
)

//nolint:gochecknoinits // silence logs during tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

func TestLocalUpload(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir)
	if err != nil {
		t.Fatalf("NewLocalUploader() error: %v", err)
	}

	url, err := u.Upload(context.Background(), "screenshot.png", strings.NewReader("pngdata"))
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if !strings.HasPrefix(url, URLPrefix) {
		t.Errorf("url = %q, want %s prefix", url, URLPrefix)
	}
	if !strings.HasSuffix(url, "_screenshot.png") {
		t.Errorf("url = %q, want original filename preserved after the prefix", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, URLPrefix)))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "pngdata" {
		t.Errorf("stored content = %q", data)
	}
}

func TestLocalUploadUniqueNames(t *testing.T) {
	u, err := NewLocalUploader(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first, err := u.Upload(context.Background(), "same.png", strings.NewReader("a"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := u.Upload(context.Background(), "same.png", strings.NewReader("b"))
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("two uploads of the same filename produced the same URL")
	}
}

func TestLocalUploadEmptyFilename(t *testing.T) {
	u, err := NewLocalUploader(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := u.Upload(context.Background(), "", strings.NewReader("x")); !errors.Is(err, ErrEmptyFilename) {
		t.Errorf("Upload() error = %v, want ErrEmptyFilename", err)
	}
}

func TestLocalUploadStripsPath(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir)
	if err != nil {
		t.Fatal(err)
	}

	url, err := u.Upload(context.Background(), "../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if strings.Contains(url, "..") || strings.Contains(strings.TrimPrefix(url, URLPrefix), "/") {
		t.Errorf("url leaks path components: %q", url)
	}
	if _, err := os.Stat(filepath.Join(dir, strings.TrimPrefix(url, URLPrefix))); err != nil {
		t.Errorf("sanitized file not under uploads dir: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo.png"},
		{"my photo.png", "my_photo.png"},
		{"../../evil.sh", "evil.sh"},
		{"..", "upload"},
		{"", "upload"},
		{"ünïcode.jpg", "_n_code.jpg"},
	}
	for _, tc := range tests {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
