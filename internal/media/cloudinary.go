// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package media

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec // Cloudinary's signature scheme mandates SHA-1
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/askroom/askroom/internal/config"
	"github.com/askroom/askroom/internal/logging"
)

const (
	cloudinaryUploadURL = "https://api.cloudinary.com/v1_1/%s/image/upload"
	cloudinaryTimeout   = 30 * time.Second

	breakerFailureThreshold = 5
	breakerOpenTimeout      = 60 * time.Second
)

// CloudinaryUploader pushes images to Cloudinary's upload API using
// signed requests. Calls run through a circuit breaker so a Cloudinary
// outage fails fast instead of tying up request handlers.
type CloudinaryUploader struct {
	cfg     *config.StorageConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[string]

	// uploadURL is overridable in tests.
	uploadURL string
	now       func() time.Time
}

// NewCloudinaryUploader wires the uploader and its breaker.
func NewCloudinaryUploader(cfg *config.StorageConfig) *CloudinaryUploader {
	settings := gobreaker.Settings{
		Name:    "cloudinary-upload",
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return &CloudinaryUploader{
		cfg:       cfg,
		client:    &http.Client{Timeout: cloudinaryTimeout},
		breaker:   gobreaker.NewCircuitBreaker[string](settings),
		uploadURL: fmt.Sprintf(cloudinaryUploadURL, cfg.CloudinaryCloudName),
		now:       time.Now,
	}
}

// Upload sends the image to Cloudinary and returns the hosted URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if filename == "" {
		return "", ErrEmptyFilename
	}
	if !u.cfg.CloudinaryConfigured() {
		return "", fmt.Errorf("%w: cloudinary credentials not configured", ErrStorageUnavailable)
	}

	url, err := u.breaker.Execute(func() (string, error) {
		return u.doUpload(ctx, filename, r)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return url, nil
}

func (u *CloudinaryUploader) doUpload(ctx context.Context, filename string, r io.Reader) (string, error) {
	timestamp := strconv.FormatInt(u.now().Unix(), 10)
	signature := u.sign(timestamp)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", sanitizeFilename(filename))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy file: %w", err)
	}
	for k, v := range map[string]string{
		"api_key":   u.cfg.CloudinaryAPIKey,
		"timestamp": timestamp,
		"signature": signature,
	} {
		if err := writer.WriteField(k, v); err != nil {
			return "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL, &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloudinary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("cloudinary returned %d: %s", resp.StatusCode, payload)
	}

	var result struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode cloudinary response: %w", err)
	}
	if result.SecureURL != "" {
		return result.SecureURL, nil
	}
	if result.URL != "" {
		return result.URL, nil
	}
	return "", fmt.Errorf("cloudinary response missing url")
}

// sign computes Cloudinary's request signature: SHA-1 over the sorted
// parameter string followed by the API secret. Only timestamp is
// signed here.
func (u *CloudinaryUploader) sign(timestamp string) string {
	payload := "timestamp=" + timestamp + u.cfg.CloudinaryAPISecret
	sum := sha1.Sum([]byte(payload)) //nolint:gosec // required by the Cloudinary API
	return hex.EncodeToString(sum[:])
}
