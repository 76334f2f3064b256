// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package models

import (
	"time"
)

// APIResponse is the standard response wrapper for JSON endpoints.
//
// Status is "success" or "error"; Error is populated only for errors.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError carries a machine-readable code plus a human-readable message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UploadResponse is the JSON body returned by the image upload endpoint.
// Exactly one of ImageURL or Error is set, mirroring the {image_url}/{error}
// contract expected by chat clients.
type UploadResponse struct {
	ImageURL string `json:"image_url,omitempty"`
	Error    string `json:"error,omitempty"`
}
