// Askroom - Real-Time Help Desk Chat
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/askroom/askroom

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/askroom/askroom/internal/logging"
	"github.com/askroom/askroom/internal/media"
	"github.com/askroom/askroom/internal/metrics"
	"github.com/askroom/askroom/internal/models"
)

// maxUploadSize bounds in-memory multipart parsing.
const maxUploadSize = 10 << 20 // 10 MiB

// UploadImage stores an uploaded image and returns its URL. The
// response contract is flat JSON: {"image_url": ...} on success or
// {"error": ...} with 400/500, consumed directly by chat clients.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		metrics.RecordUpload("client_error")
		respondUpload(w, http.StatusBadRequest, &models.UploadResponse{Error: "no file part in request"})
		return
	}

	// Browser clients post the part as "image"; "file" is accepted
	// for API callers.
	file, header, err := r.FormFile("image")
	if err != nil {
		file, header, err = r.FormFile("file")
	}
	if err != nil {
		metrics.RecordUpload("client_error")
		respondUpload(w, http.StatusBadRequest, &models.UploadResponse{Error: "no file part in request"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		metrics.RecordUpload("client_error")
		respondUpload(w, http.StatusBadRequest, &models.UploadResponse{Error: "empty filename"})
		return
	}

	imageURL, err := h.uploader.Upload(r.Context(), header.Filename, file)
	if err != nil {
		logging.Error().Err(err).Str("filename", sanitizeLogValue(header.Filename)).Msg("Image upload failed")
		metrics.RecordUpload("storage_error")
		status := http.StatusInternalServerError
		if errors.Is(err, media.ErrEmptyFilename) || errors.Is(err, media.ErrNoFile) {
			status = http.StatusBadRequest
		}
		// The underlying storage message is the caller's diagnostic.
		respondUpload(w, status, &models.UploadResponse{Error: err.Error()})
		return
	}

	metrics.RecordUpload("ok")
	respondUpload(w, http.StatusOK, &models.UploadResponse{ImageURL: imageURL})
}

// respondUpload writes the flat upload response body.
func respondUpload(w http.ResponseWriter, status int, resp *models.UploadResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to write upload response")
	}
}
