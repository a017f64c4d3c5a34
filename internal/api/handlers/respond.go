package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/markdave123-py/docvault/internal/core"
)

type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Message: msg})
}

// writeServiceError maps the core error taxonomy onto HTTP statuses. Messages
// are fixed per category so an error never reveals whose file it was.
func writeServiceError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "File exceeds the upload limit.")
	case errors.Is(err, core.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, "Only PDF and text files are allowed!")
	case errors.Is(err, core.ErrInvalidIdentifier):
		writeError(w, http.StatusBadRequest, "Invalid file ID format.")
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "File not found")
	case errors.Is(err, core.ErrExtractionFailure):
		writeError(w, http.StatusInternalServerError, "Failed to extract text from file.")
	case errors.Is(err, core.ErrSummaryFailure):
		writeError(w, http.StatusBadGateway, "Failed to summarize file.")
	case errors.Is(err, core.ErrMetadataFailure):
		writeError(w, http.StatusInternalServerError, "Failed to record file.")
	default:
		writeError(w, http.StatusInternalServerError, "A file storage error occurred.")
	}
}
