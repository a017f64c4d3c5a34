package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/docvault/internal/api/middlewares"
	"github.com/markdave123-py/docvault/internal/models"
	"github.com/markdave123-py/docvault/internal/services"
)

// FileService is what the file routes need from the document service.
type FileService interface {
	Ingest(ctx context.Context, ownerID, declaredType string, body io.Reader, originalName string) (*models.StoredFile, error)
	Retrieve(ctx context.Context, requesterID, fileID string) (*services.Retrieved, error)
	List(ctx context.Context, ownerID string) ([]models.StoredFile, error)
	Summarize(ctx context.Context, requesterID, fileID string) (*services.Summary, error)
}

type DocumentHandler struct {
	files          FileService
	maxUploadBytes int64
	log            *slog.Logger
}

func NewDocumentHandler(files FileService, maxUploadBytes int64, log *slog.Logger) *DocumentHandler {
	if log == nil {
		log = slog.Default()
	}
	return &DocumentHandler{files: files, maxUploadBytes: maxUploadBytes, log: log}
}

type uploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// UploadFile streams the first "file" part of a multipart body into the
// document service without buffering the whole upload.
func (h *DocumentHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded.")
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "No file uploaded.")
			return
		}
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeServiceError(w, err)
				return
			}
			writeError(w, http.StatusBadRequest, "No file uploaded.")
			return
		}
		if part.FormName() != "file" || part.FileName() == "" {
			_ = part.Close()
			continue
		}

		rec, err := h.files.Ingest(r.Context(), userID, part.Header.Get("Content-Type"), part, part.FileName())
		_ = part.Close()
		if err != nil {
			h.log.WarnContext(r.Context(), "upload rejected", "owner_id", userID, "error", err)
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, uploadResponse{Message: "File uploaded successfully", Filename: rec.StorageName})
		return
	}
}

func (h *DocumentHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}

	doc, err := h.files.Retrieve(r.Context(), userID, chi.URLParam(r, "fileId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}

	files, err := h.files.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (h *DocumentHandler) SummarizeFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}

	sum, err := h.files.Summarize(r.Context(), userID, chi.URLParam(r, "fileId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
