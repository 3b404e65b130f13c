package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/equipsight/api/internal/auth"
	"github.com/equipsight/api/internal/domain"
	"github.com/equipsight/api/internal/repository"
)

// Handler exposes the ingestion pipeline and the upload lifecycle over HTTP.
type Handler struct {
	service *Service
	uploads repository.UploadRepository
	logger  *slog.Logger
}

// NewHTTPHandler wraps the service with upload endpoints.
func NewHTTPHandler(service *Service, uploads repository.UploadRepository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, uploads: uploads, logger: logger}
}

// RegisterRoutes mounts the handler's endpoints on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/ingest/preview", h.handlePreview)
	r.Post("/ingest", h.handleIngest)
	r.Get("/uploads", h.handleList)
	r.Get("/uploads/{id}", h.handleGet)
	r.Delete("/uploads/{id}", h.handleDelete)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	req, ok := h.uploadRequest(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	result, err := h.service.Preview(req, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.uploadRequest(w, r)
	if !ok {
		return
	}

	upload, err := h.service.Ingest(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, upload)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	uploads, err := h.uploads.ListByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploads)
}

type uploadDetail struct {
	Upload domain.Upload         `json:"upload"`
	Rows   []domain.EquipmentRow `json:"rows"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, uploadID, ok := h.uploadScope(w, r)
	if !ok {
		return
	}

	upload, err := h.uploads.GetByID(r.Context(), userID, uploadID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	rows, err := h.uploads.ListRows(r.Context(), userID, uploadID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadDetail{Upload: upload, Rows: rows})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, uploadID, ok := h.uploadScope(w, r)
	if !ok {
		return
	}

	if err := h.uploads.Delete(r.Context(), userID, uploadID); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// uploadRequest extracts the multipart file and the authenticated identity.
// The declared part size is checked before the body is read so oversized
// files are rejected without a parse attempt.
func (h *Handler) uploadRequest(w http.ResponseWriter, r *http.Request) (Request, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return Request{}, false
	}

	if err := r.ParseMultipartForm(MaxFileSize); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return Request{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return Request{}, false
	}
	defer file.Close()

	if header.Size > MaxFileSize {
		h.writeError(w, ErrFileTooLarge)
		return Request{}, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return Request{}, false
	}

	return Request{
		UserID:   userID,
		FileName: header.Filename,
		Data:     bytes.NewReader(data),
	}, true
}

func (h *Handler) uploadScope(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}

	uploadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid upload id: %v", err), http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}

	return userID, uploadID, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		http.Error(w, "file exceeds the 10 MB limit", http.StatusRequestEntityTooLarge)
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrNoRetainedRows):
		http.Error(w, "invalid format", http.StatusBadRequest)
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		// Store failures surface as a generic upload failure; the parsed
		// preview stays client-side so the confirm step can be retried.
		h.logger.Error("upload request failed", "error", err)
		http.Error(w, "upload failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
