package export

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/equipsight/api/internal/auth"
	"github.com/equipsight/api/internal/repository"
)

// Handler serves per-upload XLSX reports. It is a read-only consumer of the
// stored summary and rows.
type Handler struct {
	uploads repository.UploadRepository
	logger  *slog.Logger
}

// NewHTTPHandler creates a new export handler.
func NewHTTPHandler(uploads repository.UploadRepository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{uploads: uploads, logger: logger}
}

// RegisterRoutes mounts the handler's endpoints on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/uploads/{id}/report", h.handleReport)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	uploadID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid upload id: %v", err), http.StatusBadRequest)
		return
	}

	upload, err := h.uploads.GetByID(r.Context(), userID, uploadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load upload for report", "error", err)
		http.Error(w, "report failed", http.StatusInternalServerError)
		return
	}

	rows, err := h.uploads.ListRows(r.Context(), userID, uploadID)
	if err != nil {
		h.logger.Error("failed to load rows for report", "error", err)
		http.Error(w, "report failed", http.StatusInternalServerError)
		return
	}

	workbook, err := BuildReport(upload, rows)
	if err != nil {
		h.logger.Error("failed to build report", "error", err)
		http.Error(w, "report failed", http.StatusInternalServerError)
		return
	}
	defer func() { _ = workbook.Close() }()

	filename := strings.TrimSuffix(upload.FileName, ".csv") + "-report.xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := workbook.Write(w); err != nil {
		h.logger.Error("failed to stream report", "error", err)
	}
}
