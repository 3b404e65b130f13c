package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/equipsight/api/internal/domain"
	"github.com/equipsight/api/internal/repository"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not a CSV.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge is returned before parsing when the payload exceeds
	// MaxFileSize.
	ErrFileTooLarge = errors.New("file exceeds size limit")

	// ErrNoRetainedRows is returned when filtering leaves nothing to keep.
	// Callers report it the same way as a format rejection.
	ErrNoRetainedRows = errors.New("no rows with equipment identity found")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

const (
	// MaxFileSize caps uploads at 10 MB; larger files are rejected before
	// any parse attempt.
	MaxFileSize = 10 << 20

	// RetentionLimit is the maximum number of uploads kept per user.
	RetentionLimit = 5

	defaultPreviewRows = 10
)

// Service runs the CSV ingestion pipeline and persists confirmed uploads.
type Service struct {
	uploads repository.UploadRepository
	logger  *slog.Logger
}

// NewService creates a new ingestion service.
func NewService(uploads repository.UploadRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{uploads: uploads, logger: logger}
}

// Request describes one uploaded file.
type Request struct {
	UserID   uuid.UUID
	FileName string
	Data     io.Reader
}

// ParseResult is the in-memory view of an upload prior to confirmation.
// Nothing in it is durable; Rows carry no identifiers yet.
type ParseResult struct {
	Columns     ColumnMapping         `json:"columns"`
	Rows        []domain.EquipmentRow `json:"rows"`
	TotalRows   int                   `json:"total_rows"`
	DroppedRows int                   `json:"dropped_rows"`
	Summary     domain.UploadSummary  `json:"summary"`
}

// Parse runs the full pipeline without persisting anything: column
// resolution once per file, then per-row normalization and filtering, then a
// single summary pass over the retained rows.
func (s *Service) Parse(req Request) (ParseResult, error) {
	var result ParseResult

	if req.UserID == uuid.Nil {
		return result, errors.New("user id is required")
	}
	if req.Data == nil {
		return result, errors.New("data reader is required")
	}

	// File extension is the only structural validation applied up front.
	if ext := strings.ToLower(filepath.Ext(req.FileName)); ext != ".csv" {
		return result, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	payload, err := io.ReadAll(io.LimitReader(req.Data, MaxFileSize+1))
	if err != nil {
		return result, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) > MaxFileSize {
		return result, ErrFileTooLarge
	}
	if len(payload) == 0 {
		return result, fmt.Errorf("%w: file is empty", ErrUnsupportedFormat)
	}

	headers, records, err := parseCSV(payload)
	if err != nil {
		return result, err
	}

	result.Columns = ResolveColumns(headers)
	result.TotalRows = len(records)

	retained := make([]domain.EquipmentRow, 0, len(records))
	for _, record := range records {
		row := NormalizeRow(record, result.Columns)
		if !row.Retained() {
			result.DroppedRows++
			continue
		}
		retained = append(retained, row)
	}

	if len(retained) == 0 {
		return result, ErrNoRetainedRows
	}

	result.Rows = retained
	result.Summary = Summarize(retained)
	return result, nil
}

// Preview runs Parse and truncates the returned rows for display. Counts and
// the summary still cover the whole file.
func (s *Service) Preview(req Request, limit int) (ParseResult, error) {
	result, err := s.Parse(req)
	if err != nil {
		return result, err
	}

	if limit <= 0 {
		limit = defaultPreviewRows
	}
	if len(result.Rows) > limit {
		result.Rows = result.Rows[:limit]
	}
	return result, nil
}

// Ingest confirms an upload: it re-runs Parse and persists the upload record
// together with its retained rows, trimming the user's oldest uploads so at
// most RetentionLimit remain.
func (s *Service) Ingest(ctx context.Context, req Request) (domain.Upload, error) {
	result, err := s.Parse(req)
	if err != nil {
		return domain.Upload{}, err
	}

	upload := domain.NewUpload(req.UserID, filepath.Base(req.FileName), len(result.Rows), result.Summary)
	for i := range result.Rows {
		result.Rows[i].ID = uuid.New()
		result.Rows[i].UploadID = upload.ID
	}

	created, err := s.uploads.CreateWithRows(ctx, upload, result.Rows, RetentionLimit)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("failed to persist upload: %w", err)
	}

	s.logger.Info("upload confirmed",
		"upload_id", created.ID,
		"user_id", created.UserID,
		"file_name", created.FileName,
		"rows", created.RowCount,
		"dropped", result.DroppedRows,
	)

	return created, nil
}

// parseCSV decodes the payload and splits it into a header row and data
// records. Rows with no non-blank cells are skipped; short records are padded
// to header width so column indexes stay valid.
func parseCSV(payload []byte) ([]string, [][]string, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	var headers []string
	var dataRows [][]string
	for _, record := range records {
		if isBlankRow(record) {
			continue
		}
		if headers == nil {
			headers = make([]string, len(record))
			for i, cell := range record {
				headers[i] = strings.TrimSpace(cell)
			}
			continue
		}
		dataRows = append(dataRows, padRow(record, len(headers)))
	}

	if headers == nil {
		return nil, nil, fmt.Errorf("%w: no header row detected", ErrUnsupportedFormat)
	}

	return headers, dataRows, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
