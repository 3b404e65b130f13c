package ingestion

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/equipsight/api/internal/domain"
	"github.com/equipsight/api/internal/repository"

	"github.com/google/uuid"
)

func TestServiceParseEndToEnd(t *testing.T) {
	service := NewService(&stubUploadRepo{}, nil)

	data := "Equipment Name,Type,Flow Rate,Pressure,Temp\nPump-1,Centrifugal,12.5,3.2,80\n"
	req := Request{
		UserID:   uuid.New(),
		FileName: "readings.csv",
		Data:     strings.NewReader(data),
	}

	result, err := service.Parse(req)
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}

	if result.TotalRows != 1 || result.DroppedRows != 0 || len(result.Rows) != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}

	row := result.Rows[0]
	if row.EquipmentName != "Pump-1" || row.EquipmentType != "Centrifugal" {
		t.Fatalf("unexpected identity: %q/%q", row.EquipmentName, row.EquipmentType)
	}
	if row.Flowrate == nil || *row.Flowrate != 12.5 {
		t.Fatalf("unexpected flowrate: %v", row.Flowrate)
	}
	if row.Pressure == nil || *row.Pressure != 3.2 {
		t.Fatalf("unexpected pressure: %v", row.Pressure)
	}
	if row.Temperature == nil || *row.Temperature != 80 {
		t.Fatalf("unexpected temperature: %v", row.Temperature)
	}

	summary := result.Summary
	if summary.AvgFlowrate != 12.5 || summary.AvgPressure != 3.2 || summary.AvgTemperature != 80 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.TypeDistribution["Centrifugal"] != 1 {
		t.Fatalf("unexpected distribution: %+v", summary.TypeDistribution)
	}
}

func TestServiceParseDropsIdentitylessRows(t *testing.T) {
	service := NewService(&stubUploadRepo{}, nil)

	// Second data row has neither name nor type and must be filtered out
	// without aborting the file; blank lines are skipped before filtering.
	data := "Name,Type,Flow\nPump-1,Pump,10\n,,5\n\n"
	req := Request{UserID: uuid.New(), FileName: "readings.csv", Data: strings.NewReader(data)}

	result, err := service.Parse(req)
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}

	if len(result.Rows) != 1 || result.DroppedRows != 1 {
		t.Fatalf("unexpected filter result: rows=%d dropped=%d", len(result.Rows), result.DroppedRows)
	}
}

func TestServiceParseRejectsNonCSV(t *testing.T) {
	service := NewService(&stubUploadRepo{}, nil)

	req := Request{UserID: uuid.New(), FileName: "readings.xlsx", Data: strings.NewReader("a,b\n1,2\n")}

	if _, err := service.Parse(req); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestServiceParseRejectsOversizedFile(t *testing.T) {
	service := NewService(&stubUploadRepo{}, nil)

	req := Request{
		UserID:   uuid.New(),
		FileName: "big.csv",
		Data:     bytes.NewReader(make([]byte, MaxFileSize+1)),
	}

	if _, err := service.Parse(req); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestServiceParseRejectsZeroRetainedRows(t *testing.T) {
	service := NewService(&stubUploadRepo{}, nil)

	// Headers resolve only numeric fields, so every row loses its identity
	// and the whole file reads as an invalid format.
	data := "Flow,Pressure\n1,2\n3,4\n"
	req := Request{UserID: uuid.New(), FileName: "readings.csv", Data: strings.NewReader(data)}

	if _, err := service.Parse(req); !errors.Is(err, ErrNoRetainedRows) {
		t.Fatalf("expected ErrNoRetainedRows, got %v", err)
	}
}

func TestServiceParseStripsByteOrderMark(t *testing.T) {
	service := NewService(&stubUploadRepo{}, nil)

	data := "\xEF\xBB\xBFName,Flow\nPump-1,10\n"
	req := Request{UserID: uuid.New(), FileName: "readings.csv", Data: strings.NewReader(data)}

	result, err := service.Parse(req)
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if _, ok := result.Columns[FieldName]; !ok {
		t.Fatalf("expected BOM-prefixed header to resolve, got %+v", result.Columns)
	}
}

func TestServicePreviewTruncatesRows(t *testing.T) {
	service := NewService(&stubUploadRepo{}, nil)

	var sb strings.Builder
	sb.WriteString("Name,Flow\n")
	for i := 0; i < 25; i++ {
		sb.WriteString("Pump,1\n")
	}
	req := Request{UserID: uuid.New(), FileName: "readings.csv", Data: strings.NewReader(sb.String())}

	result, err := service.Preview(req, 0)
	if err != nil {
		t.Fatalf("preview returned error: %v", err)
	}

	if len(result.Rows) != defaultPreviewRows {
		t.Fatalf("expected %d preview rows, got %d", defaultPreviewRows, len(result.Rows))
	}
	if result.TotalRows != 25 {
		t.Fatalf("expected counts over the whole file, got %d", result.TotalRows)
	}
	if result.Summary.TypeDistribution[domain.SentinelUnknown] != 25 {
		t.Fatalf("expected summary over the whole file, got %+v", result.Summary.TypeDistribution)
	}
}

func TestServiceIngestPersistsUploadWithRows(t *testing.T) {
	repo := &stubUploadRepo{}
	service := NewService(repo, nil)
	userID := uuid.New()

	data := "Name,Type,Flow\nPump-1,Pump,10\nValve-2,Valve,\n"
	req := Request{UserID: userID, FileName: "plant/readings.csv", Data: strings.NewReader(data)}

	upload, err := service.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("ingest returned error: %v", err)
	}

	if repo.created == nil {
		t.Fatalf("expected upload to be persisted")
	}
	if repo.retain != RetentionLimit {
		t.Fatalf("expected retention limit %d, got %d", RetentionLimit, repo.retain)
	}
	if upload.UserID != userID || upload.FileName != "readings.csv" || upload.RowCount != 2 {
		t.Fatalf("unexpected upload: %+v", upload)
	}
	if len(repo.createdRows) != 2 {
		t.Fatalf("expected 2 rows persisted, got %d", len(repo.createdRows))
	}
	for _, row := range repo.createdRows {
		if row.ID == uuid.Nil || row.UploadID != upload.ID {
			t.Fatalf("row not linked to upload: %+v", row)
		}
	}
}

func TestServiceIngestSurfacesStoreFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	service := NewService(&stubUploadRepo{err: storeErr}, nil)

	data := "Name,Flow\nPump-1,10\n"
	req := Request{UserID: uuid.New(), FileName: "readings.csv", Data: strings.NewReader(data)}

	if _, err := service.Ingest(context.Background(), req); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
}

type stubUploadRepo struct {
	created     *domain.Upload
	createdRows []domain.EquipmentRow
	retain      int
	err         error

	uploads []domain.Upload
	rows    []domain.EquipmentRow
	deleted []uuid.UUID
}

func (s *stubUploadRepo) CreateWithRows(ctx context.Context, upload domain.Upload, rows []domain.EquipmentRow, retain int) (domain.Upload, error) {
	if s.err != nil {
		return domain.Upload{}, s.err
	}
	s.created = &upload
	s.createdRows = rows
	s.retain = retain
	return upload, nil
}

func (s *stubUploadRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (domain.Upload, error) {
	if s.err != nil {
		return domain.Upload{}, s.err
	}
	for _, upload := range s.uploads {
		if upload.ID == id && upload.UserID == userID {
			return upload, nil
		}
	}
	return domain.Upload{}, repository.ErrNotFound
}

func (s *stubUploadRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Upload, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.uploads, nil
}

func (s *stubUploadRepo) ListRows(ctx context.Context, userID, uploadID uuid.UUID) ([]domain.EquipmentRow, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func (s *stubUploadRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

var _ repository.UploadRepository = (*stubUploadRepo)(nil)
