package domain

import (
	"time"

	"github.com/google/uuid"
)

// UploadSummary aggregates the numeric readings across one upload's retained rows.
// Averages ignore null values; an average over zero non-null values reports 0
// so downstream displays always receive arithmetic totals.
type UploadSummary struct {
	AvgFlowrate      float64        `json:"avg_flowrate"`
	AvgPressure      float64        `json:"avg_pressure"`
	AvgTemperature   float64        `json:"avg_temperature"`
	TypeDistribution map[string]int `json:"type_distribution"`
}

// Upload represents one confirmed CSV ingestion batch. An upload is owned by
// exactly one user and its rows are owned by exactly one upload.
type Upload struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	FileName  string        `json:"file_name"`
	RowCount  int           `json:"row_count"`
	Summary   UploadSummary `json:"summary"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewUpload creates a new upload with immutable pattern
func NewUpload(userID uuid.UUID, fileName string, rowCount int, summary UploadSummary) Upload {
	return Upload{
		ID:        uuid.New(),
		UserID:    userID,
		FileName:  fileName,
		RowCount:  rowCount,
		Summary:   summary,
		CreatedAt: time.Now(),
	}
}
