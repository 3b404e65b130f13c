package repository

import (
	"context"
	"errors"

	"github.com/equipsight/api/internal/domain"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record does not exist or is owned by a
// different user.
var ErrNotFound = errors.New("record not found")

// ProfileRepository defines the interface for profile operations
type ProfileRepository interface {
	Create(ctx context.Context, profile domain.Profile) (domain.Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Profile, error)
	GetByToken(ctx context.Context, token string) (domain.Profile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UploadRepository defines the interface for upload operations. Every read
// and write is scoped by the owning user id.
type UploadRepository interface {
	// CreateWithRows persists the upload and its retained rows in a single
	// transaction, first trimming the user's oldest uploads so at most
	// retain uploads exist after the insert.
	CreateWithRows(ctx context.Context, upload domain.Upload, rows []domain.EquipmentRow, retain int) (domain.Upload, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (domain.Upload, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Upload, error)
	ListRows(ctx context.Context, userID, uploadID uuid.UUID) ([]domain.EquipmentRow, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
