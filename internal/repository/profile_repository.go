package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/equipsight/api/internal/db"
	"github.com/equipsight/api/internal/domain"
)

// profileRepository implements ProfileRepository interface
type profileRepository struct {
	conn *db.Connection
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(conn *db.Connection) ProfileRepository {
	return &profileRepository{conn: conn}
}

// Create creates a new profile
func (r *profileRepository) Create(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	_, err := r.conn.Pool.Exec(ctx,
		`INSERT INTO profiles (id, email, api_token, created_at)
		 VALUES ($1, $2, $3, $4)`,
		profile.ID, profile.Email, profile.APIToken, profile.CreatedAt,
	)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

// GetByID retrieves a profile by ID
func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Profile, error) {
	row := r.conn.Pool.QueryRow(ctx,
		`SELECT id, email, api_token, created_at FROM profiles WHERE id = $1`,
		id,
	)
	return scanProfile(row)
}

// GetByToken retrieves a profile by its API token
func (r *profileRepository) GetByToken(ctx context.Context, token string) (domain.Profile, error) {
	row := r.conn.Pool.QueryRow(ctx,
		`SELECT id, email, api_token, created_at FROM profiles WHERE api_token = $1`,
		token,
	)
	return scanProfile(row)
}

// Delete removes a profile; uploads and rows cascade
func (r *profileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn.Pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var profile domain.Profile
	if err := row.Scan(&profile.ID, &profile.Email, &profile.APIToken, &profile.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}
