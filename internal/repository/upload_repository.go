package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/equipsight/api/internal/db"
	"github.com/equipsight/api/internal/domain"
)

// uploadRepository implements UploadRepository interface
type uploadRepository struct {
	conn *db.Connection
}

// NewUploadRepository creates a new upload repository
func NewUploadRepository(conn *db.Connection) UploadRepository {
	return &uploadRepository{conn: conn}
}

// CreateWithRows persists the upload and its retained rows atomically. The
// retention trim runs in the same transaction, so a failed row batch never
// leaves an orphaned upload record and the cap holds at `retain` post-insert.
func (r *uploadRepository) CreateWithRows(ctx context.Context, upload domain.Upload, rows []domain.EquipmentRow, retain int) (domain.Upload, error) {
	summaryJSON, err := json.Marshal(upload.Summary)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("failed to marshal summary: %w", err)
	}

	if retain < 1 {
		retain = 1
	}

	err = r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		// Free a slot for the upload about to be inserted.
		existing, err := listUploadIDs(ctx, tx, upload.UserID)
		if err != nil {
			return err
		}
		if evict := evictOldest(existing, retain-1); len(evict) > 0 {
			if _, err := tx.Exec(ctx,
				`DELETE FROM uploads WHERE user_id = $1 AND id = ANY($2)`,
				upload.UserID, evict,
			); err != nil {
				return fmt.Errorf("failed to trim old uploads: %w", err)
			}
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO uploads (id, user_id, file_name, row_count, summary, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			upload.ID, upload.UserID, upload.FileName, upload.RowCount, summaryJSON, upload.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert upload: %w", err)
		}

		if len(rows) == 0 {
			return nil
		}

		source := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			row := rows[i]
			return []any{
				row.ID,
				upload.ID,
				i,
				row.EquipmentName,
				row.EquipmentType,
				row.Flowrate,
				row.Pressure,
				row.Temperature,
			}, nil
		})
		if _, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"equipment_rows"},
			[]string{"id", "upload_id", "row_index", "equipment_name", "equipment_type", "flowrate", "pressure", "temperature"},
			source,
		); err != nil {
			return fmt.Errorf("failed to copy equipment rows: %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Upload{}, err
	}

	return upload, nil
}

// listUploadIDs returns the user's upload ids, newest first.
func listUploadIDs(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx,
		`SELECT id FROM uploads WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list upload ids: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan upload id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate upload ids: %w", err)
	}
	return ids, nil
}

// evictOldest selects the uploads to delete so that at most keep remain.
// ids must be ordered newest first; everything past the first keep entries is
// evicted.
func evictOldest(ids []uuid.UUID, keep int) []uuid.UUID {
	if keep < 0 {
		keep = 0
	}
	if len(ids) <= keep {
		return nil
	}
	return ids[keep:]
}

// GetByID retrieves an upload owned by the given user
func (r *uploadRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (domain.Upload, error) {
	row := r.conn.Pool.QueryRow(ctx,
		`SELECT id, user_id, file_name, row_count, summary, created_at
		 FROM uploads
		 WHERE id = $1 AND user_id = $2`,
		id, userID,
	)

	upload, err := scanUpload(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Upload{}, ErrNotFound
		}
		return domain.Upload{}, fmt.Errorf("failed to get upload: %w", err)
	}
	return upload, nil
}

// ListByUser retrieves all uploads for a user, newest first
func (r *uploadRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Upload, error) {
	rows, err := r.conn.Pool.Query(ctx,
		`SELECT id, user_id, file_name, row_count, summary, created_at
		 FROM uploads
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	uploads := []domain.Upload{}
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, upload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate uploads: %w", err)
	}

	return uploads, nil
}

// ListRows retrieves the retained rows of an upload in their original order
func (r *uploadRepository) ListRows(ctx context.Context, userID, uploadID uuid.UUID) ([]domain.EquipmentRow, error) {
	// Join against uploads so a foreign upload id reads as not found rather
	// than leaking another user's rows.
	rows, err := r.conn.Pool.Query(ctx,
		`SELECT r.id, r.upload_id, r.equipment_name, r.equipment_type, r.flowrate, r.pressure, r.temperature
		 FROM equipment_rows r
		 JOIN uploads u ON u.id = r.upload_id
		 WHERE r.upload_id = $1 AND u.user_id = $2
		 ORDER BY r.row_index`,
		uploadID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment rows: %w", err)
	}
	defer rows.Close()

	result := []domain.EquipmentRow{}
	for rows.Next() {
		var row domain.EquipmentRow
		if err := rows.Scan(
			&row.ID,
			&row.UploadID,
			&row.EquipmentName,
			&row.EquipmentType,
			&row.Flowrate,
			&row.Pressure,
			&row.Temperature,
		); err != nil {
			return nil, fmt.Errorf("failed to scan equipment row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate equipment rows: %w", err)
	}

	return result, nil
}

// Delete removes an upload owned by the given user; rows cascade
func (r *uploadRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.conn.Pool.Exec(ctx,
		`DELETE FROM uploads WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUpload(row pgx.Row) (domain.Upload, error) {
	var (
		upload      domain.Upload
		summaryJSON []byte
	)
	if err := row.Scan(
		&upload.ID,
		&upload.UserID,
		&upload.FileName,
		&upload.RowCount,
		&summaryJSON,
		&upload.CreatedAt,
	); err != nil {
		return domain.Upload{}, err
	}
	if err := json.Unmarshal(summaryJSON, &upload.Summary); err != nil {
		return domain.Upload{}, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return upload, nil
}
