package file

import (
	"context"
	"database/sql"
	"fmt"
)

const fileColumns = `f.id, f.room_id, f.user_id, f.filename, f.original_filename, f.file_size,
	f.file_type, f.category, f.description, f.storage_path, f.visibility, f.is_encrypted,
	f.created_at, f.updated_at, u.username`

// Repository handles file metadata persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new file repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func scanFile(row interface{ Scan(...interface{}) error }) (*RoomFile, error) {
	f := &RoomFile{}
	err := row.Scan(
		&f.ID,
		&f.RoomID,
		&f.UserID,
		&f.Filename,
		&f.OriginalFilename,
		&f.FileSize,
		&f.FileType,
		&f.Category,
		&f.Description,
		&f.StoragePath,
		&f.Visibility,
		&f.IsEncrypted,
		&f.CreatedAt,
		&f.UpdatedAt,
		&f.UploaderUsername,
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Create inserts a new file metadata row
func (r *Repository) Create(ctx context.Context, f *RoomFile) (*RoomFile, error) {
	query := `
		INSERT INTO room_files (room_id, user_id, filename, original_filename, file_size,
		                        file_type, category, description, storage_path, visibility, is_encrypted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		f.RoomID, f.UserID, f.Filename, f.OriginalFilename, f.FileSize,
		f.FileType, f.Category, f.Description, f.StoragePath, f.Visibility, f.IsEncrypted,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	return f, nil
}

// GetByID retrieves a file within a room, nil when absent
func (r *Repository) GetByID(ctx context.Context, roomID, fileID int64) (*RoomFile, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM room_files f
		JOIN users u ON f.user_id = u.id
		WHERE f.id = $1 AND f.room_id = $2
	`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, fileID, roomID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	return f, nil
}

// ListByRoom retrieves a room's files, newest first, optionally filtered by category
func (r *Repository) ListByRoom(ctx context.Context, roomID int64, category Category, limit, offset int) ([]*RoomFile, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM room_files WHERE room_id = $1 AND ($2 = '' OR category = $2)`
	if err := r.db.QueryRowContext(ctx, countQuery, roomID, string(category)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count files: %w", err)
	}

	query := `
		SELECT ` + fileColumns + `
		FROM room_files f
		JOIN users u ON f.user_id = u.id
		WHERE f.room_id = $1 AND ($2 = '' OR f.category = $2)
		ORDER BY f.created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.QueryContext(ctx, query, roomID, string(category), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []*RoomFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}

	return files, total, nil
}

// UpdateVisibility sets a file's visibility flag
func (r *Repository) UpdateVisibility(ctx context.Context, roomID, fileID int64, visibility Visibility) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE room_files SET visibility = $3, updated_at = NOW()
		WHERE id = $1 AND room_id = $2
	`, fileID, roomID, visibility)
	if err != nil {
		return fmt.Errorf("failed to update visibility: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrFileNotFound
	}

	return nil
}

// Delete removes a file metadata row
func (r *Repository) Delete(ctx context.Context, roomID, fileID int64) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM room_files WHERE id = $1 AND room_id = $2
	`, fileID, roomID)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrFileNotFound
	}

	return nil
}
