package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dtnitsch/pdf-viewer/models"
)

// ErrNotFound is returned when a media id has no row.
var ErrNotFound = errors.New("not found")

// MediaRecord is one stored media file.
type MediaRecord struct {
	MediaID      string
	UploadID     string
	MimeType     string
	FilePath     string
	SizeBytes    int64
	OriginalName string
	CreatedAt    time.Time
	LastServedAt sql.NullTime
}

// LoadRecord is one document open attempt.
type LoadRecord struct {
	LoadID       int64
	Reference    string
	ResolvedURL  string
	Success      bool
	PageCount    int
	ErrorSummary sql.NullString
	ErrorRemedy  sql.NullString
	ErrorRaw     sql.NullString
	LoadedAt     time.Time
}

// InsertMedia stores a media file row. If the media id already exists the
// existing row is kept and created reports false.
func (db *DB) InsertMedia(rec MediaRecord) (created bool, err error) {
	if rec.MimeType == "" {
		rec.MimeType = "application/pdf"
	}
	result, err := db.Exec(`
		INSERT INTO media_files (media_id, upload_id, mime_type, file_path, size_bytes, original_name)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(media_id) DO NOTHING
	`, rec.MediaID, rec.UploadID, rec.MimeType, rec.FilePath, rec.SizeBytes, NewNullString(rec.OriginalName))
	if err != nil {
		return false, fmt.Errorf("failed to insert media: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// GetMedia returns the media row for id, or ErrNotFound.
func (db *DB) GetMedia(mediaID string) (*MediaRecord, error) {
	var rec MediaRecord
	var name sql.NullString
	err := db.QueryRow(`
		SELECT media_id, upload_id, mime_type, file_path, size_bytes, original_name, created_at, last_served_at
		FROM media_files
		WHERE media_id = ?
	`, mediaID).Scan(&rec.MediaID, &rec.UploadID, &rec.MimeType, &rec.FilePath, &rec.SizeBytes, &name, &rec.CreatedAt, &rec.LastServedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("media %s: %w", mediaID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	rec.OriginalName = name.String
	return &rec, nil
}

// ListMedia returns the most recently added media files, newest first.
func (db *DB) ListMedia(limit int) ([]MediaRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT media_id, upload_id, mime_type, file_path, size_bytes, original_name, created_at, last_served_at
		FROM media_files
		ORDER BY created_at DESC, media_id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []MediaRecord
	for rows.Next() {
		var rec MediaRecord
		var name sql.NullString
		if err := rows.Scan(&rec.MediaID, &rec.UploadID, &rec.MimeType, &rec.FilePath, &rec.SizeBytes, &name, &rec.CreatedAt, &rec.LastServedAt); err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		rec.OriginalName = name.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// TouchMedia marks a media file as served now.
func (db *DB) TouchMedia(mediaID string) error {
	_, err := db.Exec("UPDATE media_files SET last_served_at = CURRENT_TIMESTAMP WHERE media_id = ?", mediaID)
	if err != nil {
		return fmt.Errorf("failed to touch media: %w", err)
	}
	return nil
}

// DeleteMedia removes the media row. Deleting an unknown id returns ErrNotFound.
func (db *DB) DeleteMedia(mediaID string) error {
	result, err := db.Exec("DELETE FROM media_files WHERE media_id = ?", mediaID)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("media %s: %w", mediaID, ErrNotFound)
	}
	return nil
}

// RecordLoad records a document open attempt. A nil loadErr is a success.
func (db *DB) RecordLoad(reference, resolvedURL string, pageCount int, loadErr *models.LoadError) error {
	var summary, remedy, raw sql.NullString
	if loadErr != nil {
		summary = NewNullString(loadErr.Summary)
		remedy = NewNullString(loadErr.Remedy)
		raw = NewNullString(loadErr.Raw)
	}
	_, err := db.Exec(`
		INSERT INTO document_loads (reference, resolved_url, success, page_count, error_summary, error_remedy, error_raw)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, reference, resolvedURL, loadErr == nil, pageCount, summary, remedy, raw)
	if err != nil {
		return fmt.Errorf("failed to record load: %w", err)
	}
	return nil
}

// ListLoads returns recent load attempts, newest first. An empty reference
// lists loads of every reference.
func (db *DB) ListLoads(reference string, limit int) ([]LoadRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT load_id, reference, resolved_url, success, page_count, error_summary, error_remedy, error_raw, loaded_at
		FROM document_loads`
	args := []interface{}{}
	if reference != "" {
		query += " WHERE reference = ?"
		args = append(args, reference)
	}
	query += " ORDER BY load_id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var loads []LoadRecord
	for rows.Next() {
		var rec LoadRecord
		var resolved sql.NullString
		if err := rows.Scan(&rec.LoadID, &rec.Reference, &resolved, &rec.Success, &rec.PageCount,
			&rec.ErrorSummary, &rec.ErrorRemedy, &rec.ErrorRaw, &rec.LoadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}
		rec.ResolvedURL = resolved.String
		loads = append(loads, rec)
	}
	return loads, rows.Err()
}

// LastLoad returns the most recent load of reference, or nil if it was never loaded.
func (db *DB) LastLoad(reference string) (*LoadRecord, error) {
	loads, err := db.ListLoads(reference, 1)
	if err != nil {
		return nil, err
	}
	if len(loads) == 0 {
		return nil, nil
	}
	return &loads[0], nil
}

// NewNullString creates a sql.NullString from a string value.
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
