package mediastore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dtnitsch/pdf-viewer/internal/common"
	"github.com/dtnitsch/pdf-viewer/pkg/db"
	"github.com/dtnitsch/pdf-viewer/pkg/storage"
	"github.com/dtnitsch/pdf-viewer/pkg/urlresolver"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

const (
	MimeType  = "application/pdf"
	Extension = ".pdf"
)

var (
	// ErrEmpty is returned for zero-length content.
	ErrEmpty = errors.New("empty content")
	// ErrNotFound is returned for unknown media ids.
	ErrNotFound = errors.New("media not found")
)

var pdfMagic = []byte("%PDF-")

// Media describes a stored file.
type Media struct {
	ID        string `yaml:"id"`
	URL       string `yaml:"url"` // host-relative reference
	Path      string `yaml:"path"`
	SizeBytes int64  `yaml:"size_bytes"`
	Name      string `yaml:"name,omitempty"`
	Created   bool   `yaml:"created"` // false when the content was already stored
}

// Store keeps media metadata in sqlite and content on disk.
type Store struct {
	db      *db.DB
	storage *storage.Storage
	logger  *slog.Logger
}

// New creates a Store. A nil logger uses slog.Default().
func New(database *db.DB, st *storage.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: database, storage: st, logger: logger}
}

// URLFor returns the host-relative reference of a media id.
func URLFor(id string) string {
	return urlresolver.MediaPrefix + id + Extension
}

// ParseMediaPath extracts the id from /media/<id>.pdf. The id must be a
// lower-case hex sha256.
func ParseMediaPath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, urlresolver.MediaPrefix)
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, Extension)
	if !ok || !isHexID(id) {
		return "", false
	}
	return id, true
}

func isHexID(id string) bool {
	if len(id) != 64 {
		return false
	}
	for _, r := range id {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

// IsPassthrough reports whether ref is used by the viewer as-is.
func IsPassthrough(ref string) bool {
	return strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "data:application/pdf")
}

// ProcessReference converts a document reference into one the viewer can
// load. Empty stays empty, URLs and PDF data URIs pass through, anything
// else is read as a local file and stored.
func (s *Store) ProcessReference(ref string) (string, error) {
	if ref == "" || IsPassthrough(ref) {
		return ref, nil
	}
	m, err := s.AddFile(ref)
	if err != nil {
		return "", err
	}
	return m.URL, nil
}

// AddFile stores the file at path.
func (s *Store) AddFile(path string) (*Media, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return s.AddBytes(data, path)
}

// AddReader stores everything read from r.
func (s *Store) AddReader(r io.Reader, name string) (*Media, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to read media: %w", err)
	}
	return s.AddBytes(buf.Bytes(), name)
}

// AddBytes stores data under its content hash.
func (s *Store) AddBytes(data []byte, name string) (*Media, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to add media: %w", ErrEmpty)
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		s.logger.Warn("media does not start with a PDF header", "name", name)
	}

	id := common.ContentHash(data)
	path := s.storage.MediaPath(id, Extension)
	if !s.storage.HasFile(path) {
		if err := s.storage.SaveFile(path, data); err != nil {
			return nil, fmt.Errorf("failed to store media: %w", err)
		}
	}

	created, err := s.db.InsertMedia(db.MediaRecord{
		MediaID:      id,
		UploadID:     uuid.NewString(),
		MimeType:     MimeType,
		FilePath:     path,
		SizeBytes:    int64(len(data)),
		OriginalName: name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register media: %w", err)
	}

	m := &Media{
		ID:        id,
		URL:       URLFor(id),
		Path:      path,
		SizeBytes: int64(len(data)),
		Name:      name,
		Created:   created,
	}
	s.logger.Info("media added", "id", id, "size", humanize.Bytes(uint64(len(data))), "created", created)
	return m, nil
}

// Open returns a reader for a stored media file with its metadata.
// Callers close the file.
func (s *Store) Open(id string) (*os.File, *db.MediaRecord, error) {
	rec, err := s.db.GetMedia(id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, fmt.Errorf("media %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	f, err := s.storage.Open(rec.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("media row without file", "id", id, "path", rec.FilePath)
		return nil, nil, fmt.Errorf("media %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := s.db.TouchMedia(id); err != nil {
		s.logger.Warn("failed to update last served time", "id", id, "error", err)
	}
	return f, rec, nil
}

// List returns recently added media.
func (s *Store) List(limit int) ([]Media, error) {
	records, err := s.db.ListMedia(limit)
	if err != nil {
		return nil, err
	}
	media := make([]Media, 0, len(records))
	for _, r := range records {
		media = append(media, Media{
			ID:        r.MediaID,
			URL:       URLFor(r.MediaID),
			Path:      r.FilePath,
			SizeBytes: r.SizeBytes,
			Name:      r.OriginalName,
		})
	}
	return media, nil
}

// Remove deletes the media row and its file.
func (s *Store) Remove(id string) error {
	rec, err := s.db.GetMedia(id)
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("media %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if err := s.db.DeleteMedia(id); err != nil {
		return err
	}
	if err := s.storage.Remove(rec.FilePath); err != nil {
		return err
	}
	s.logger.Info("media removed", "id", id)
	return nil
}
