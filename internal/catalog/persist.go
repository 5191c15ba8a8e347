package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lepinkainen/libris/internal/book"
	liberrors "github.com/lepinkainen/libris/internal/errors"
	"github.com/lepinkainen/libris/internal/fileutil"
)

const (
	// FormatMarker identifies a libris catalog file
	FormatMarker = "libris-catalog"
	// SchemaVersion is the version written by Save. Version 0 is the bare
	// JSON array used before the marker existed.
	SchemaVersion = 1
)

type catalogFile struct {
	Format  string      `json:"format"`
	Version int         `json:"version"`
	SavedAt time.Time   `json:"saved_at"`
	Books   []book.Book `json:"books"`
}

// Load replaces the in-memory catalog with the backing file's content.
// A missing or blank file yields an empty catalog; a file that cannot be
// parsed yields a CorruptStoreError and leaves the catalog empty.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.books = make(map[string]book.Book)
	s.order = nil
	defer s.invalidateLocked()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		slog.Info("Catalog file not found, starting with an empty catalog", "path", s.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}

	records, version, err := decodeCatalog(data, s.now().UTC())
	if err != nil {
		return liberrors.NewCorruptStoreError(s.path, err)
	}

	for _, b := range records {
		s.books[b.ISBN] = b
		s.order = append(s.order, b.ISBN)
	}

	slog.Info("Catalog loaded", "path", s.path, "books", len(s.order), "version", version)
	return nil
}

// decodeCatalog parses either the versioned object format or the legacy bare
// array. Every record is normalized and duplicates are rejected. ISBNs with
// a wrong check digit are kept with a warning, as older catalogs never
// verified them.
func decodeCatalog(data []byte, loadedAt time.Time) ([]book.Book, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, SchemaVersion, nil
	}

	var records []book.Book
	version := 0

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, 0, fmt.Errorf("failed to parse legacy book list: %w", err)
		}
	case '{':
		var file catalogFile
		if err := json.Unmarshal(trimmed, &file); err != nil {
			return nil, 0, fmt.Errorf("failed to parse catalog: %w", err)
		}
		if file.Format != FormatMarker {
			return nil, 0, fmt.Errorf("unknown format marker %q", file.Format)
		}
		if file.Version < 1 || file.Version > SchemaVersion {
			return nil, 0, fmt.Errorf("unsupported schema version %d", file.Version)
		}
		records = file.Books
		version = file.Version
	default:
		return nil, 0, errors.New("catalog must be a JSON object or array")
	}

	seen := make(map[string]bool, len(records))
	for i := range records {
		b := &records[i]
		checksumOK, err := b.NormalizeStored()
		if err != nil {
			return nil, 0, fmt.Errorf("record %d: %w", i, err)
		}
		if !checksumOK {
			slog.Warn("Stored ISBN has an invalid check digit", "record", i, "isbn", b.ISBN, "title", b.Title)
		}
		if seen[b.ISBN] {
			return nil, 0, fmt.Errorf("record %d: duplicate ISBN %s", i, b.ISBN)
		}
		seen[b.ISBN] = true

		if b.AddedAt.IsZero() {
			b.AddedAt = loadedAt
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = b.AddedAt
		}
	}

	return records, version, nil
}

// persistLocked writes records to the backing file. The current file is
// first copied to the backup path; a backup failure is only logged.
func (s *Store) persistLocked(records []book.Book) error {
	data, err := fileutil.MarshalJSON(catalogFile{
		Format:  FormatMarker,
		Version: SchemaVersion,
		SavedAt: s.now().UTC(),
		Books:   records,
	})
	if err != nil {
		return err
	}

	if copied, err := fileutil.CopyFile(s.path, s.backupPath); err != nil {
		slog.Warn("Failed to back up catalog file", "path", s.path, "backup", s.backupPath, "error", err)
	} else if copied {
		slog.Debug("Catalog file backed up", "backup", s.backupPath)
	}

	if err := s.writeFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}

	slog.Debug("Catalog saved", "path", s.path, "books", len(records))
	return nil
}
