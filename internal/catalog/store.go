// Package catalog owns the authoritative ISBN → Book mapping and its
// JSON file persistence. All mutations run under one write lock, persist
// before they are committed in memory, and invalidate derived views.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lepinkainen/libris/internal/book"
	liberrors "github.com/lepinkainen/libris/internal/errors"
	"github.com/lepinkainen/libris/internal/fileutil"
)

// Invalidator is notified after every successful mutation
type Invalidator interface {
	InvalidateAll()
}

// Store is the single source of truth for the catalog.
type Store struct {
	mu          sync.RWMutex
	path        string
	backupPath  string
	maxBooks    int
	order       []string
	books       map[string]book.Book
	invalidator Invalidator
	now         func() time.Time
	writeFile   func(path string, data []byte, perm os.FileMode) error
}

// Option configures a Store
type Option func(*Store)

// WithBackupPath sets where the pre-write file content is copied.
// Defaults to "<path>.bak".
func WithBackupPath(path string) Option {
	return func(s *Store) {
		if path != "" {
			s.backupPath = path
		}
	}
}

// WithMaxBooks caps the catalog size. Zero means unlimited.
func WithMaxBooks(n int) Option {
	return func(s *Store) {
		s.maxBooks = n
	}
}

// WithInvalidator registers the cache to clear after each mutation
func WithInvalidator(inv Invalidator) Option {
	return func(s *Store) {
		s.invalidator = inv
	}
}

// WithClock overrides the time source used for added_at/updated_at
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty store backed by path. Call Load to read the file.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:       path,
		backupPath: path + ".bak",
		books:      make(map[string]book.Book),
		now:        time.Now,
		writeFile:  fileutil.WriteFileAtomic,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// BackupPath returns the backup file path
func (s *Store) BackupPath() string {
	return s.backupPath
}

// Add inserts a new record, stamps its timestamps and persists the catalog.
func (s *Store) Add(b book.Book) (book.Book, error) {
	b = b.Clone()
	if err := b.Normalize(); err != nil {
		return book.Book{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.books[b.ISBN]; exists {
		return book.Book{}, liberrors.NewDuplicateKeyError(b.ISBN)
	}
	if s.maxBooks > 0 && len(s.books) >= s.maxBooks {
		return book.Book{}, liberrors.NewCapacityExceededError(s.maxBooks)
	}

	now := s.now().UTC()
	b.AddedAt = now
	b.UpdatedAt = now

	records := append(s.snapshotLocked(), b)
	if err := s.persistLocked(records); err != nil {
		return book.Book{}, err
	}

	s.books[b.ISBN] = b
	s.order = append(s.order, b.ISBN)
	s.invalidateLocked()

	slog.Info("Book added", "isbn", b.ISBN, "title", b.Title, "count", len(s.order))
	return b.Clone(), nil
}

// AddResult is the outcome of one record passed to AddMany. Err is nil
// when the record was added.
type AddResult struct {
	Book book.Book
	Err  error
}

// AddMany inserts records the way Add does, but checks the whole batch
// under one lock and persists the catalog once. Records that fail
// validation, duplicate an existing ISBN or exceed the capacity get their
// error in the matching result; the others are added. The returned error
// is set only when the save fails, in which case nothing is added.
func (s *Store) AddMany(books []book.Book) ([]AddResult, error) {
	results := make([]AddResult, len(books))
	for i, b := range books {
		b = b.Clone()
		err := b.Normalize()
		results[i] = AddResult{Book: b, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	records := s.snapshotLocked()
	batch := make(map[string]bool)
	var added []book.Book

	for i := range results {
		r := &results[i]
		if r.Err != nil {
			continue
		}
		isbn := r.Book.ISBN
		if _, exists := s.books[isbn]; exists || batch[isbn] {
			r.Err = liberrors.NewDuplicateKeyError(isbn)
			continue
		}
		if s.maxBooks > 0 && len(s.books)+len(added) >= s.maxBooks {
			r.Err = liberrors.NewCapacityExceededError(s.maxBooks)
			continue
		}
		r.Book.AddedAt = now
		r.Book.UpdatedAt = now
		batch[isbn] = true
		added = append(added, r.Book)
	}

	if len(added) == 0 {
		return results, nil
	}
	if err := s.persistLocked(append(records, added...)); err != nil {
		return nil, err
	}

	for _, b := range added {
		s.books[b.ISBN] = b
		s.order = append(s.order, b.ISBN)
	}
	s.invalidateLocked()

	for i := range results {
		results[i].Book = results[i].Book.Clone()
	}

	slog.Info("Books added", "added", len(added), "rejected", len(books)-len(added), "count", len(s.order))
	return results, nil
}

// Update applies the provided patch fields to an existing record,
// re-validates it and persists the catalog.
func (s *Store) Update(isbn string, patch book.Patch) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := s.keyLocked(isbn)
	if err != nil {
		return book.Book{}, err
	}
	current, ok := s.books[key]
	if !ok {
		return book.Book{}, liberrors.NewNotFoundError(key)
	}
	if err := patch.Validate(); err != nil {
		return book.Book{}, err
	}

	// the ISBN cannot be patched, so it only needs to stay well formed
	next := patch.Apply(current)
	if _, err := next.NormalizeStored(); err != nil {
		return book.Book{}, err
	}
	next.ISBN = current.ISBN
	next.AddedAt = current.AddedAt
	next.UpdatedAt = s.now().UTC()

	records := s.snapshotLocked()
	for i := range records {
		if records[i].ISBN == key {
			records[i] = next
			break
		}
	}
	if err := s.persistLocked(records); err != nil {
		return book.Book{}, err
	}

	s.books[key] = next
	s.invalidateLocked()

	slog.Info("Book updated", "isbn", key, "title", next.Title)
	return next.Clone(), nil
}

// Remove deletes a record and persists the catalog.
func (s *Store) Remove(isbn string) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := s.keyLocked(isbn)
	if err != nil {
		return book.Book{}, err
	}
	removed, ok := s.books[key]
	if !ok {
		return book.Book{}, liberrors.NewNotFoundError(key)
	}

	records := make([]book.Book, 0, len(s.order)-1)
	order := make([]string, 0, len(s.order)-1)
	for _, k := range s.order {
		if k == key {
			continue
		}
		records = append(records, s.books[k])
		order = append(order, k)
	}
	if err := s.persistLocked(records); err != nil {
		return book.Book{}, err
	}

	delete(s.books, key)
	s.order = order
	s.invalidateLocked()

	slog.Info("Book removed", "isbn", key, "title", removed.Title, "count", len(s.order))
	return removed.Clone(), nil
}

// Get returns the record for isbn, in any accepted spelling.
func (s *Store) Get(isbn string) (book.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, err := s.keyLocked(isbn)
	if err != nil {
		return book.Book{}, err
	}
	b, ok := s.books[key]
	if !ok {
		return book.Book{}, liberrors.NewNotFoundError(key)
	}
	return b.Clone(), nil
}

// At returns the record at the given insertion-order position.
func (s *Store) At(index int) (book.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.order) {
		return book.Book{}, liberrors.NewNotFoundError(fmt.Sprintf("at index %d", index))
	}
	return s.books[s.order[index]].Clone(), nil
}

// ListAll returns every record in insertion order.
func (s *Store) ListAll() []book.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]book.Book, 0, len(s.order))
	for _, k := range s.order {
		result = append(result, s.books[k].Clone())
	}
	return result
}

// Count returns the number of records
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// keyLocked normalizes a lookup ISBN. A spelling whose check digit is
// wrong still matches a stored record loaded from an older catalog.
func (s *Store) keyLocked(isbn string) (string, error) {
	key, err := book.NormalizeISBN(isbn)
	if err == nil {
		return key, nil
	}
	if canonical, cerr := book.CanonicalISBN(isbn); cerr == nil {
		if _, ok := s.books[canonical]; ok {
			return canonical, nil
		}
	}
	return "", err
}

// snapshotLocked returns the records in order; callers hold s.mu.
func (s *Store) snapshotLocked() []book.Book {
	records := make([]book.Book, 0, len(s.order)+1)
	for _, k := range s.order {
		records = append(records, s.books[k])
	}
	return records
}

func (s *Store) invalidateLocked() {
	if s.invalidator != nil {
		s.invalidator.InvalidateAll()
	}
}
