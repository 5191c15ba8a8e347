package datastore

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lepinkainen/libris/internal/book"
)

// BooksTable is the table the catalog is exported to
const BooksTable = "books"

const booksSchema = `CREATE TABLE IF NOT EXISTS books (
	isbn TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	tags TEXT,
	genre TEXT,
	year_published INTEGER,
	rating REAL,
	description TEXT,
	pages INTEGER,
	language TEXT,
	added_at TEXT,
	updated_at TEXT
)`

// BookRecord flattens b into a row. Tags are comma-joined and timestamps
// are RFC 3339 strings; absent optional fields become NULL.
func BookRecord(b book.Book) map[string]any {
	return map[string]any{
		"isbn":           b.ISBN,
		"title":          b.Title,
		"author":         b.Author,
		"tags":           strings.Join(b.Tags, ","),
		"genre":          nullable(b.Genre),
		"year_published": nullable(b.YearPublished),
		"rating":         nullable(b.Rating),
		"description":    nullable(b.Description),
		"pages":          nullable(b.Pages),
		"language":       b.Language,
		"added_at":       b.AddedAt.UTC().Format(time.RFC3339),
		"updated_at":     b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// ExportBooks writes books to an already connected store. Stores that
// can replace a table swap the previous export out in one step; others
// upsert by ISBN.
func ExportBooks(s Store, books []book.Book) error {
	if err := s.CreateTable(booksSchema); err != nil {
		return err
	}

	records := make([]map[string]any, len(books))
	for i, b := range books {
		records[i] = BookRecord(b)
	}

	var err error
	if r, ok := s.(Replacer); ok {
		err = r.ReplaceAll(BooksTable, records)
	} else {
		err = s.BatchInsert(DatabaseName, BooksTable, records)
	}
	if err != nil {
		return err
	}
	slog.Info("Exported books", "table", BooksTable, "count", len(records))
	return nil
}

// ExportToSQLite replaces the books table of the SQLite file at dbPath.
func ExportToSQLite(dbPath string, books []book.Book) (err error) {
	store := NewSQLiteStore(dbPath)
	if err := store.Connect(); err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close database: %w", closeErr))
		}
	}()

	return ExportBooks(store, books)
}

// ExportToDatasette upserts books into a remote Datasette instance.
func ExportToDatasette(baseURL, apiToken string, books []book.Book) error {
	client := NewDatasetteClient(baseURL, apiToken)
	if err := client.Connect(); err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	return ExportBooks(client, books)
}
