// Package goodreads turns a Goodreads library export into catalog records.
package goodreads

import (
	"io"
	"strconv"
	"strings"

	"github.com/lepinkainen/libris/internal/book"
	"github.com/lepinkainen/libris/internal/csvutil"
	liberrors "github.com/lepinkainen/libris/internal/errors"
)

// Columns of goodreads_library_export.csv that we read
const (
	ColumnTitle          = "Title"
	ColumnAuthor         = "Author"
	ColumnISBN           = "ISBN"
	ColumnISBN13         = "ISBN13"
	ColumnMyRating       = "My Rating"
	ColumnPages          = "Number of Pages"
	ColumnYearPublished  = "Year Published"
	ColumnOriginalYear   = "Original Publication Year"
	ColumnBookshelves    = "Bookshelves"
	ColumnExclusiveShelf = "Exclusive Shelf"
)

var requiredColumns = []string{ColumnTitle, ColumnAuthor, ColumnISBN, ColumnISBN13}

// Load reads the export at path. Rows that cannot become a valid record
// are returned as skipped instead of failing the whole file.
func Load(path string) ([]book.Book, []csvutil.Skipped, error) {
	return csvutil.ProcessFile(path, ParseRecord, csvutil.Options{
		RequiredColumns: requiredColumns,
		SkipInvalid:     true,
	})
}

// Read is Load for an already open export.
func Read(r io.Reader) ([]book.Book, []csvutil.Skipped, error) {
	return csvutil.Process(r, ParseRecord, csvutil.Options{
		RequiredColumns: requiredColumns,
		SkipInvalid:     true,
	})
}

// ParseRecord maps one export row to a normalized Book.
func ParseRecord(row csvutil.Row) (book.Book, error) {
	isbn := sanitizeISBNValue(row.Get(ColumnISBN13))
	if isbn == "" {
		isbn = sanitizeISBNValue(row.Get(ColumnISBN))
	}
	if isbn == "" {
		return book.Book{}, liberrors.NewValidationError("isbn", "row has no ISBN")
	}

	b := book.Book{
		ISBN:   isbn,
		Title:  row.Get(ColumnTitle),
		Author: row.Get(ColumnAuthor),
		Tags:   shelves(row),
	}

	// Goodreads writes 0 for books the reader never rated
	if rating := parseFloatField(row.Get(ColumnMyRating)); rating > 0 {
		b.Rating = book.Ptr(rating)
	}
	if pages := parseIntField(row.Get(ColumnPages)); pages > 0 {
		b.Pages = book.Ptr(pages)
	}
	if year := publicationYear(row); year > 0 {
		b.YearPublished = book.Ptr(year)
	}

	if err := b.Normalize(); err != nil {
		return book.Book{}, err
	}
	return b, nil
}

// publicationYear prefers the original publication year. Years before
// MinYearPublished are dropped rather than rejected.
func publicationYear(row csvutil.Row) int {
	for _, col := range []string{ColumnOriginalYear, ColumnYearPublished} {
		if year := parseIntField(row.Get(col)); year >= book.MinYearPublished {
			return year
		}
	}
	return 0
}

// shelves returns the exclusive shelf followed by the other bookshelves
func shelves(row csvutil.Row) []string {
	var tags []string
	if shelf := row.Get(ColumnExclusiveShelf); shelf != "" {
		tags = append(tags, shelf)
	}
	return append(tags, splitString(row.Get(ColumnBookshelves))...)
}

func parseIntField(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func parseFloatField(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

// sanitizeISBNValue strips the ="..." wrapper Goodreads puts around ISBNs
func sanitizeISBNValue(value string) string {
	trimmed := strings.TrimSuffix(value, "\"")
	trimmed = strings.TrimPrefix(trimmed, "=\"")
	return strings.TrimSpace(trimmed)
}

func splitString(str string) []string {
	if str == "" {
		return nil
	}
	parts := strings.Split(str, ",")
	for i, s := range parts {
		parts[i] = strings.TrimSpace(s)
	}
	return parts
}
