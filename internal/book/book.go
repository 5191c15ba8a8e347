// Package book defines the Book record stored in the catalog together with
// its normalization and validation rules.
package book

import (
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	liberrors "github.com/lepinkainen/libris/internal/errors"
)

const (
	// DefaultLanguage is used when a record does not name its language
	DefaultLanguage = "English"

	MaxTitleLength  = 500
	MaxAuthorLength = 200

	MinYearPublished = 1000
	MinRating        = 0.0
	MaxRating        = 5.0
)

// Book is a single catalog record keyed by its canonical ISBN.
// Optional attributes are pointers so that "absent" differs from zero.
type Book struct {
	ISBN          string    `json:"isbn" yaml:"isbn"`
	Title         string    `json:"title" yaml:"title"`
	Author        string    `json:"author" yaml:"author"`
	Tags          []string  `json:"tags" yaml:"tags"`
	Genre         *string   `json:"genre,omitempty" yaml:"genre,omitempty"`
	YearPublished *int      `json:"year_published,omitempty" yaml:"year_published,omitempty"`
	Rating        *float64  `json:"rating,omitempty" yaml:"rating,omitempty"`
	Description   *string   `json:"description,omitempty" yaml:"description,omitempty"`
	Pages         *int      `json:"pages,omitempty" yaml:"pages,omitempty"`
	Language      string    `json:"language" yaml:"language"`
	AddedAt       time.Time `json:"added_at" yaml:"added_at"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at"`
}

// Ptr returns a pointer to v. Handy for filling optional fields.
func Ptr[T any](v T) *T {
	return &v
}

// Normalize cleans the record in place and validates every field.
// The first offending field is reported as a ValidationError.
func (b *Book) Normalize() error {
	return b.normalize(NormalizeISBN)
}

// NormalizeStored is Normalize for records already in a catalog file.
// Older catalogs stored ISBNs without verifying the check digit, so only
// the ISBN format is enforced; checksumOK reports whether it verified.
func (b *Book) NormalizeStored() (checksumOK bool, err error) {
	if err := b.normalize(CanonicalISBN); err != nil {
		return false, err
	}
	return ValidISBNChecksum(b.ISBN), nil
}

func (b *Book) normalize(normalizeISBN func(string) (string, error)) error {
	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" {
		return liberrors.NewValidationError("title", "must not be empty")
	}
	if utf8.RuneCountInString(b.Title) > MaxTitleLength {
		return liberrors.NewValidationError("title", "must be at most %d characters", MaxTitleLength)
	}

	b.Author = strings.TrimSpace(b.Author)
	if b.Author == "" {
		return liberrors.NewValidationError("author", "must not be empty")
	}
	if utf8.RuneCountInString(b.Author) > MaxAuthorLength {
		return liberrors.NewValidationError("author", "must be at most %d characters", MaxAuthorLength)
	}

	isbn, err := normalizeISBN(b.ISBN)
	if err != nil {
		return err
	}
	b.ISBN = isbn

	tags, err := NormalizeTags(b.Tags)
	if err != nil {
		return err
	}
	b.Tags = tags

	b.Genre = trimOptional(b.Genre)
	b.Description = trimOptional(b.Description)

	b.Language = strings.TrimSpace(b.Language)
	if b.Language == "" {
		b.Language = DefaultLanguage
	}

	if b.YearPublished != nil {
		maxYear := time.Now().Year() + 1
		if *b.YearPublished < MinYearPublished || *b.YearPublished > maxYear {
			return liberrors.NewValidationError("year_published", "must be between %d and %d", MinYearPublished, maxYear)
		}
	}

	if b.Rating != nil {
		r := *b.Rating
		if math.IsNaN(r) || r < MinRating || r > MaxRating {
			return liberrors.NewValidationError("rating", "must be between %.1f and %.1f", MinRating, MaxRating)
		}
	}

	if b.Pages != nil && *b.Pages <= 0 {
		return liberrors.NewValidationError("pages", "must be positive")
	}

	return nil
}

// Clone returns a deep copy so callers cannot mutate catalog state.
func (b Book) Clone() Book {
	c := b
	c.Tags = slices.Clone(b.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	c.Genre = clonePtr(b.Genre)
	c.YearPublished = clonePtr(b.YearPublished)
	c.Rating = clonePtr(b.Rating)
	c.Description = clonePtr(b.Description)
	c.Pages = clonePtr(b.Pages)
	return c
}

// GenreOr returns the genre or fallback when the record has none.
func (b Book) GenreOr(fallback string) string {
	if b.Genre == nil {
		return fallback
	}
	return *b.Genre
}

// HasTag reports whether the record carries the given (normalized) tag.
func (b Book) HasTag(tag string) bool {
	return slices.Contains(b.Tags, tag)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
