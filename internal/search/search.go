// Package search filters the catalog by case-insensitive substring match.
package search

import (
	"fmt"
	"strings"

	"github.com/lepinkainen/libris/internal/book"
	liberrors "github.com/lepinkainen/libris/internal/errors"
)

const (
	// DefaultLimit is used by callers that do not ask for a specific size
	DefaultLimit = 10
	// MaxLimit is the hard ceiling applied to every request
	MaxLimit = 1000
)

// Type selects which fields a query is matched against.
type Type string

const (
	TypeTitle  Type = "title"
	TypeAuthor Type = "author"
	TypeGenre  Type = "genre"
	TypeTag    Type = "tag"
	TypeAll    Type = "all"
)

// Types lists every supported search type
var Types = []Type{TypeTitle, TypeAuthor, TypeGenre, TypeTag, TypeAll}

// ParseType parses a search type name case-insensitively. An empty name
// means TypeAll.
func ParseType(s string) (Type, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return TypeAll, nil
	}
	for _, t := range Types {
		if string(t) == name {
			return t, nil
		}
	}
	return "", liberrors.NewInvalidArgumentError("search_type", "unknown search type %q (expected one of %s)", s, typeNames())
}

func typeNames() string {
	names := make([]string, len(Types))
	for i, t := range Types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// Query is a single search request.
type Query struct {
	Text  string
	Type  Type
	Limit int
}

// Prepare validates q and returns it in canonical form: text trimmed,
// type parsed and limit clamped to MaxLimit.
func Prepare(q Query) (Query, error) {
	t, err := ParseType(string(q.Type))
	if err != nil {
		return Query{}, err
	}
	if q.Limit <= 0 {
		return Query{}, liberrors.NewInvalidArgumentError("limit", "must be positive, got %d", q.Limit)
	}

	limit := min(q.Limit, MaxLimit)
	return Query{
		Text:  strings.TrimSpace(q.Text),
		Type:  t,
		Limit: limit,
	}, nil
}

// CacheKey identifies the query's result set. Call on a prepared query.
func (q Query) CacheKey() string {
	return fmt.Sprintf("search:%s:%d:%s", q.Type, q.Limit, book.Fold(q.Text))
}

// Run returns the books matching q in catalog order, truncated to the limit.
// The returned records share their pointer fields with books.
func Run(books []book.Book, q Query) ([]book.Book, error) {
	q, err := Prepare(q)
	if err != nil {
		return nil, err
	}

	needle := book.Fold(q.Text)
	results := make([]book.Book, 0, min(len(books), q.Limit))
	for _, b := range books {
		if len(results) >= q.Limit {
			break
		}
		if matches(b, q.Type, needle) {
			results = append(results, b)
		}
	}
	return results, nil
}

func matches(b book.Book, t Type, needle string) bool {
	if needle == "" {
		return true
	}

	switch t {
	case TypeTitle:
		return contains(b.Title, needle)
	case TypeAuthor:
		return contains(b.Author, needle)
	case TypeGenre:
		return b.Genre != nil && contains(*b.Genre, needle)
	case TypeTag:
		return anyTagContains(b.Tags, needle)
	default:
		return contains(b.Title, needle) ||
			contains(b.Author, needle) ||
			(b.Genre != nil && contains(*b.Genre, needle)) ||
			anyTagContains(b.Tags, needle)
	}
}

func anyTagContains(tags []string, needle string) bool {
	for _, tag := range tags {
		if contains(tag, needle) {
			return true
		}
	}
	return false
}

func contains(haystack, foldedNeedle string) bool {
	return strings.Contains(book.Fold(haystack), foldedNeedle)
}
