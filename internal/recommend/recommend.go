// Package recommend ranks catalog records either by the caller's
// preferences or by similarity to a reference book.
package recommend

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/lepinkainen/libris/internal/book"
	liberrors "github.com/lepinkainen/libris/internal/errors"
)

const (
	// DefaultLimit applies when a request leaves Limit at zero
	DefaultLimit = 5
	// MaxLimit is the hard ceiling applied to every request
	MaxLimit = 1000
)

// Mode names the strategy that produced a result.
type Mode string

const (
	ModePreference Mode = "preference"
	ModeSimilarity Mode = "similarity"
)

// Request describes what to recommend. BasedOnISBN takes precedence over
// the preference fields when both are set.
type Request struct {
	PreferredGenres []string
	MinRating       *float64
	BasedOnISBN     string
	Limit           int
}

// Recommendation is one ranked candidate.
type Recommendation struct {
	Book   book.Book `json:"book" yaml:"book"`
	Score  float64   `json:"score" yaml:"score"`
	Reason string    `json:"reason" yaml:"reason"`
}

// Mode reports which strategy r selects
func (r Request) Mode() Mode {
	if strings.TrimSpace(r.BasedOnISBN) != "" {
		return ModeSimilarity
	}
	return ModePreference
}

// Prepare validates r and returns it in canonical form: the reference ISBN
// normalized, genres folded and sorted, the limit defaulted and clamped.
func Prepare(r Request) (Request, error) {
	switch {
	case r.Limit < 0:
		return Request{}, liberrors.NewInvalidArgumentError("limit", "must not be negative, got %d", r.Limit)
	case r.Limit == 0:
		r.Limit = DefaultLimit
	case r.Limit > MaxLimit:
		r.Limit = MaxLimit
	}

	if r.Mode() == ModeSimilarity {
		// the reference only has to name a stored record, and stored
		// records may predate checksum verification
		isbn, err := book.CanonicalISBN(r.BasedOnISBN)
		if err != nil {
			return Request{}, err
		}
		return Request{BasedOnISBN: isbn, Limit: r.Limit}, nil
	}

	if r.MinRating != nil {
		m := *r.MinRating
		if math.IsNaN(m) || m < book.MinRating || m > book.MaxRating {
			return Request{}, liberrors.NewInvalidArgumentError("min_rating", "must be between %.1f and %.1f", book.MinRating, book.MaxRating)
		}
		r.MinRating = &m
	}

	var genres []string
	for _, g := range r.PreferredGenres {
		folded := book.Fold(strings.TrimSpace(g))
		if folded != "" && !slices.Contains(genres, folded) {
			genres = append(genres, folded)
		}
	}
	slices.Sort(genres)
	r.PreferredGenres = genres

	return r, nil
}

// CacheKey identifies the result set of a prepared request.
func (r Request) CacheKey() string {
	if r.Mode() == ModeSimilarity {
		return fmt.Sprintf("recommend:similar:%s:%d", r.BasedOnISBN, r.Limit)
	}
	minRating := "-"
	if r.MinRating != nil {
		minRating = strconv.FormatFloat(*r.MinRating, 'f', -1, 64)
	}
	return fmt.Sprintf("recommend:prefs:%s:%s:%d", strings.Join(r.PreferredGenres, "|"), minRating, r.Limit)
}

// Run ranks books for r. The returned records share their pointer fields
// with books.
func Run(books []book.Book, r Request) ([]Recommendation, error) {
	r, err := Prepare(r)
	if err != nil {
		return nil, err
	}

	var results []Recommendation
	if r.Mode() == ModeSimilarity {
		results, err = bySimilarity(books, r.BasedOnISBN)
		if err != nil {
			return nil, err
		}
	} else {
		results = byPreference(books, r)
	}

	if len(results) > r.Limit {
		results = results[:r.Limit]
	}
	return results, nil
}

func byPreference(books []book.Book, r Request) []Recommendation {
	results := make([]Recommendation, 0)
	for _, b := range books {
		if len(r.PreferredGenres) > 0 {
			if b.Genre == nil || !slices.Contains(r.PreferredGenres, book.Fold(*b.Genre)) {
				continue
			}
		}
		if r.MinRating != nil && (b.Rating == nil || *b.Rating < *r.MinRating) {
			continue
		}
		results = append(results, Recommendation{
			Book:   b,
			Score:  ratingOrZero(b),
			Reason: preferenceReason(b, r),
		})
	}

	slices.SortStableFunc(results, func(a, b Recommendation) int {
		return cmp.Or(
			compareRatingDesc(a.Book, b.Book),
			b.Book.AddedAt.Compare(a.Book.AddedAt),
			cmp.Compare(a.Book.ISBN, b.Book.ISBN),
		)
	})
	return results
}

func bySimilarity(books []book.Book, isbn string) ([]Recommendation, error) {
	idx := slices.IndexFunc(books, func(b book.Book) bool { return b.ISBN == isbn })
	if idx < 0 {
		return nil, liberrors.NewNotFoundError(isbn)
	}
	ref := books[idx]

	results := make([]Recommendation, 0, len(books)-1)
	for _, b := range books {
		if b.ISBN == ref.ISBN {
			continue
		}
		shared := sharedTags(ref, b)
		sameGenre := ref.Genre != nil && b.Genre != nil && book.Fold(*ref.Genre) == book.Fold(*b.Genre)

		score := len(shared)
		if sameGenre {
			score++
		}
		results = append(results, Recommendation{
			Book:   b,
			Score:  float64(score),
			Reason: similarityReason(ref, shared, sameGenre),
		})
	}

	slices.SortStableFunc(results, func(a, b Recommendation) int {
		return cmp.Or(
			cmp.Compare(b.Score, a.Score),
			compareRatingDesc(a.Book, b.Book),
			cmp.Compare(book.Fold(a.Book.Title), book.Fold(b.Book.Title)),
			cmp.Compare(a.Book.ISBN, b.Book.ISBN),
		)
	})
	return results, nil
}

// compareRatingDesc orders higher ratings first and unrated records last
func compareRatingDesc(a, b book.Book) int {
	switch {
	case a.Rating == nil && b.Rating == nil:
		return 0
	case a.Rating == nil:
		return 1
	case b.Rating == nil:
		return -1
	}
	return cmp.Compare(*b.Rating, *a.Rating)
}

func sharedTags(ref, candidate book.Book) []string {
	var shared []string
	for _, tag := range candidate.Tags {
		if ref.HasTag(tag) {
			shared = append(shared, tag)
		}
	}
	return shared
}

func ratingOrZero(b book.Book) float64 {
	if b.Rating == nil {
		return 0
	}
	return *b.Rating
}

func preferenceReason(b book.Book, r Request) string {
	var parts []string
	if len(r.PreferredGenres) > 0 {
		parts = append(parts, "matches preferred genre "+b.GenreOr(""))
	}
	if b.Rating != nil {
		parts = append(parts, fmt.Sprintf("rated %.1f", *b.Rating))
	}
	if len(parts) == 0 {
		return "in your library"
	}
	return strings.Join(parts, ", ")
}

func similarityReason(ref book.Book, shared []string, sameGenre bool) string {
	var parts []string
	if sameGenre {
		parts = append(parts, "same genre as "+ref.Title)
	}
	if len(shared) > 0 {
		parts = append(parts, "shares tags: "+strings.Join(shared, ", "))
	}
	if len(parts) == 0 {
		return "no overlap with " + ref.Title
	}
	return strings.Join(parts, "; ")
}
