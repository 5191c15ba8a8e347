package search

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/lepinkainen/libris/internal/book"
	liberrors "github.com/lepinkainen/libris/internal/errors"
)

func testBooks() []book.Book {
	return []book.Book{
		{ISBN: "9780241952702", Title: "The Selfish Gene", Author: "Richard Dawkins", Genre: book.Ptr("Science"), Tags: []string{"evolution", "biology"}},
		{ISBN: "9780441172719", Title: "Dune", Author: "Frank Herbert", Genre: book.Ptr("Science Fiction"), Tags: []string{"classic", "desert"}},
		{ISBN: "9780143127550", Title: "Sapiens", Author: "Yuval Noah Harari", Genre: book.Ptr("History"), Tags: []string{"anthropology"}},
		{ISBN: "9780553293357", Title: "Foundation", Author: "Isaac Asimov", Genre: book.Ptr("Science Fiction"), Tags: []string{"classic", "empire"}},
		{ISBN: "9780316769488", Title: "The Catcher in the Rye", Author: "J. D. Salinger", Tags: []string{"coming-of-age"}},
		{ISBN: "9780062316097", Title: "Les Misérables", Author: "Victor Hugo", Genre: book.Ptr("ÉPOPÉE"), Tags: []string{"france"}},
	}
}

func isbns(books []book.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ISBN
	}
	return out
}

func TestRun(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{
			name:  "genre substring keeps catalog order",
			query: Query{Text: "science", Type: TypeGenre, Limit: 10},
			want:  []string{"9780241952702", "9780441172719", "9780553293357"},
		},
		{
			name:  "genre truncated at limit",
			query: Query{Text: "science", Type: TypeGenre, Limit: 2},
			want:  []string{"9780241952702", "9780441172719"},
		},
		{
			name:  "title is case insensitive",
			query: Query{Text: "THE", Type: TypeTitle, Limit: 10},
			want:  []string{"9780241952702", "9780316769488"},
		},
		{
			name:  "author",
			query: Query{Text: "asimov", Type: TypeAuthor, Limit: 10},
			want:  []string{"9780553293357"},
		},
		{
			name:  "tag substring",
			query: Query{Text: "class", Type: TypeTag, Limit: 10},
			want:  []string{"9780441172719", "9780553293357"},
		},
		{
			name:  "all covers every field",
			query: Query{Text: "history", Type: TypeAll, Limit: 10},
			want:  []string{"9780143127550"},
		},
		{
			name:  "all matches tags",
			query: Query{Text: "desert", Type: TypeAll, Limit: 10},
			want:  []string{"9780441172719"},
		},
		{
			name:  "unicode folding",
			query: Query{Text: "misérables", Type: TypeTitle, Limit: 10},
			want:  []string{"9780062316097"},
		},
		{
			name:  "unicode folding on genre",
			query: Query{Text: "épopée", Type: TypeGenre, Limit: 10},
			want:  []string{"9780062316097"},
		},
		{
			name:  "books without genre never match genre search",
			query: Query{Text: "e", Type: TypeGenre, Limit: 10},
			want:  []string{"9780241952702", "9780441172719", "9780553293357", "9780062316097"},
		},
		{
			name:  "empty query matches everything up to limit",
			query: Query{Text: "   ", Type: TypeAll, Limit: 3},
			want:  []string{"9780241952702", "9780441172719", "9780143127550"},
		},
		{
			name:  "no match",
			query: Query{Text: "cookbook", Type: TypeAll, Limit: 10},
			want:  []string{},
		},
		{
			name:  "empty type means all",
			query: Query{Text: "hugo", Limit: 10},
			want:  []string{"9780062316097"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Run(testBooks(), tt.query)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, isbns(got))
		})
	}
}

func TestRun_InvalidArguments(t *testing.T) {
	tests := []struct {
		name     string
		query    Query
		argument string
	}{
		{name: "zero limit", query: Query{Text: "x", Type: TypeAll, Limit: 0}, argument: "limit"},
		{name: "negative limit", query: Query{Text: "x", Type: TypeAll, Limit: -5}, argument: "limit"},
		{name: "unknown type", query: Query{Text: "x", Type: "publisher", Limit: 5}, argument: "search_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(testBooks(), tt.query)
			assert.Error(t, err)
			assert.True(t, liberrors.IsInvalidArgumentError(err))
			assert.Contains(t, err.Error(), tt.argument)
		})
	}
}

func TestRun_LimitClampedToCeiling(t *testing.T) {
	books := make([]book.Book, 0, MaxLimit+50)
	for i := 0; i < MaxLimit+50; i++ {
		books = append(books, book.Book{Title: "Volume", Author: "Anon"})
	}

	got, err := Run(books, Query{Text: "volume", Type: TypeTitle, Limit: 5000})
	assert.NoError(t, err)
	assert.Equal(t, MaxLimit, len(got))
}

func TestParseType(t *testing.T) {
	for _, name := range []string{"title", "TITLE", " Title "} {
		got, err := ParseType(name)
		assert.NoError(t, err)
		assert.Equal(t, TypeTitle, got)
	}

	got, err := ParseType("")
	assert.NoError(t, err)
	assert.Equal(t, TypeAll, got)

	_, err = ParseType("isbn")
	assert.True(t, liberrors.IsInvalidArgumentError(err))
}

func TestPrepareAndCacheKey(t *testing.T) {
	a, err := Prepare(Query{Text: "  Science ", Type: "GENRE", Limit: 2000})
	assert.NoError(t, err)
	assert.Equal(t, Query{Text: "Science", Type: TypeGenre, Limit: MaxLimit}, a)

	b, err := Prepare(Query{Text: "science", Type: TypeGenre, Limit: MaxLimit})
	assert.NoError(t, err)
	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.Equal(t, "search:genre:1000:science", a.CacheKey())

	c, err := Prepare(Query{Text: "science", Type: TypeGenre, Limit: 5})
	assert.NoError(t, err)
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
}
