package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/libris/internal/book"
	liberrors "github.com/lepinkainen/libris/internal/errors"
)

func fixture() []book.Book {
	return []book.Book{
		{ISBN: "9780241952702", Title: "The Selfish Gene", Author: "Richard Dawkins", Genre: book.Ptr("Science"), Rating: book.Ptr(4.0), Tags: []string{"evolution", "biology"}, Language: "English"},
		{ISBN: "9780143127550", Title: "Sapiens", Author: "Yuval Noah Harari", Genre: book.Ptr("Science"), Tags: []string{"history", "biology"}, Language: "English"},
		{ISBN: "9780547928227", Title: "The Hobbit", Author: "J. R. R. Tolkien", Genre: book.Ptr("Science"), Rating: book.Ptr(5.0), Tags: []string{"classic"}, Language: "English"},
		{ISBN: "9780441172719", Title: "Dune", Author: "Frank Herbert", Genre: book.Ptr("Science Fiction"), Rating: book.Ptr(4.6), Tags: []string{"classic", "biology"}, Language: "Finnish"},
		{ISBN: "9780553293357", Title: "Foundation", Author: "Isaac Asimov", Tags: []string{"classic"}, Language: "English"},
		{ISBN: "9780765326355", Title: "The Way of Kings", Author: "Isaac Asimov", Rating: book.Ptr(4.6), Tags: []string{"epic"}, Language: "English"},
	}
}

func findGroup(t *testing.T, report Report, key string) Group {
	t.Helper()
	for _, g := range report.Groups {
		if g.Key == key {
			return g
		}
	}
	t.Fatalf("group %q not found in %+v", key, report.Groups)
	return Group{}
}

func TestCompute_GroupAverageSkipsUnrated(t *testing.T) {
	report, err := Compute(fixture(), GroupByGenre)
	require.NoError(t, err)

	science := findGroup(t, report, "Science")
	assert.Equal(t, 3, science.Count)
	require.NotNil(t, science.AverageRating)
	assert.InDelta(t, 4.5, *science.AverageRating, 1e-9)
}

func TestCompute_ByGenre(t *testing.T) {
	report, err := Compute(fixture(), GroupByGenre)
	require.NoError(t, err)

	keys := make([]string, len(report.Groups))
	for i, g := range report.Groups {
		keys[i] = g.Key
	}
	assert.Equal(t, []string{"Science", "Unknown", "Science Fiction"}, keys)

	unknown := findGroup(t, report, UnknownKey)
	assert.Equal(t, 2, unknown.Count)
	require.NotNil(t, unknown.AverageRating)
	assert.InDelta(t, 4.6, *unknown.AverageRating, 1e-9)
}

func TestCompute_GroupWithoutRatingsHasNilAverage(t *testing.T) {
	books := []book.Book{
		{Author: "Anon", Genre: book.Ptr("Poetry")},
		{Author: "Anon", Genre: book.Ptr("Poetry")},
	}

	report, err := Compute(books, GroupByGenre)
	require.NoError(t, err)
	require.Len(t, report.Groups, 1)
	assert.Nil(t, report.Groups[0].AverageRating)
	assert.Nil(t, report.Summary.AverageRating)
}

func TestCompute_ByRating(t *testing.T) {
	report, err := Compute(fixture(), GroupByRating)
	require.NoError(t, err)

	expected := []Group{
		{Key: "4.6", Count: 2, AverageRating: book.Ptr(4.6)},
		{Key: "Unknown", Count: 2},
		{Key: "4.0", Count: 1, AverageRating: book.Ptr(4.0)},
		{Key: "5.0", Count: 1, AverageRating: book.Ptr(5.0)},
	}
	assert.Equal(t, expected, report.Groups)
}

func TestCompute_ByAuthorAndLanguage(t *testing.T) {
	byAuthor, err := Compute(fixture(), GroupByAuthor)
	require.NoError(t, err)
	require.Len(t, byAuthor.Groups, 5)
	assert.Equal(t, "Isaac Asimov", byAuthor.Groups[0].Key)
	assert.Equal(t, 2, byAuthor.Groups[0].Count)

	byLanguage, err := Compute(fixture(), GroupByLanguage)
	require.NoError(t, err)
	assert.Equal(t, "English", byLanguage.Groups[0].Key)
	assert.Equal(t, 5, byLanguage.Groups[0].Count)
	assert.Equal(t, "Finnish", byLanguage.Groups[1].Key)
}

func TestCompute_Summary(t *testing.T) {
	report, err := Compute(fixture(), GroupByNone)
	require.NoError(t, err)

	assert.Empty(t, report.Groups)
	s := report.Summary
	assert.Equal(t, 6, s.TotalBooks)
	require.NotNil(t, s.AverageRating)
	assert.InDelta(t, (4.0+5.0+4.6+4.6)/4, *s.AverageRating, 1e-9)
	assert.Equal(t, 5, s.UniqueAuthors)
	assert.Equal(t, 2, s.UniqueGenres)
	assert.Equal(t, 5, s.UniqueTags)
	assert.Equal(t, []TagCount{
		{Tag: "biology", Count: 3},
		{Tag: "classic", Count: 3},
		{Tag: "epic", Count: 1},
		{Tag: "evolution", Count: 1},
		{Tag: "history", Count: 1},
	}, s.MostCommonTags)
}

func TestCompute_EmptyCatalog(t *testing.T) {
	report, err := Compute(nil, GroupByGenre)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Summary.TotalBooks)
	assert.Nil(t, report.Summary.AverageRating)
	assert.Empty(t, report.Groups)
	assert.Empty(t, report.Summary.MostCommonTags)
}

func TestCompute_UnknownGroupBy(t *testing.T) {
	_, err := Compute(fixture(), GroupBy("publisher"))
	require.Error(t, err)
	assert.True(t, liberrors.IsInvalidArgumentError(err))
}

func TestParseGroupBy(t *testing.T) {
	g, err := ParseGroupBy("Genre")
	require.NoError(t, err)
	assert.Equal(t, GroupByGenre, g)

	g, err = ParseGroupBy("")
	require.NoError(t, err)
	assert.Equal(t, GroupByNone, g)
	assert.Equal(t, "stats:none", g.CacheKey())
}

func TestReportClone(t *testing.T) {
	report, err := Compute(fixture(), GroupByGenre)
	require.NoError(t, err)

	clone := report.Clone()
	*clone.Groups[0].AverageRating = 0
	clone.Summary.MostCommonTags[0].Count = 99

	assert.InDelta(t, 4.5, *report.Groups[0].AverageRating, 1e-9)
	assert.Equal(t, 3, report.Summary.MostCommonTags[0].Count)
}
