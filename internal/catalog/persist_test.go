package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/libris/internal/book"
	liberrors "github.com/lepinkainen/libris/internal/errors"
	"github.com/lepinkainen/libris/internal/testutil"
)

func TestLoad_MissingFileYieldsEmptyCatalog(t *testing.T) {
	env := testutil.NewTestEnv(t)
	s := New(env.Path("books.json"))

	require.NoError(t, s.Load())
	assert.Equal(t, 0, s.Count())
	assert.False(t, env.FileExists("books.json"))
}

func TestLoad_BlankFileYieldsEmptyCatalog(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("books.json", "  \n\t")
	s := New(env.Path("books.json"))

	require.NoError(t, s.Load())
	assert.Equal(t, 0, s.Count())
}

func TestSaveThenLoad_RoundTrip(t *testing.T) {
	s, env := newTestStore(t)

	full := selfishGene()
	full.YearPublished = book.Ptr(1976)
	full.Pages = book.Ptr(360)
	full.Description = book.Ptr("Gene-centred view of evolution")
	full.Language = "English"
	_, err := s.Add(full)
	require.NoError(t, err)
	_, err = s.Add(book.Book{ISBN: "0-441-17271-7", Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)

	reloaded := New(env.Path("books.json"))
	require.NoError(t, reloaded.Load())

	assert.Equal(t, s.ListAll(), reloaded.ListAll())
}

func TestSave_WritesVersionedFormat(t *testing.T) {
	s, env := newTestStore(t)
	_, err := s.Add(selfishGene())
	require.NoError(t, err)

	var file struct {
		Format  string           `json:"format"`
		Version int              `json:"version"`
		Books   []map[string]any `json:"books"`
	}
	require.NoError(t, json.Unmarshal(env.ReadFile("books.json"), &file))

	assert.Equal(t, FormatMarker, file.Format)
	assert.Equal(t, SchemaVersion, file.Version)
	require.Len(t, file.Books, 1)
	assert.Equal(t, "9780241952702", file.Books[0]["isbn"])
	assert.NotContains(t, file.Books[0], "pages")
}

func TestLoad_LegacyArray(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("books.json", `[
  {"title": "Dune", "author": "Frank Herbert", "isbn": "0-441-17271-7", "tags": ["SciFi", "classic", "scifi"]},
  {"title": "Sapiens", "author": "Yuval Noah Harari", "isbn": "978-0-14-312755-0", "tags": []}
]`)

	s := New(env.Path("books.json"), WithClock(tickingClock()))
	require.NoError(t, s.Load())
	require.Equal(t, 2, s.Count())

	dune, err := s.Get("0441172717")
	require.NoError(t, err)
	assert.Equal(t, []string{"scifi", "classic"}, dune.Tags)
	assert.Equal(t, book.DefaultLanguage, dune.Language)
	assert.False(t, dune.AddedAt.IsZero())
	assert.Equal(t, dune.AddedAt, dune.UpdatedAt)

	first, err := s.At(0)
	require.NoError(t, err)
	assert.Equal(t, "Dune", first.Title)

	// the first mutation rewrites the file in the versioned format
	_, err = s.Remove("9780143127550")
	require.NoError(t, err)
	env.AssertFileContains("books.json", `"format": "libris-catalog"`)
	env.AssertFileContains("books.json.bak", `"title": "Sapiens"`)
}

func TestLoad_LegacyArrayWithUncheckedISBN(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("books.json", `[
  {"title": "Test Book", "author": "Test Author", "isbn": "978-1234567890", "tags": ["test"]},
  {"title": "Dune", "author": "Frank Herbert", "isbn": "0-441-17271-7"}
]`)

	s := New(env.Path("books.json"), WithClock(tickingClock()))
	require.NoError(t, s.Load())
	require.Equal(t, 2, s.Count())

	got, err := s.Get("978-1234567890")
	require.NoError(t, err)
	assert.Equal(t, "9781234567890", got.ISBN)

	updated, err := s.Update("9781234567890", book.Patch{Rating: book.Ptr(3.0)})
	require.NoError(t, err)
	assert.Equal(t, 3.0, *updated.Rating)

	// the rewritten versioned file still loads
	reloaded := New(env.Path("books.json"), WithClock(tickingClock()))
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 2, reloaded.Count())

	removed, err := reloaded.Remove("9781234567890")
	require.NoError(t, err)
	assert.Equal(t, "Test Book", removed.Title)

	// new records still need a valid check digit
	_, err = reloaded.Add(book.Book{ISBN: "9781234567891", Title: "Other", Author: "Someone"})
	assert.True(t, liberrors.IsValidationError(err))
}

func TestLoad_CorruptFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "truncated json", content: `{"format": "libris-catalog", "version": 1, "books": [`},
		{name: "not json", content: `title,author,isbn`},
		{name: "wrong marker", content: `{"format": "something-else", "version": 1, "books": []}`},
		{name: "missing marker", content: `{"version": 1, "books": []}`},
		{name: "future version", content: `{"format": "libris-catalog", "version": 2, "books": []}`},
		{name: "scalar", content: `42`},
		{name: "invalid record", content: `[{"title": "No ISBN", "author": "Nobody", "isbn": "123"}]`},
		{name: "invalid rating", content: `[{"title": "Dune", "author": "Frank Herbert", "isbn": "0441172717", "rating": 9}]`},
		{
			name:    "duplicate isbn",
			content: `[{"title": "Dune", "author": "Frank Herbert", "isbn": "0441172717"}, {"title": "Dune again", "author": "Frank Herbert", "isbn": "0-441-17271-7"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewTestEnv(t)
			env.WriteFileString("books.json", tt.content)
			inv := &countingInvalidator{}
			s := New(env.Path("books.json"), WithInvalidator(inv))

			err := s.Load()
			require.Error(t, err)
			assert.True(t, liberrors.IsCorruptStoreError(err))

			var corrupt *liberrors.CorruptStoreError
			require.ErrorAs(t, err, &corrupt)
			assert.Equal(t, env.Path("books.json"), corrupt.Path)

			assert.Equal(t, 0, s.Count())
			assert.Equal(t, tt.content, env.ReadFileString("books.json"))
			assert.Equal(t, int64(1), inv.calls.Load())
		})
	}
}

func TestLoad_ReplacesPreviousContent(t *testing.T) {
	s, env := newTestStore(t)
	_, err := s.Add(selfishGene())
	require.NoError(t, err)

	env.WriteFileString("books.json", `[{"title": "Dune", "author": "Frank Herbert", "isbn": "0441172717"}]`)
	require.NoError(t, s.Load())

	require.Equal(t, 1, s.Count())
	_, err = s.Get("9780241952702")
	assert.True(t, liberrors.IsNotFoundError(err))
}

func TestBackup_HoldsPreMutationContent(t *testing.T) {
	s, env := newTestStore(t)

	_, err := s.Add(selfishGene())
	require.NoError(t, err)
	assert.False(t, env.FileExists("books.json.bak"), "no backup before the first save")

	afterFirst := env.ReadFileString("books.json")

	_, err = s.Add(sapiens())
	require.NoError(t, err)
	assert.Equal(t, afterFirst, env.ReadFileString("books.json.bak"))

	afterSecond := env.ReadFileString("books.json")
	_, err = s.Remove("9780241952702")
	require.NoError(t, err)
	assert.Equal(t, afterSecond, env.ReadFileString("books.json.bak"))
}

func TestBackup_CustomPath(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.MkdirAll("backups")
	s := New(env.Path("books.json"), WithBackupPath(env.Path("backups", "catalog.json")))
	require.NoError(t, s.Load())
	assert.Equal(t, env.Path("backups", "catalog.json"), s.BackupPath())

	_, err := s.Add(selfishGene())
	require.NoError(t, err)
	_, err = s.Add(sapiens())
	require.NoError(t, err)

	env.RequireFileExists("backups/catalog.json")
	env.RequireFileNotExists("books.json.bak")
}

func TestBackup_FailureIsNotFatal(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("not-a-dir", "plain file")

	s := New(env.Path("books.json"), WithBackupPath(env.Path("not-a-dir", "books.bak")))
	require.NoError(t, s.Load())

	_, err := s.Add(selfishGene())
	require.NoError(t, err)
	_, err = s.Add(sapiens())
	require.NoError(t, err, "a failed backup must not fail the save")

	reloaded := New(env.Path("books.json"))
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 2, reloaded.Count())
}

func TestSave_NoTempFilesLeftBehind(t *testing.T) {
	s, env := newTestStore(t)
	for _, b := range []book.Book{selfishGene(), sapiens()} {
		_, err := s.Add(b)
		require.NoError(t, err)
	}

	files := env.ListFiles(".")
	assert.ElementsMatch(t, []string{"books.json", "books.json.bak"}, files)
}
