package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	liberrors "github.com/lepinkainen/libris/internal/errors"
)

func TestPatch_IsEmpty(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())
	assert.False(t, Patch{Rating: Ptr(3.0)}.IsEmpty())
	assert.False(t, Patch{ClearGenre: true}.IsEmpty())
}

func TestPatch_Validate(t *testing.T) {
	err := Patch{}.Validate()
	require.Error(t, err)
	assert.True(t, liberrors.IsValidationError(err))

	err = Patch{Genre: Ptr("Science"), ClearGenre: true}.Validate()
	var vErr *liberrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "genre", vErr.Field)

	require.NoError(t, Patch{Title: Ptr("New")}.Validate())
}

func TestPatch_ApplyOnlyProvidedFields(t *testing.T) {
	orig := validBook()
	require.NoError(t, orig.Normalize())

	p := Patch{
		Rating:      Ptr(4.9),
		Tags:        &[]string{"Classic"},
		ClearPages:  true,
		Description: Ptr("Gene-centred view of evolution"),
	}
	got := p.Apply(orig)

	assert.Equal(t, orig.Title, got.Title)
	assert.Equal(t, orig.Author, got.Author)
	assert.Equal(t, orig.ISBN, got.ISBN)
	assert.Equal(t, *orig.Genre, *got.Genre)
	assert.Equal(t, 4.9, *got.Rating)
	assert.Equal(t, []string{"Classic"}, got.Tags)
	assert.Nil(t, got.Pages)
	require.NotNil(t, got.Description)

	// the original is untouched
	assert.Equal(t, 4.2, *orig.Rating)
	assert.Equal(t, 360, *orig.Pages)
	assert.Nil(t, orig.Description)
}
