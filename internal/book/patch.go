package book

import (
	"slices"

	liberrors "github.com/lepinkainen/libris/internal/errors"
)

// Patch is a partial update. Nil fields are left untouched; the Clear*
// flags remove an optional attribute. ISBN and AddedAt cannot be patched.
type Patch struct {
	Title         *string   `json:"title,omitempty" yaml:"title,omitempty"`
	Author        *string   `json:"author,omitempty" yaml:"author,omitempty"`
	Tags          *[]string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Genre         *string   `json:"genre,omitempty" yaml:"genre,omitempty"`
	YearPublished *int      `json:"year_published,omitempty" yaml:"year_published,omitempty"`
	Rating        *float64  `json:"rating,omitempty" yaml:"rating,omitempty"`
	Description   *string   `json:"description,omitempty" yaml:"description,omitempty"`
	Pages         *int      `json:"pages,omitempty" yaml:"pages,omitempty"`
	Language      *string   `json:"language,omitempty" yaml:"language,omitempty"`

	ClearGenre         bool `json:"clear_genre,omitempty" yaml:"clear_genre,omitempty"`
	ClearYearPublished bool `json:"clear_year_published,omitempty" yaml:"clear_year_published,omitempty"`
	ClearRating        bool `json:"clear_rating,omitempty" yaml:"clear_rating,omitempty"`
	ClearDescription   bool `json:"clear_description,omitempty" yaml:"clear_description,omitempty"`
	ClearPages         bool `json:"clear_pages,omitempty" yaml:"clear_pages,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.Tags == nil && p.Genre == nil &&
		p.YearPublished == nil && p.Rating == nil && p.Description == nil &&
		p.Pages == nil && p.Language == nil &&
		!p.ClearGenre && !p.ClearYearPublished && !p.ClearRating &&
		!p.ClearDescription && !p.ClearPages
}

// Validate rejects empty patches and patches that both set and clear a field.
func (p Patch) Validate() error {
	if p.IsEmpty() {
		return liberrors.NewValidationError("patch", "no fields to update")
	}
	conflicts := []struct {
		field string
		set   bool
		clear bool
	}{
		{"genre", p.Genre != nil, p.ClearGenre},
		{"year_published", p.YearPublished != nil, p.ClearYearPublished},
		{"rating", p.Rating != nil, p.ClearRating},
		{"description", p.Description != nil, p.ClearDescription},
		{"pages", p.Pages != nil, p.ClearPages},
	}
	for _, c := range conflicts {
		if c.set && c.clear {
			return liberrors.NewValidationError(c.field, "cannot be set and cleared in the same update")
		}
	}
	return nil
}

// Apply returns a copy of b with the patch applied field by field.
// The result is not normalized; callers run Normalize on it.
func (p Patch) Apply(b Book) Book {
	out := b.Clone()

	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Author != nil {
		out.Author = *p.Author
	}
	if p.Tags != nil {
		out.Tags = slices.Clone(*p.Tags)
	}
	if p.Language != nil {
		out.Language = *p.Language
	}

	out.Genre = applyOptional(out.Genre, p.Genre, p.ClearGenre)
	out.YearPublished = applyOptional(out.YearPublished, p.YearPublished, p.ClearYearPublished)
	out.Rating = applyOptional(out.Rating, p.Rating, p.ClearRating)
	out.Description = applyOptional(out.Description, p.Description, p.ClearDescription)
	out.Pages = applyOptional(out.Pages, p.Pages, p.ClearPages)

	return out
}

func applyOptional[T any](current, value *T, clear bool) *T {
	if clear {
		return nil
	}
	if value != nil {
		v := *value
		return &v
	}
	return current
}
