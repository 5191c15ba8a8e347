package cmd

import (
	"fmt"

	"github.com/lepinkainen/libris/internal/book"
	liberrors "github.com/lepinkainen/libris/internal/errors"
	"github.com/lepinkainen/libris/internal/render"
)

// AddCmd adds a new record
type AddCmd struct {
	ISBN        string   `arg:"" help:"ISBN-10 or ISBN-13, hyphens and spaces allowed"`
	Title       string   `required:"" help:"Book title"`
	Author      string   `required:"" help:"Book author"`
	Tags        []string `name:"tag" short:"t" help:"Tag, repeatable or comma separated"`
	Genre       *string  `help:"Genre"`
	Year        *int     `help:"Year of publication"`
	Rating      *float64 `help:"Personal rating from 0 to 5"`
	Description *string  `help:"Free text description"`
	Pages       *int     `help:"Number of pages"`
	Language    string   `help:"Language of the edition (default English)"`
}

func (c *AddCmd) Run(app *App) error {
	lib, err := app.Library()
	if err != nil {
		return err
	}

	added, err := lib.Add(book.Book{
		ISBN:          c.ISBN,
		Title:         c.Title,
		Author:        c.Author,
		Tags:          c.Tags,
		Genre:         c.Genre,
		YearPublished: c.Year,
		Rating:        c.Rating,
		Description:   c.Description,
		Pages:         c.Pages,
		Language:      c.Language,
	})
	if err != nil {
		return err
	}
	return app.Render(added)
}

// UpdateCmd applies a partial update. Unset flags leave fields alone.
type UpdateCmd struct {
	ISBN        string   `arg:"" help:"ISBN of the book to update"`
	Title       *string  `help:"New title"`
	Author      *string  `help:"New author"`
	Tags        []string `name:"tag" short:"t" help:"Replace tags, repeatable or comma separated"`
	ClearTags   bool     `help:"Remove all tags"`
	Genre       *string  `help:"New genre"`
	Year        *int     `help:"New year of publication"`
	Rating      *float64 `help:"New rating from 0 to 5"`
	Description *string  `help:"New description"`
	Pages       *int     `help:"New page count"`
	Language    *string  `help:"New language"`

	ClearGenre       bool `help:"Remove the genre"`
	ClearYear        bool `help:"Remove the year of publication"`
	ClearRating      bool `help:"Remove the rating"`
	ClearDescription bool `help:"Remove the description"`
	ClearPages       bool `help:"Remove the page count"`
}

func (c *UpdateCmd) patch() (book.Patch, error) {
	p := book.Patch{
		Title:              c.Title,
		Author:             c.Author,
		Genre:              c.Genre,
		YearPublished:      c.Year,
		Rating:             c.Rating,
		Description:        c.Description,
		Pages:              c.Pages,
		Language:           c.Language,
		ClearGenre:         c.ClearGenre,
		ClearYearPublished: c.ClearYear,
		ClearRating:        c.ClearRating,
		ClearDescription:   c.ClearDescription,
		ClearPages:         c.ClearPages,
	}
	switch {
	case c.ClearTags && len(c.Tags) > 0:
		return book.Patch{}, liberrors.NewInvalidArgumentError("tag", "cannot combine --tag with --clear-tags")
	case c.ClearTags:
		p.Tags = book.Ptr([]string{})
	case len(c.Tags) > 0:
		p.Tags = book.Ptr(c.Tags)
	}
	return p, nil
}

func (c *UpdateCmd) Run(app *App) error {
	p, err := c.patch()
	if err != nil {
		return err
	}
	lib, err := app.Library()
	if err != nil {
		return err
	}
	updated, err := lib.Update(c.ISBN, p)
	if err != nil {
		return err
	}
	return app.Render(updated)
}

// RemoveCmd deletes a record
type RemoveCmd struct {
	ISBN string `arg:"" help:"ISBN of the book to remove"`
}

func (c *RemoveCmd) Run(app *App) error {
	lib, err := app.Library()
	if err != nil {
		return err
	}
	removed, err := lib.Remove(c.ISBN)
	if err != nil {
		return err
	}
	return app.Render(removed)
}

// GetCmd shows one record by ISBN or by catalog position
type GetCmd struct {
	ISBN  string `arg:"" optional:"" help:"ISBN of the book"`
	Index *int   `help:"Zero-based catalog position instead of an ISBN"`
}

func (c *GetCmd) Run(app *App) error {
	if (c.ISBN == "") == (c.Index == nil) {
		return liberrors.NewInvalidArgumentError("isbn", "give either an ISBN or --index")
	}
	lib, err := app.Library()
	if err != nil {
		return err
	}

	var b book.Book
	if c.Index != nil {
		b, err = lib.At(*c.Index)
	} else {
		b, err = lib.Get(c.ISBN)
	}
	if err != nil {
		return err
	}
	return app.Render(b)
}

// ListCmd prints every record in catalog order
type ListCmd struct{}

func (c *ListCmd) Run(app *App) error {
	lib, err := app.Library()
	if err != nil {
		return err
	}
	books, err := lib.ListAll()
	if err != nil {
		return err
	}
	return app.Render(books)
}

// CountCmd prints the catalog size
type CountCmd struct{}

type countResult struct {
	Count int `json:"count" yaml:"count"`
}

func (c *CountCmd) Run(app *App) error {
	lib, err := app.Library()
	if err != nil {
		return err
	}
	n := lib.Count()
	if app.Format == string(render.FormatText) {
		if n == 1 {
			return app.Render("1 book")
		}
		return app.Render(fmt.Sprintf("%d books", n))
	}
	return app.Render(countResult{Count: n})
}
