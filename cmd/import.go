package cmd

import (
	"log/slog"

	liberrors "github.com/lepinkainen/libris/internal/errors"
	"github.com/lepinkainen/libris/internal/goodreads"
)

// ImportCmd adds the books of a Goodreads library export
type ImportCmd struct {
	File string `arg:"" type:"existingfile" help:"goodreads_library_export.csv"`
}

type importResult struct {
	Imported int `json:"imported" yaml:"imported"`
	Existing int `json:"existing" yaml:"existing"`
	Invalid  int `json:"invalid" yaml:"invalid"`
}

func (c *ImportCmd) Run(app *App) error {
	books, skipped, err := goodreads.Load(c.File)
	if err != nil {
		return err
	}
	lib, err := app.Library()
	if err != nil {
		return err
	}

	results, err := lib.AddMany(books)
	if err != nil {
		return err
	}

	result := importResult{Invalid: len(skipped)}
	var capErr error
	for _, r := range results {
		switch {
		case r.Err == nil:
			result.Imported++
		case liberrors.IsDuplicateKeyError(r.Err):
			slog.Debug("Book already in catalog", "isbn", r.Book.ISBN)
			result.Existing++
		case liberrors.IsValidationError(r.Err):
			slog.Warn("Skipping invalid book", "isbn", r.Book.ISBN, "error", r.Err)
			result.Invalid++
		default:
			if capErr == nil {
				capErr = r.Err
			}
		}
	}

	slog.Info("Imported Goodreads export", "file", c.File, "imported", result.Imported,
		"existing", result.Existing, "invalid", result.Invalid)
	if capErr != nil {
		return capErr
	}
	return app.Render(result)
}
