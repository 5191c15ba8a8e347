package cmd

import (
	"fmt"
	"log/slog"

	"github.com/lepinkainen/libris/internal/book"
	"github.com/lepinkainen/libris/internal/datastore"
	"github.com/lepinkainen/libris/internal/openlibrary"
	"github.com/lepinkainen/libris/internal/render"
)

// ExportCmd copies the catalog into a SQLite file or a remote Datasette
type ExportCmd struct {
	DB        string `help:"SQLite database file (LIBRARY_DATASETTE_DB)"`
	RemoteURL string `help:"Datasette base URL; exports remotely instead of to a file"`
	APIToken  string `env:"DATASETTE_API_TOKEN" help:"Datasette API token"`
}

type exportResult struct {
	Destination string `json:"destination" yaml:"destination"`
	Count       int    `json:"count" yaml:"count"`
}

func (c *ExportCmd) Run(app *App) error {
	lib, err := app.Library()
	if err != nil {
		return err
	}
	books, err := lib.ListAll()
	if err != nil {
		return err
	}

	result := exportResult{Count: len(books)}
	if c.RemoteURL != "" {
		result.Destination = c.RemoteURL
		if err := datastore.ExportToDatasette(c.RemoteURL, c.APIToken, books); err != nil {
			return fmt.Errorf("failed to export to Datasette: %w", err)
		}
	} else {
		result.Destination = c.DB
		if result.Destination == "" {
			result.Destination = app.Config.DatasetteDB
		}
		if err := datastore.ExportToSQLite(result.Destination, books); err != nil {
			return fmt.Errorf("failed to export to SQLite: %w", err)
		}
	}
	return app.Render(result)
}

// EnrichCmd fills empty fields of a record from OpenLibrary
type EnrichCmd struct {
	ISBN   string `arg:"" help:"ISBN of the book to enrich"`
	DryRun bool   `help:"Show the changes without saving them"`
}

type enrichResult struct {
	ISBN    string     `json:"isbn" yaml:"isbn"`
	Changes book.Patch `json:"changes" yaml:"changes"`
}

func (c *EnrichCmd) Run(app *App) error {
	lib, err := app.Library()
	if err != nil {
		return err
	}
	existing, err := lib.Get(c.ISBN)
	if err != nil {
		return err
	}

	client := openlibrary.NewClient(app.Config.OpenLibraryURL, app.Config.OpenLibraryRPS)
	md, err := client.Lookup(app.Ctx, existing.ISBN)
	if err != nil {
		return err
	}

	patch := md.Patch(existing)
	if patch.IsEmpty() {
		slog.Info("Nothing to enrich", "isbn", existing.ISBN)
		if app.Format == string(render.FormatText) {
			return app.Render("Nothing to enrich for " + existing.ISBN)
		}
		return app.Render(enrichResult{ISBN: existing.ISBN, Changes: patch})
	}
	if c.DryRun {
		return app.Render(enrichResult{ISBN: existing.ISBN, Changes: patch})
	}

	updated, err := lib.Update(existing.ISBN, patch)
	if err != nil {
		return err
	}
	slog.Info("Enriched book", "isbn", updated.ISBN, "title", updated.Title)
	return app.Render(updated)
}
