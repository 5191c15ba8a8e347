package cmd

import (
	"github.com/lepinkainen/libris/internal/recommend"
)

// SearchCmd runs a case-insensitive substring search
type SearchCmd struct {
	Query string `arg:"" optional:"" help:"Text to look for, empty matches every book"`
	Type  string `short:"t" default:"all" help:"Field to search: title, author, genre, tag or all"`
	Limit int    `short:"n" default:"10" help:"Maximum number of results"`
}

func (c *SearchCmd) Run(app *App) error {
	lib, err := app.Library()
	if err != nil {
		return err
	}
	results, err := lib.Search(c.Query, c.Type, c.Limit)
	if err != nil {
		return err
	}
	return app.Render(results)
}

// StatsCmd prints the summary and optional grouping
type StatsCmd struct {
	GroupBy string `short:"g" default:"none" help:"Group by genre, author, rating, language or none"`
}

func (c *StatsCmd) Run(app *App) error {
	lib, err := app.Library()
	if err != nil {
		return err
	}
	report, err := lib.Statistics(c.GroupBy)
	if err != nil {
		return err
	}
	return app.Render(report)
}

// RecommendCmd recommends by genre preference or by similarity to a book
type RecommendCmd struct {
	Genres    []string `name:"genre" help:"Preferred genre, repeatable or comma separated"`
	MinRating *float64 `help:"Only books rated at least this"`
	BasedOn   string   `help:"ISBN of a book to find similar books for; overrides the preference flags"`
	Limit     int      `short:"n" default:"5" help:"Maximum number of recommendations"`
}

func (c *RecommendCmd) Run(app *App) error {
	lib, err := app.Library()
	if err != nil {
		return err
	}
	recs, err := lib.Recommend(recommend.Request{
		PreferredGenres: c.Genres,
		MinRating:       c.MinRating,
		BasedOnISBN:     c.BasedOn,
		Limit:           c.Limit,
	})
	if err != nil {
		return err
	}
	return app.Render(recs)
}
