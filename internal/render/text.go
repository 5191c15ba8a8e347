package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/libris/internal/book"
	"github.com/lepinkainen/libris/internal/recommend"
	"github.com/lepinkainen/libris/internal/stats"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("110"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("254"))
	ratingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("247"))
)

func writeText(w io.Writer, v any) error {
	var out string
	switch val := v.(type) {
	case book.Book:
		out = bookDetail(val)
	case []book.Book:
		out = bookList(val)
	case stats.Report:
		out = report(val)
	case []recommend.Recommendation:
		out = recommendations(val)
	case string:
		out = val
	default:
		// everything else reads fine as YAML
		return writeYAML(w, v)
	}

	_, err := fmt.Fprintln(w, out)
	return err
}

func rating(r *float64) string {
	if r == nil {
		return mutedStyle.Render("unrated")
	}
	return ratingStyle.Render(fmt.Sprintf("%.1f/5", *r))
}

func bookLine(b book.Book) string {
	parts := []string{
		titleStyle.Render(b.Title),
		"by " + b.Author,
		mutedStyle.Render("[" + b.ISBN + "]"),
		rating(b.Rating),
	}
	if b.Genre != nil {
		parts = append(parts, mutedStyle.Render(*b.Genre))
	}
	return strings.Join(parts, "  ")
}

func bookList(books []book.Book) string {
	if len(books) == 0 {
		return mutedStyle.Render("No books found.")
	}
	lines := []string{headingStyle.Render(fmt.Sprintf("%d book(s)", len(books)))}
	for _, b := range books {
		lines = append(lines, bookLine(b))
	}
	return strings.Join(lines, "\n")
}

func bookDetail(b book.Book) string {
	rows := [][2]string{
		{"ISBN", b.ISBN},
		{"Author", b.Author},
		{"Rating", rating(b.Rating)},
		{"Genre", b.GenreOr("-")},
		{"Language", b.Language},
	}
	if b.YearPublished != nil {
		rows = append(rows, [2]string{"Published", fmt.Sprint(*b.YearPublished)})
	}
	if b.Pages != nil {
		rows = append(rows, [2]string{"Pages", fmt.Sprint(*b.Pages)})
	}
	if len(b.Tags) > 0 {
		rows = append(rows, [2]string{"Tags", strings.Join(b.Tags, ", ")})
	}
	if b.Description != nil {
		rows = append(rows, [2]string{"Description", *b.Description})
	}
	rows = append(rows, [2]string{"Added", b.AddedAt.Format("2006-01-02 15:04")})

	lines := []string{titleStyle.Render(b.Title)}
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("  %s %s", mutedStyle.Render(fmt.Sprintf("%-12s", r[0]+":")), r[1]))
	}
	return strings.Join(lines, "\n")
}

func report(r stats.Report) string {
	s := r.Summary
	lines := []string{
		headingStyle.Render("Library statistics"),
		fmt.Sprintf("  Total books:     %d", s.TotalBooks),
		fmt.Sprintf("  Average rating:  %s", rating(s.AverageRating)),
		fmt.Sprintf("  Unique authors:  %d", s.UniqueAuthors),
		fmt.Sprintf("  Unique genres:   %d", s.UniqueGenres),
		fmt.Sprintf("  Unique tags:     %d", s.UniqueTags),
	}
	if len(s.MostCommonTags) > 0 {
		tags := make([]string, len(s.MostCommonTags))
		for i, tc := range s.MostCommonTags {
			tags[i] = fmt.Sprintf("%s (%d)", tc.Tag, tc.Count)
		}
		lines = append(lines, "  Top tags:        "+strings.Join(tags, ", "))
	}

	if len(r.Groups) > 0 {
		lines = append(lines, "", headingStyle.Render("By "+string(r.GroupBy)))
		for _, g := range r.Groups {
			lines = append(lines, fmt.Sprintf("  %-24s %4d  %s", g.Key, g.Count, rating(g.AverageRating)))
		}
	}
	return strings.Join(lines, "\n")
}

func recommendations(recs []recommend.Recommendation) string {
	if len(recs) == 0 {
		return mutedStyle.Render("No recommendations.")
	}
	lines := []string{headingStyle.Render("Recommendations")}
	for i, r := range recs {
		lines = append(lines, fmt.Sprintf("%2d. %s", i+1, bookLine(r.Book)))
		lines = append(lines, "    "+mutedStyle.Render(fmt.Sprintf("score %.1f, %s", r.Score, r.Reason)))
	}
	return strings.Join(lines, "\n")
}
