package openlibrary

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lepinkainen/libris/internal/book"
)

// Metadata is what OpenLibrary knows about one edition.
type Metadata struct {
	ISBN        string   `json:"isbn" yaml:"isbn"`
	Title       string   `json:"title" yaml:"title"`
	Subtitle    string   `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Authors     []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Publisher   string   `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Pages       int      `json:"pages,omitempty" yaml:"pages,omitempty"`
	PublishYear int      `json:"publish_year,omitempty" yaml:"publish_year,omitempty"`
	Subjects    []string `json:"subjects,omitempty" yaml:"subjects,omitempty"`
}

var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// parseYear extracts the last four-digit year from dates like
// "March 2011" or "2011-03-01".
func parseYear(date string) int {
	matches := yearPattern.FindAllString(date, -1)
	if len(matches) == 0 {
		return 0
	}
	year, err := strconv.Atoi(matches[len(matches)-1])
	if err != nil {
		return 0
	}
	return year
}

// Patch returns the changes that fill existing's empty fields from md.
// Fields the record already has are never overwritten. The result may be
// empty when there is nothing to add.
func (md *Metadata) Patch(existing book.Book) book.Patch {
	var p book.Patch

	if existing.Description == nil && strings.TrimSpace(md.Description) != "" {
		p.Description = book.Ptr(strings.TrimSpace(md.Description))
	}
	if existing.Pages == nil && md.Pages > 0 {
		p.Pages = book.Ptr(md.Pages)
	}
	if existing.YearPublished == nil && md.PublishYear >= book.MinYearPublished && md.PublishYear <= time.Now().Year()+1 {
		p.YearPublished = book.Ptr(md.PublishYear)
	}

	if existing.Genre == nil {
		for _, s := range md.Subjects {
			if g := strings.TrimSpace(s); g != "" {
				p.Genre = book.Ptr(g)
				break
			}
		}
	}
	if subjects := md.tags(); len(existing.Tags) == 0 && len(subjects) > 0 {
		p.Tags = &subjects
	}

	return p
}

// tags converts subjects into valid catalog tags
func (md *Metadata) tags() []string {
	var tags []string
	seen := make(map[string]bool)
	for _, s := range md.Subjects {
		tag := book.NormalizeTag(s)
		if tag == "" || seen[tag] || utf8.RuneCountInString(tag) > book.MaxTagLength {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) == book.MaxTags {
			break
		}
	}
	return tags
}
