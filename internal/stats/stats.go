// Package stats aggregates counts and average ratings over the catalog.
package stats

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/lepinkainen/libris/internal/book"
	liberrors "github.com/lepinkainen/libris/internal/errors"
)

// UnknownKey buckets records whose grouping field is absent
const UnknownKey = "Unknown"

// MostCommonTagsLimit caps Summary.MostCommonTags
const MostCommonTagsLimit = 5

// GroupBy selects the partitioning field.
type GroupBy string

const (
	GroupByGenre    GroupBy = "genre"
	GroupByAuthor   GroupBy = "author"
	GroupByRating   GroupBy = "rating"
	GroupByLanguage GroupBy = "language"
	GroupByNone     GroupBy = "none"
)

// GroupBys lists every supported grouping
var GroupBys = []GroupBy{GroupByGenre, GroupByAuthor, GroupByRating, GroupByLanguage, GroupByNone}

// ParseGroupBy parses a grouping name case-insensitively. An empty name
// means GroupByNone.
func ParseGroupBy(s string) (GroupBy, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return GroupByNone, nil
	}
	for _, g := range GroupBys {
		if string(g) == name {
			return g, nil
		}
	}
	names := make([]string, len(GroupBys))
	for i, g := range GroupBys {
		names[i] = string(g)
	}
	return "", liberrors.NewInvalidArgumentError("group_by", "unknown grouping %q (expected one of %s)", s, strings.Join(names, ", "))
}

// CacheKey identifies the report for g
func (g GroupBy) CacheKey() string {
	return "stats:" + string(g)
}

// TagCount is a tag and how many records carry it.
type TagCount struct {
	Tag   string `json:"tag" yaml:"tag"`
	Count int    `json:"count" yaml:"count"`
}

// Group is one partition of the catalog.
type Group struct {
	Key           string   `json:"key" yaml:"key"`
	Count         int      `json:"count" yaml:"count"`
	AverageRating *float64 `json:"average_rating" yaml:"average_rating"`
}

// Summary describes the whole catalog.
type Summary struct {
	TotalBooks     int        `json:"total_books" yaml:"total_books"`
	AverageRating  *float64   `json:"average_rating" yaml:"average_rating"`
	UniqueAuthors  int        `json:"unique_authors" yaml:"unique_authors"`
	UniqueGenres   int        `json:"unique_genres" yaml:"unique_genres"`
	UniqueTags     int        `json:"unique_tags" yaml:"unique_tags"`
	MostCommonTags []TagCount `json:"most_common_tags" yaml:"most_common_tags"`
}

// Report is the result of Compute.
type Report struct {
	GroupBy GroupBy `json:"group_by" yaml:"group_by"`
	Summary Summary `json:"summary" yaml:"summary"`
	Groups  []Group `json:"groups" yaml:"groups"`
}

// Clone returns a deep copy of the report
func (r Report) Clone() Report {
	c := r
	c.Summary.AverageRating = clonePtr(r.Summary.AverageRating)
	c.Summary.MostCommonTags = slices.Clone(r.Summary.MostCommonTags)
	c.Groups = make([]Group, len(r.Groups))
	for i, g := range r.Groups {
		g.AverageRating = clonePtr(g.AverageRating)
		c.Groups[i] = g
	}
	return c
}

// ratingSum accumulates an average over rated records only
type ratingSum struct {
	total float64
	n     int
}

func (s *ratingSum) add(r *float64) {
	if r != nil {
		s.total += *r
		s.n++
	}
}

func (s ratingSum) average() *float64 {
	if s.n == 0 {
		return nil
	}
	avg := s.total / float64(s.n)
	return &avg
}

// Compute partitions books by groupBy and summarizes the whole set.
func Compute(books []book.Book, groupBy GroupBy) (Report, error) {
	groupBy, err := ParseGroupBy(string(groupBy))
	if err != nil {
		return Report{}, err
	}

	report := Report{
		GroupBy: groupBy,
		Summary: summarize(books),
		Groups:  []Group{},
	}
	if groupBy == GroupByNone {
		return report, nil
	}

	counts := make(map[string]int)
	ratings := make(map[string]*ratingSum)
	for _, b := range books {
		key := groupKey(b, groupBy)
		counts[key]++
		if ratings[key] == nil {
			ratings[key] = &ratingSum{}
		}
		ratings[key].add(b.Rating)
	}

	for key, count := range counts {
		report.Groups = append(report.Groups, Group{
			Key:           key,
			Count:         count,
			AverageRating: ratings[key].average(),
		})
	}
	slices.SortFunc(report.Groups, func(a, b Group) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Key, b.Key))
	})

	return report, nil
}

func groupKey(b book.Book, groupBy GroupBy) string {
	switch groupBy {
	case GroupByGenre:
		return b.GenreOr(UnknownKey)
	case GroupByAuthor:
		if b.Author == "" {
			return UnknownKey
		}
		return b.Author
	case GroupByRating:
		if b.Rating == nil {
			return UnknownKey
		}
		return fmt.Sprintf("%.1f", *b.Rating)
	case GroupByLanguage:
		if b.Language == "" {
			return UnknownKey
		}
		return b.Language
	}
	return UnknownKey
}

func summarize(books []book.Book) Summary {
	var overall ratingSum
	authors := make(map[string]struct{})
	genres := make(map[string]struct{})
	tags := make(map[string]int)

	for _, b := range books {
		overall.add(b.Rating)
		authors[b.Author] = struct{}{}
		if b.Genre != nil {
			genres[*b.Genre] = struct{}{}
		}
		for _, tag := range b.Tags {
			tags[tag]++
		}
	}

	common := make([]TagCount, 0, len(tags))
	for tag, count := range tags {
		common = append(common, TagCount{Tag: tag, Count: count})
	}
	slices.SortFunc(common, func(a, b TagCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Tag, b.Tag))
	})
	if len(common) > MostCommonTagsLimit {
		common = common[:MostCommonTagsLimit]
	}

	return Summary{
		TotalBooks:     len(books),
		AverageRating:  overall.average(),
		UniqueAuthors:  len(authors),
		UniqueGenres:   len(genres),
		UniqueTags:     len(tags),
		MostCommonTags: common,
	}
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
