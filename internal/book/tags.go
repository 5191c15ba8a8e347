package book

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	liberrors "github.com/lepinkainen/libris/internal/errors"
)

const (
	MaxTags      = 20
	MaxTagLength = 50
)

// NormalizeTag trims and lowercases a tag. Returns "" for blank input.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeTags normalizes a slice of tags, dropping blanks and duplicates.
// First-seen order is kept; the result is never nil.
func NormalizeTags(tags []string) ([]string, error) {
	seen := make(map[string]bool, len(tags))
	result := make([]string, 0, len(tags))

	for _, tag := range tags {
		normalized := NormalizeTag(tag)
		if normalized == "" || seen[normalized] {
			continue
		}
		if utf8.RuneCountInString(normalized) > MaxTagLength {
			return nil, liberrors.NewValidationError("tags", "tag %q exceeds %d characters", normalized, MaxTagLength)
		}
		seen[normalized] = true
		result = append(result, normalized)
	}

	if len(result) > MaxTags {
		return nil, liberrors.NewValidationError("tags", "at most %d tags allowed, got %d", MaxTags, len(result))
	}

	return result, nil
}

// Fold returns the unicode case-folded form of s for case-insensitive
// comparisons. A new Caser is built per call since Casers are stateful.
func Fold(s string) string {
	return cases.Fold().String(s)
}
