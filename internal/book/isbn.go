package book

import (
	"strings"

	liberrors "github.com/lepinkainen/libris/internal/errors"
)

// NormalizeISBN converts an ISBN-10 or ISBN-13 spelling into its canonical
// form: digits only, plus a trailing X check digit for ISBN-10. Any other
// rune ("ISBN" prefixes, hyphens, dots, spaces) is dropped. The check
// digit is verified.
func NormalizeISBN(raw string) (string, error) {
	isbn, err := CanonicalISBN(raw)
	if err != nil {
		return "", err
	}
	if !ValidISBNChecksum(isbn) {
		return "", liberrors.NewValidationError("isbn", "ISBN-%d checksum mismatch", len(isbn))
	}
	return isbn, nil
}

// CanonicalISBN is NormalizeISBN without the check digit verification.
// It is used for records written before checksums were enforced.
func CanonicalISBN(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", liberrors.NewValidationError("isbn", "must not be empty")
	}

	var sb strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= '0' && r <= '9') || r == 'X' {
			sb.WriteRune(r)
		}
	}
	isbn := sb.String()

	switch len(isbn) {
	case 10:
		if strings.IndexByte(isbn[:9], 'X') >= 0 {
			return "", liberrors.NewValidationError("isbn", "invalid ISBN-10 format")
		}
	case 13:
		if strings.IndexByte(isbn, 'X') >= 0 {
			return "", liberrors.NewValidationError("isbn", "invalid ISBN-13 format")
		}
	default:
		return "", liberrors.NewValidationError("isbn", "must be 10 or 13 digits, got %d", len(isbn))
	}

	return isbn, nil
}

// ValidISBNChecksum reports whether a canonical ISBN has a correct check digit.
func ValidISBNChecksum(isbn string) bool {
	switch len(isbn) {
	case 10:
		return validISBN10(isbn)
	case 13:
		return validISBN13(isbn)
	}
	return false
}

func validISBN10(isbn string) bool {
	sum := 0
	for i := 0; i < 10; i++ {
		d := int(isbn[i] - '0')
		if isbn[i] == 'X' {
			d = 10
		}
		sum += (10 - i) * d
	}
	return sum%11 == 0
}

func validISBN13(isbn string) bool {
	sum := 0
	for i := 0; i < 13; i++ {
		d := int(isbn[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return sum%10 == 0
}
