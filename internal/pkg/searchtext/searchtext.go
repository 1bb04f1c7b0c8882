// Package searchtext prepares raw user search input for SQL pattern matching.
// The same normalization must be applied to both the stored columns' collation
// assumptions and the incoming term, otherwise count and page queries drift.
package searchtext

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize trims, lowercases and canonicalizes a search term.
// Cyrillic "ё" is folded to "е" so that both spellings match the same rows;
// NFC composition runs first so the decomposed form (е + U+0308) folds too.
// Normalize is idempotent.
func Normalize(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "ё", "е")
}

// EscapeLike escapes characters significant to SQL LIKE/ILIKE patterns
// (backslash, percent, underscore) so user input cannot widen a match.
// A string without special characters is returned unchanged.
func EscapeLike(s string) string {
	if !strings.ContainsAny(s, `\%_`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		if r == '\\' || r == '%' || r == '_' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Words normalizes the term and splits it into whitespace-separated words.
func Words(s string) []string {
	return strings.Fields(Normalize(s))
}

// NumericValue reports whether the word is purely numeric and returns its value.
// Used to match lot numbers exactly in addition to substring matching.
func NumericValue(w string) (int64, bool) {
	if w == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(w, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
