// Package textnorm folds French chat text into a comparable form.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRunPattern = regexp.MustCompile(`\s+`)
	punctPattern    = regexp.MustCompile(`[,;:!.()"«»]+`)
	apostropheRepl  = strings.NewReplacer("’", "'", "‘", "'", "`", "'")
)

// StripAccents removes combining marks: "décembre" becomes "decembre".
func StripAccents(value string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(folder, value)
	if err != nil {
		return value
	}
	return result
}

// Collapse trims and collapses internal whitespace runs to one space.
func Collapse(value string) string {
	return strings.TrimSpace(spaceRunPattern.ReplaceAllString(value, " "))
}

// Fold lowercases, strips accents, normalizes apostrophes and collapses whitespace.
func Fold(value string) string {
	return Collapse(StripAccents(strings.ToLower(apostropheRepl.Replace(value))))
}

// Tokens splits folded text into words; "?" is kept as its own token.
func Tokens(value string) []string {
	folded := Fold(value)
	folded = strings.ReplaceAll(folded, "?", " ? ")
	folded = punctPattern.ReplaceAllString(folded, " ")
	return strings.Fields(folded)
}

// ContainsWord reports whether the folded phrase occurs in value on word boundaries.
func ContainsWord(value, phrase string) bool {
	needle := Fold(phrase)
	if needle == "" {
		return false
	}
	pattern, err := regexp.Compile(`(^|[^\p{L}\p{N}])` + regexp.QuoteMeta(needle) + `($|[^\p{L}\p{N}])`)
	if err != nil {
		return false
	}
	return pattern.MatchString(Fold(value))
}

// Equal compares two strings after folding.
func Equal(a, b string) bool {
	return Fold(a) == Fold(b)
}
