// Package slugify turns free text into URL safe identifiers.
package slugify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultSeparator joins words and numeric suffixes.
const DefaultSeparator = "-"

var (
	nonWord       = regexp.MustCompile(`[^\w\s-]`)
	nonWordUni    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	dashesOrSpace = regexp.MustCompile(`[-\s]+`)
)

// Slugify lowercases text, folds accents to ASCII, drops anything that is not a
// letter, digit, underscore, hyphen or space and joins the words with hyphens.
//
//	Slugify("Objekt eins")  // "objekt-eins"
//	Slugify("Crème brûlée") // "creme-brulee"
func Slugify(text string) string {
	folded, _, err := transform.String(asciiFolder(), text)
	if err != nil {
		folded = text
	}

	folded = strings.ToLower(folded)
	folded = nonWord.ReplaceAllString(folded, "")
	return strings.Trim(dashesOrSpace.ReplaceAllString(folded, "-"), "-_")
}

// SlugifyUnicode behaves like Slugify but keeps non-ASCII letters and digits.
func SlugifyUnicode(text string) string {
	value := norm.NFKC.String(text)
	value = strings.ToLower(value)
	value = nonWordUni.ReplaceAllString(value, "")
	return strings.Trim(dashesOrSpace.ReplaceAllString(value, "-"), "-_")
}

// Truncate cuts slug to at most maxLength characters and drops a dangling separator.
// A maxLength of zero or less leaves the slug untouched.
func Truncate(slug string, maxLength int, separator string) string {
	if maxLength <= 0 || utf8.RuneCountInString(slug) <= maxLength {
		return slug
	}

	cut := string([]rune(slug)[:maxLength])
	if separator != "" {
		cut = strings.TrimRight(cut, separator)
	}

	return cut
}

// Length counts characters, not bytes.
func Length(slug string) int {
	return utf8.RuneCountInString(slug)
}

func asciiFolder() transform.Transformer {
	return transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
}
