package slugify_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pitabwire/translationtools/slugify"
)

func TestSlugify(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single word", input: "Simple", expected: "simple"},
		{name: "words", input: "A new name", expected: "a-new-name"},
		{name: "german", input: "Objekt eins", expected: "objekt-eins"},
		{name: "accents", input: "Crème brûlée", expected: "creme-brulee"},
		{name: "punctuation", input: "complex: one", expected: "complex-one"},
		{name: "runs of separators", input: "  hello -- _ world  ", expected: "hello-_-world"},
		{name: "edges trimmed", input: "-_hello_-", expected: "hello"},
		{name: "underscores kept", input: "snake_case value", expected: "snake_case-value"},
		{name: "non latin dropped", input: "Привет", expected: ""},
		{name: "empty", input: "", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, slugify.Slugify(tc.input))
		})
	}
}

func TestSlugifyUnicode(t *testing.T) {
	require.Equal(t, "привет-мир", slugify.SlugifyUnicode("Привет, мир!"))
	require.Equal(t, "crème-brûlée", slugify.SlugifyUnicode("Crème Brûlée"))
	require.Equal(t, "fi", slugify.SlugifyUnicode("ﬁ"))
}

func TestTruncate(t *testing.T) {
	testCases := []struct {
		name      string
		slug      string
		maxLength int
		expected  string
	}{
		{name: "unlimited", slug: "a-new-name", maxLength: 0, expected: "a-new-name"},
		{name: "fits", slug: "simple", maxLength: 6, expected: "simple"},
		{name: "cut", slug: "simpleone", maxLength: 6, expected: "simple"},
		{name: "dangling separator", slug: "a-new-name", maxLength: 6, expected: "a-new"},
		{name: "runes", slug: "crème-brûlée", maxLength: 5, expected: "crème"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := slugify.Truncate(tc.slug, tc.maxLength, slugify.DefaultSeparator)
			require.Equal(t, tc.expected, got)
			if tc.maxLength > 0 {
				require.LessOrEqual(t, slugify.Length(got), tc.maxLength)
			}
		})
	}
}
