package autoslug_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/translationtools/autoslug"
	"github.com/pitabwire/translationtools/internal/testaddon"
	"github.com/pitabwire/translationtools/localization"
)

func takenSet(slugs ...string) autoslug.TakenFunc {
	taken := map[string]bool{}
	for _, slug := range slugs {
		taken[slug] = true
	}
	return func(_ context.Context, candidate string) (bool, error) {
		return taken[candidate], nil
	}
}

func TestUnique(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		opts      []autoslug.Option
		base      string
		maxLength int
		taken     []string
		want      string
	}{
		{name: "free", base: "simple", want: "simple"},
		{name: "first suffix", base: "simple", taken: []string{"simple"}, want: "simple-1"},
		{
			name:  "next free suffix",
			base:  "simple",
			taken: []string{"simple", "simple-1", "simple-2"},
			want:  "simple-3",
		},
		{name: "truncated base", base: "simpleone", maxLength: 6, want: "simple"},
		{name: "suffix shortens base", base: "simple", maxLength: 6, taken: []string{"simple"}, want: "simp-1"},
		{
			name:      "dangling separator dropped",
			base:      "a-b-c",
			maxLength: 4,
			taken:     []string{"a-b"},
			want:      "a-1",
		},
		{
			name:  "custom separator",
			opts:  []autoslug.Option{autoslug.WithSeparator("_")},
			base:  "simple",
			taken: []string{"simple"},
			want:  "simple_1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := autoslug.New(tc.opts...)
			got, err := s.Unique(t.Context(), tc.base, tc.maxLength, takenSet(tc.taken...))
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestUniqueNeverExceedsMaxLength(t *testing.T) {
	t.Parallel()

	s := autoslug.New()
	taken := map[string]bool{}
	isTaken := func(_ context.Context, candidate string) (bool, error) {
		return taken[candidate], nil
	}

	for range 101 {
		slug, err := s.Unique(t.Context(), "simple", 6, isTaken)
		require.NoError(t, err)
		require.LessOrEqual(t, len(slug), 6)
		require.False(t, taken[slug])
		taken[slug] = true
	}

	require.True(t, taken["si-100"])
}

func TestUniqueExhausted(t *testing.T) {
	t.Parallel()

	s := autoslug.New(autoslug.WithMaxAttempts(3))
	_, err := s.Unique(t.Context(), "a", 0, takenSet("a", "a-1", "a-2"))
	require.ErrorIs(t, err, autoslug.ErrSlugExhausted)

	_, err = autoslug.New().Unique(t.Context(), "ab", 2, takenSet("ab"))
	require.ErrorIs(t, err, autoslug.ErrSlugExhausted)

	lookupErr := errors.New("lookup failed")
	_, err = autoslug.New().Unique(t.Context(), "ab", 0, func(context.Context, string) (bool, error) {
		return false, lookupErr
	})
	require.ErrorIs(t, err, lookupErr)
}

func TestDefaultSlug(t *testing.T) {
	t.Parallel()

	ctx := t.Context()

	simple := &testaddon.Simple{}
	require.Equal(t, "simple-without-name", testaddon.SimpleSlugger.DefaultSlug(ctx, simple, simple.In(ctx, "en")))

	withDefault := autoslug.New(autoslug.WithDefault("unnamed-simple-object"))
	require.Equal(t, "unnamed-simple-object", withDefault.DefaultSlug(ctx, simple, simple.In(ctx, "en")))

	unconventional := &testaddon.Unconventional{}
	require.Equal(t,
		"unconventional-model-without-short-title",
		testaddon.UnconventionalSlugger.DefaultSlug(ctx, unconventional, unconventional.In(ctx, "en")))

	complexObj := &testaddon.Complex{}
	require.Equal(t, "complex-without-name", testaddon.ComplexSlugger.DefaultSlug(ctx, complexObj, complexObj.In(ctx, "en")))

	manager, err := localization.NewManager("")
	require.NoError(t, err)
	localized := autoslug.New(autoslug.WithLocalization(manager))
	require.Equal(t, "simple-ohne-name", localized.DefaultSlug(ctx, simple, simple.In(ctx, "de")))
	require.Equal(t, "simple-sans-name", localized.DefaultSlug(ctx, simple, simple.In(ctx, "fr")))
}

func TestSourceAndLength(t *testing.T) {
	t.Parallel()

	ctx := t.Context()

	simple := &testaddon.Simple{}
	simple.In(ctx, "en").Name = "Simple"
	require.Equal(t, "Simple", testaddon.SimpleSlugger.Source(ctx, simple, simple.In(ctx, "en")))
	require.Equal(t, 64, testaddon.SimpleSlugger.MaxSlugLength(simple.In(ctx, "en")))
	require.Equal(t, 6, autoslug.New(autoslug.WithMaxLength(6)).MaxSlugLength(simple.In(ctx, "en")))

	complexObj := &testaddon.Complex{ObjectType: "complex"}
	complexObj.In(ctx, "en").Name = "one"
	require.Equal(t, "complex: one", testaddon.ComplexSlugger.Source(ctx, complexObj, complexObj.In(ctx, "en")))
	require.Empty(t, testaddon.ComplexSlugger.Source(ctx, complexObj, complexObj.In(ctx, "de")))
}

type AutoSlugSuite struct {
	testaddon.DatabaseSuite
}

func TestAutoSlugSuite(t *testing.T) {
	suite.Run(t, new(AutoSlugSuite))
}

func (s *AutoSlugSuite) newSimple(ctx context.Context, language, name, slug string) *testaddon.Simple {
	simple := &testaddon.Simple{}
	tr := simple.In(ctx, language)
	tr.Name = name
	tr.Slug = slug
	return simple
}

func (s *AutoSlugSuite) TestSimpleSlug() {
	ctx := s.Ctx("en")

	simple := s.newSimple(ctx, "en", "Simple", "")
	s.Require().NoError(s.Repos.Simple.Save(ctx, simple))
	s.Equal("simple", simple.In(ctx, "en").Slug)

	loaded, err := s.Repos.Simple.GetByID(ctx, simple.GetID())
	s.Require().NoError(err)
	s.Equal("simple", loaded.In(ctx, "en").Slug)
}

func (s *AutoSlugSuite) TestUnconventionalSlug() {
	ctx := s.Ctx("en")

	unconventional := &testaddon.Unconventional{}
	unconventional.In(ctx, "en").Title = "Unconventional"
	s.Require().NoError(s.Repos.Unconventional.Save(ctx, unconventional))
	s.Equal("unconventional", unconventional.In(ctx, "en").UniqueSlug)
}

func (s *AutoSlugSuite) TestComplexSlug() {
	ctx := s.Ctx("en")

	complexObj := &testaddon.Complex{ObjectType: "complex"}
	complexObj.In(ctx, "en").Name = "one"
	s.Require().NoError(s.Repos.Complex.Save(ctx, complexObj))
	s.Equal("complex-one", complexObj.In(ctx, "en").Slug)
}

func (s *AutoSlugSuite) TestExistingObject() {
	ctx := s.Ctx("en")

	simple := s.newSimple(ctx, "en", "", "")
	s.Require().NoError(s.Repos.Simple.Save(ctx, simple))
	s.Equal("simple-without-name", simple.In(ctx, "en").Slug)

	simple.In(ctx, "en").Name = "A new name"
	simple.In(ctx, "en").Slug = ""
	s.Require().NoError(s.Repos.Simple.Save(ctx, simple))
	s.Equal("a-new-name", simple.In(ctx, "en").Slug)

	loaded, err := s.Repos.Simple.GetByID(ctx, simple.GetID())
	s.Require().NoError(err)
	s.Equal("a-new-name", loaded.In(ctx, "en").Slug)
}

func (s *AutoSlugSuite) TestLimitedLength() {
	ctx := s.Ctx("en")

	repos, err := testaddon.NewRepositories(s.Pool, withHooks(autoslug.New(autoslug.WithMaxLength(6))))
	s.Require().NoError(err)

	seen := map[string]bool{}
	for range 101 {
		simple := s.newSimple(ctx, "en", "Simple", "")
		s.Require().NoError(repos.Simple.Save(ctx, simple))

		slug := simple.In(ctx, "en").Slug
		s.LessOrEqual(len(slug), 6)
		s.False(seen[slug], "slug %s reused", slug)
		seen[slug] = true
	}

	s.True(seen["simple"])
	s.True(seen["si-100"])
}

func (s *AutoSlugSuite) TestExplicitSlugLimitedLength() {
	ctx := s.Ctx("en")

	repos, err := testaddon.NewRepositories(s.Pool, withHooks(autoslug.New(autoslug.WithMaxLength(6))))
	s.Require().NoError(err)

	first := s.newSimple(ctx, "en", "Simple", "simple-explicit")
	s.Require().NoError(repos.Simple.Save(ctx, first))
	s.Equal("simple", first.In(ctx, "en").Slug)

	second := s.newSimple(ctx, "en", "Simple", "simple-explicit")
	s.Require().NoError(repos.Simple.Save(ctx, second))
	s.Equal("simp-1", second.In(ctx, "en").Slug)

	short := s.newSimple(ctx, "en", "Simple", "own")
	s.Require().NoError(repos.Simple.Save(ctx, short))
	s.Equal("own", short.In(ctx, "en").Slug)
}

func (s *AutoSlugSuite) TestSlugUniqueGlobal() {
	ctx := s.Ctx("en")

	global, err := testaddon.NewRepositories(s.Pool, withHooks(autoslug.New(autoslug.WithGloballyUnique())))
	s.Require().NoError(err)

	simpleEN := s.newSimple(ctx, "en", "SimpleOne", "")
	s.Require().NoError(global.Simple.Save(ctx, simpleEN))
	simpleFR := s.newSimple(ctx, "fr", "SimpleOne", "")
	s.Require().NoError(global.Simple.Save(ctx, simpleFR))
	s.NotEqual(simpleEN.In(ctx, "en").Slug, simpleFR.In(ctx, "fr").Slug)

	simpleEN = s.newSimple(ctx, "en", "SimpleTwo", "")
	s.Require().NoError(s.Repos.Simple.Save(ctx, simpleEN))
	simpleFR = s.newSimple(ctx, "fr", "SimpleTwo", "")
	s.Require().NoError(s.Repos.Simple.Save(ctx, simpleFR))
	s.Equal(simpleEN.In(ctx, "en").Slug, simpleFR.In(ctx, "fr").Slug)
}

func (s *AutoSlugSuite) TestSlugUniqueForLanguage() {
	ctx := s.Ctx("en")

	first := s.newSimple(ctx, "en", "SimpleOne", "")
	s.Require().NoError(s.Repos.Simple.Save(ctx, first))
	second := s.newSimple(ctx, "en", "SimpleOne", "")
	s.Require().NoError(s.Repos.Simple.Save(ctx, second))

	s.Equal("simpleone", first.In(ctx, "en").Slug)
	s.Equal("simpleone-1", second.In(ctx, "en").Slug)
}

func (s *AutoSlugSuite) TestSlugUniqueWhenSlugIsTheSame() {
	ctx := s.Ctx("en")

	first := s.newSimple(ctx, "en", "SimpleOne", "simpleone")
	s.Require().NoError(s.Repos.Simple.Save(ctx, first))
	second := s.newSimple(ctx, "en", "SimpleOne", "simpleone")
	s.Require().NoError(s.Repos.Simple.Save(ctx, second))

	s.NotEqual(first.In(ctx, "en").Slug, second.In(ctx, "en").Slug)

	// a row keeps its own slug on later saves
	s.Require().NoError(s.Repos.Simple.Save(ctx, first))
	s.Equal("simpleone", first.In(ctx, "en").Slug)
}

func (s *AutoSlugSuite) TestSlugDefaults() {
	ctx := s.Ctx("en")

	simple := s.newSimple(ctx, "en", "", "")
	s.Require().NoError(s.Repos.Simple.Save(ctx, simple))
	s.Equal("simple-without-name", simple.In(ctx, "en").Slug)

	withDefault, err := testaddon.NewRepositories(s.Pool,
		withHooks(autoslug.New(autoslug.WithDefault("unnamed-simple-object"))))
	s.Require().NoError(err)
	simple = s.newSimple(ctx, "en", "", "")
	s.Require().NoError(withDefault.Simple.Save(ctx, simple))
	s.Equal("unnamed-simple-object", simple.In(ctx, "en").Slug)

	unconventional := &testaddon.Unconventional{}
	unconventional.In(ctx, "en")
	s.Require().NoError(s.Repos.Unconventional.Save(ctx, unconventional))
	s.Equal("unconventional-model-without-short-title", unconventional.In(ctx, "en").UniqueSlug)

	complexObj := &testaddon.Complex{}
	complexObj.In(ctx, "en")
	s.Require().NoError(s.Repos.Complex.Save(ctx, complexObj))
	s.Equal("complex-without-name", complexObj.In(ctx, "en").Slug)
}
