package datastore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/pitabwire/translationtools/cache"
	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/datastore"
	"github.com/pitabwire/translationtools/datastore/pool"
	"github.com/pitabwire/translationtools/internal/testaddon"
)

func TestNewTranslatableRepositoryNeedsTranslations(t *testing.T) {
	t.Parallel()

	_, err := datastore.NewTranslatableRepository(pool.NewPool(false), func() *testaddon.Untranslated {
		return &testaddon.Untranslated{}
	})
	require.ErrorIs(t, err, data.ErrImproperlyConfigured)
}

func TestMigrateWithoutPermission(t *testing.T) {
	t.Parallel()

	require.NoError(t, datastore.Migrate(t.Context(), pool.NewPool(false), testaddon.Models()...))
}

func TestRepositoryWithoutConnection(t *testing.T) {
	t.Parallel()

	repo, err := datastore.NewTranslatableRepository(pool.NewPool(false), func() *testaddon.Simple {
		return &testaddon.Simple{}
	})
	require.NoError(t, err)

	_, err = repo.GetByID(t.Context(), "d0v0kq7ppd1s73b3qv5g")
	require.ErrorIs(t, err, datastore.ErrNoDatabase)
	require.True(t, repo.IsTranslatedField("slug"))
	require.False(t, repo.IsTranslatedField("object_type"))
}

type TranslatableRepositorySuite struct {
	testaddon.DatabaseSuite
}

func TestTranslatableRepositorySuite(t *testing.T) {
	suite.Run(t, new(TranslatableRepositorySuite))
}

func (s *TranslatableRepositorySuite) saveSimple(ctx context.Context, names map[string]string) *testaddon.Simple {
	simple := &testaddon.Simple{}
	for language, name := range names {
		simple.In(ctx, language).Name = name
	}
	s.Require().NoError(s.Repos.Simple.Save(ctx, simple))
	return simple
}

func (s *TranslatableRepositorySuite) TestSaveAndLoad() {
	ctx := s.Ctx("en")

	simple := s.saveSimple(ctx, map[string]string{"en": "Hello", "de": "Hallo"})
	s.True(data.ValidID(simple.GetID()))
	s.EqualValues(1, simple.GetVersion())

	for _, tr := range simple.Translations {
		s.Equal(simple.GetID(), tr.MasterID)
		s.True(data.ValidID(tr.GetID()))
	}

	loaded, err := s.Repos.Simple.GetByID(ctx, simple.GetID())
	s.Require().NoError(err)
	s.Len(loaded.Translations, 2)
	s.Equal("hallo", loaded.In(ctx, "de").Slug)

	langs, err := s.Repos.Simple.AvailableLanguages(ctx, simple.GetID())
	s.Require().NoError(err)
	s.ElementsMatch([]string{"en", "de"}, langs)

	count, err := s.Repos.Simple.Count(ctx)
	s.Require().NoError(err)
	s.EqualValues(1, count)
}

func (s *TranslatableRepositorySuite) TestLanguageFromContext() {
	simple := &testaddon.Simple{}
	simple.Translations = append(simple.Translations, &testaddon.SimpleTranslation{Name: "Objekt"})

	s.Require().NoError(s.Repos.Simple.Save(s.Ctx("de"), simple))
	s.Equal("de", simple.Translations[0].LanguageCode)

	other := &testaddon.Simple{}
	other.Translations = append(other.Translations, &testaddon.SimpleTranslation{Name: "Object"})
	s.Require().NoError(s.Repos.Simple.Save(s.Ctx(""), other))
	s.Equal("en", other.Translations[0].LanguageCode)
}

func (s *TranslatableRepositorySuite) TestUpdateAndOptimisticLock() {
	ctx := s.Ctx("en")

	simple := s.saveSimple(ctx, map[string]string{"en": "Hello"})

	first, err := s.Repos.Simple.GetByID(ctx, simple.GetID())
	s.Require().NoError(err)
	stale, err := s.Repos.Simple.GetByID(ctx, simple.GetID())
	s.Require().NoError(err)

	first.In(ctx, "fr").Name = "Bonjour"
	s.Require().NoError(s.Repos.Simple.Save(ctx, first))
	s.EqualValues(2, first.GetVersion())

	stale.In(ctx, "de").Name = "Hallo"
	s.Require().ErrorIs(s.Repos.Simple.Save(ctx, stale), datastore.ErrOptimisticLock)

	langs, err := s.Repos.Simple.AvailableLanguages(ctx, simple.GetID())
	s.Require().NoError(err)
	s.ElementsMatch([]string{"en", "fr"}, langs)
}

func (s *TranslatableRepositorySuite) TestActiveTranslation() {
	ctx := s.Ctx("en")

	simple := s.saveSimple(ctx, map[string]string{"en": "Hello"})

	found, err := s.Repos.Simple.ActiveTranslation(ctx, "en", map[string]any{"slug": "hello"})
	s.Require().NoError(err)
	s.Equal(simple.GetID(), found.GetID())

	// German falls back to English
	found, err = s.Repos.Simple.ActiveTranslation(ctx, "de", map[string]any{"slug": "hello"})
	s.Require().NoError(err)
	s.Equal(simple.GetID(), found.GetID())

	_, err = s.Repos.Simple.ActiveTranslation(ctx, "en", map[string]any{"slug": "missing"})
	s.True(data.ErrorIsNoRows(err))

	_, err = s.Repos.Simple.ActiveTranslation(ctx, "en", map[string]any{"slug; drop": "x"})
	s.Error(err)
}

func (s *TranslatableRepositorySuite) TestTranslated() {
	ctx := s.Ctx("en")

	s.saveSimple(ctx, map[string]string{"en": "Only English"})
	german := s.saveSimple(ctx, map[string]string{"de": "Nur Deutsch"})

	translated, err := s.Repos.Simple.Translated(ctx, "de", 0, 0)
	s.Require().NoError(err)
	s.Require().Len(translated, 1)
	s.Equal(german.GetID(), translated[0].GetID())

	all, err := s.Repos.Simple.GetAllBy(ctx, nil, 0, 1)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *TranslatableRepositorySuite) TestDelete() {
	ctx := s.Ctx("en")

	simple := s.saveSimple(ctx, map[string]string{"en": "Hello", "de": "Hallo"})

	s.Require().NoError(s.Repos.Simple.DeleteTranslation(ctx, simple.GetID(), "de"))
	loaded, err := s.Repos.Simple.GetByID(ctx, simple.GetID())
	s.Require().NoError(err)
	s.Len(loaded.Translations, 1)

	loaded.In(ctx, "de").Name = "Hallo wieder"
	s.Require().NoError(s.Repos.Simple.Save(ctx, loaded))

	s.Require().NoError(s.Repos.Simple.Delete(ctx, simple.GetID()))
	_, err = s.Repos.Simple.GetByID(ctx, simple.GetID())
	s.True(data.ErrorIsNoRows(err))
}

func (s *TranslatableRepositorySuite) TestCache() {
	ctx := s.Ctx("en")

	raw := cache.NewInMemoryCache()
	s.T().Cleanup(func() { _ = raw.Close() })

	cached, err := testaddon.NewRepositories(s.Pool, datastore.WithTranslationCache(raw, time.Minute))
	s.Require().NoError(err)

	simple := s.saveSimple(ctx, map[string]string{"en": "Hello"})

	first, err := cached.Simple.GetByID(ctx, simple.GetID())
	s.Require().NoError(err)
	s.Equal("Hello", first.In(ctx, "en").Name)

	simple.In(ctx, "en").Name = "Changed"
	s.Require().NoError(s.Repos.Simple.Save(ctx, simple))

	stale, err := cached.Simple.GetByID(ctx, simple.GetID())
	s.Require().NoError(err)
	s.Equal("Hello", stale.In(ctx, "en").Name)

	s.Require().NoError(cached.Simple.Delete(ctx, simple.GetID()))
	_, err = cached.Simple.GetByID(ctx, simple.GetID())
	s.True(data.ErrorIsNoRows(err))
}

func (s *TranslatableRepositorySuite) TestSaveHookError() {
	ctx := s.Ctx("en")

	failing := datastore.TranslationSaveHookFunc(
		func(context.Context, *gorm.DB, any, data.Translation) error {
			return data.ErrImproperlyConfigured
		})

	repos, err := testaddon.NewRepositories(s.Pool, datastore.WithSaveHooks(failing))
	s.Require().NoError(err)

	simple := &testaddon.Simple{}
	simple.In(ctx, "en").Name = "Never stored"
	s.Require().ErrorIs(repos.Simple.Save(ctx, simple), data.ErrImproperlyConfigured)

	count, err := s.Repos.Simple.Count(ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *TranslatableRepositorySuite) TestEnsureSlugIndex() {
	ctx := s.Ctx("en")

	db := s.Pool.DB(ctx, false)
	s.Require().NoError(datastore.EnsureSlugIndex(ctx, db, &testaddon.Simple{}, "slug", false))
	s.Require().NoError(datastore.EnsureSlugIndex(ctx, db, &testaddon.Simple{}, "Slug", false))

	noop := datastore.TranslationSaveHookFunc(
		func(context.Context, *gorm.DB, any, data.Translation) error { return nil })
	unchecked, err := testaddon.NewRepositories(s.Pool, datastore.WithSaveHooks(noop))
	s.Require().NoError(err)

	first := &testaddon.Simple{}
	first.In(ctx, "en").Slug = "taken"
	s.Require().NoError(unchecked.Simple.Save(ctx, first))

	second := &testaddon.Simple{}
	second.In(ctx, "de").Slug = "taken"
	s.Require().NoError(unchecked.Simple.Save(ctx, second))

	third := &testaddon.Simple{}
	third.In(ctx, "en").Slug = "taken"
	err = unchecked.Simple.Save(ctx, third)
	s.Require().Error(err)
	s.True(data.ErrorIsDuplicateKey(err))

	s.Require().ErrorIs(
		datastore.EnsureSlugIndex(ctx, db, &testaddon.Untranslated{}, "slug", false),
		data.ErrImproperlyConfigured)
}
