package testaddon

import (
	"context"

	"github.com/pitabwire/translationtools/config"
	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/datastore"
	"github.com/pitabwire/translationtools/datastore/pool"
	"github.com/pitabwire/translationtools/languages"
)

// SiteID is the site the add-on settings configure fallbacks for.
const SiteID = 1

// Settings configures English, German and French. On site 1 German and French
// fall back to English only and English falls back to German, then French.
func Settings() *config.LanguageSettings {
	return &config.LanguageSettings{
		Languages: []config.LanguageSetting{
			{Code: "en", Name: "English"},
			{Code: "de", Name: "German"},
			{Code: "fr", Name: "French"},
		},
		DefaultFallbacks: []string{"en"},
		Sites: map[string][]config.SiteLanguage{
			config.SiteKey(SiteID): {
				{Code: "de", Name: "Deutsche", Fallbacks: []string{"en"}},
				{Code: "fr", Name: "Française", Fallbacks: []string{"en"}},
				{Code: "en", Name: "English", Fallbacks: []string{"de", "fr"}},
				{Code: "it", Name: "Italiano", Fallbacks: []string{"fr"}},
			},
		},
	}
}

func Registry() *languages.Registry {
	return languages.MustRegistry(Settings(), SiteID)
}

// Repositories of every add-on model.
type Repositories struct {
	Simple         datastore.TranslatableRepository[*Simple]
	Untranslated   datastore.BaseRepository[*Untranslated]
	Unconventional datastore.TranslatableRepository[*Unconventional]
	Complex        datastore.TranslatableRepository[*Complex]
}

// NewRepositories creates the repositories, opts apply to the translatable ones.
func NewRepositories(dbPool pool.Pool, opts ...datastore.TranslatableOption) (*Repositories, error) {
	simple, err := datastore.NewTranslatableRepository(dbPool, func() *Simple { return &Simple{} }, opts...)
	if err != nil {
		return nil, err
	}

	untranslated, err := datastore.NewBaseRepository(dbPool, func() *Untranslated { return &Untranslated{} })
	if err != nil {
		return nil, err
	}

	unconventional, err := datastore.NewTranslatableRepository(
		dbPool, func() *Unconventional { return &Unconventional{} }, opts...)
	if err != nil {
		return nil, err
	}

	complexRepo, err := datastore.NewTranslatableRepository(dbPool, func() *Complex { return &Complex{} }, opts...)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Simple:         simple,
		Untranslated:   untranslated,
		Unconventional: unconventional,
		Complex:        complexRepo,
	}, nil
}

// OpenPool connects to dsn and migrates the add-on models.
func OpenPool(ctx context.Context, dsn data.DSN) (pool.Pool, error) {
	dbPool := pool.NewPool(true)
	if err := dbPool.AddConnection(ctx, pool.WithConnection(dsn, false)); err != nil {
		return nil, err
	}

	if err := datastore.Migrate(ctx, dbPool, Models()...); err != nil {
		dbPool.Close(ctx)
		return nil, err
	}

	return dbPool, nil
}
