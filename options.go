package translationtools

import (
	"context"
	"fmt"
	"time"

	"github.com/pitabwire/util"

	"github.com/pitabwire/translationtools/cache"
	"github.com/pitabwire/translationtools/cache/cacheopen"
	"github.com/pitabwire/translationtools/config"
	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/datastore/pool"
	"github.com/pitabwire/translationtools/languages"
	"github.com/pitabwire/translationtools/localization"
	"github.com/pitabwire/translationtools/telemetry"
	"github.com/pitabwire/translationtools/urls"
)

// WithConfig replaces the configuration read from the environment.
func WithConfig(cfg any) Option {
	return func(_ context.Context, t *Toolkit) {
		t.cfg = cfg
	}
}

// WithName overrides the name the toolkit logs with.
func WithName(name string) Option {
	return func(_ context.Context, t *Toolkit) {
		t.name = name
	}
}

// WithLogger initialises the toolkit logger, level and format come from the configuration.
func WithLogger(opts ...util.Option) Option {
	return func(ctx context.Context, t *Toolkit) {
		if cfg, ok := t.cfg.(config.ConfigurationLogLevel); ok {
			logLevel, err := util.ParseLevel(cfg.LoggingLevel())
			if err == nil {
				opts = append(opts, util.WithLogLevel(logLevel))
			}
			opts = append(opts,
				util.WithLogTimeFormat(cfg.LoggingTimeFormat()),
				util.WithLogNoColor(!cfg.LoggingColored()))
			if cfg.LoggingShowStackTrace() {
				opts = append(opts, util.WithLogStackTrace())
			}
		}

		if t.telemetry != nil && t.telemetry.LogHandler() != nil {
			opts = append(opts, util.WithLogHandler(t.telemetry.LogHandler()))
		}

		t.logger = util.NewLogger(ctx, opts...).WithField("toolkit", t.name)
		t.loggerSet = true
	}
}

// WithTelemetry installs the OpenTelemetry providers, exporters follow the OTEL_* environment.
// Pass it before WithLogger for log records to reach the logs exporter.
func WithTelemetry(opts ...telemetry.Option) Option {
	return func(ctx context.Context, t *Toolkit) {
		cfg, _ := t.cfg.(config.ConfigurationTelemetry)
		manager := telemetry.NewManager(cfg, append([]telemetry.Option{telemetry.WithServiceName(t.name)}, opts...)...)

		if err := manager.Init(ctx); err != nil {
			t.fail(ctx, err, "could not initialise telemetry")
			return
		}

		t.telemetry = manager
		t.AddCleanupMethod(func(ctx context.Context) {
			if err := manager.Shutdown(ctx); err != nil {
				t.Log(ctx).WithError(err).Warn("could not shut telemetry down")
			}
		})
	}
}

// WithLanguages uses reg as the language registry.
func WithLanguages(reg *languages.Registry) Option {
	return func(_ context.Context, t *Toolkit) {
		t.registry = reg
	}
}

// WithLanguageSettingsFile loads the language registry from a TOML or YAML file.
// An empty path falls back to LANGUAGE_SETTINGS_FILE and, without one, to the
// configured LANGUAGE_CODE alone.
func WithLanguageSettingsFile(path string) Option {
	return func(ctx context.Context, t *Toolkit) {
		code := ""
		site := 1

		if cfg, ok := t.cfg.(config.ConfigurationLanguages); ok {
			if path == "" {
				path = cfg.GetLanguageSettingsFile()
			}
			code = cfg.GetLanguageCode()
			if cfg.GetSiteID() > 0 {
				site = cfg.GetSiteID()
			}
		}

		settings := config.DefaultLanguageSettings(code)
		if path != "" {
			var err error
			settings, err = config.LoadLanguageSettings(path)
			if err != nil {
				t.fail(ctx, err, "could not load language settings")
				return
			}
		}

		reg, err := languages.NewRegistry(settings, site)
		if err != nil {
			t.fail(ctx, err, "invalid language settings")
			return
		}

		t.registry = reg
	}
}

// WithLocalization loads the message catalogue for every configured language.
// An empty folder falls back to TRANSLATIONS_FOLDER and then to the bundled messages.
func WithLocalization(translationsFolder string) Option {
	return func(ctx context.Context, t *Toolkit) {
		if translationsFolder == "" {
			if cfg, ok := t.cfg.(config.ConfigurationLanguages); ok {
				translationsFolder = cfg.GetTranslationsFolder()
			}
		}

		var langs []string
		if t.registry != nil {
			langs = t.registry.Codes()
		}

		manager, err := localization.NewManager(translationsFolder, langs...)
		if err != nil {
			t.fail(ctx, err, "could not load translations")
			return
		}

		t.localizer = manager
	}
}

// WithDatastore connects to the databases named in the configuration.
func WithDatastore(opts ...pool.Option) Option {
	return func(ctx context.Context, t *Toolkit) {
		cfg, ok := t.cfg.(interface {
			config.ConfigurationDatabase
			config.ConfigurationDatabaseTracing
		})
		if !ok {
			t.fail(ctx, fmt.Errorf("%w: configuration has no database settings", ErrNoDatastore),
				"could not configure datastore")
			return
		}

		addConnection(ctx, t, cfg.DoDatabaseMigrate(), append([]pool.Option{pool.WithConfig(cfg)}, opts...)...)
	}
}

// WithDatastoreConnection adds a single postgres connection to the toolkit pool.
func WithDatastoreConnection(postgresqlConnection string, readOnly bool) Option {
	return func(ctx context.Context, t *Toolkit) {
		canMigrate := false
		opts := []pool.Option{pool.WithConnection(data.DSN(postgresqlConnection), readOnly)}

		if cfg, ok := t.cfg.(config.ConfigurationDatabaseTracing); ok {
			opts = append(opts, pool.WithTraceConfig(cfg))
		}
		if cfg, ok := t.cfg.(config.ConfigurationDatabase); ok {
			canMigrate = cfg.DoDatabaseMigrate()
		}

		addConnection(ctx, t, canMigrate, opts...)
	}
}

func addConnection(ctx context.Context, t *Toolkit, canMigrate bool, opts ...pool.Option) {
	newPool := t.dbPool == nil
	if newPool {
		t.dbPool = pool.NewPool(canMigrate)
	}

	if err := t.dbPool.AddConnection(ctx, opts...); err != nil {
		t.fail(ctx, err, "could not initiate datastore connection")
		return
	}

	if newPool {
		dbPool := t.dbPool
		t.AddCleanupMethod(func(ctx context.Context) {
			dbPool.Close(ctx)
		})
	}
}

// WithCache opens the translation cache named by uri: mem://, redis:// or valkey://.
// An empty uri falls back to TRANSLATION_CACHE_URI and then to an in memory cache.
func WithCache(uri string, opts ...cache.Option) Option {
	return func(ctx context.Context, t *Toolkit) {
		maxAge := config.DefaultCacheMaxAge
		if cfg, ok := t.cfg.(config.ConfigurationCache); ok {
			if uri == "" {
				uri = cfg.GetTranslationCacheURI()
			}
			maxAge = cfg.GetTranslationCacheMaxAge()
		}

		opts = append([]cache.Option{cache.WithName(t.name), cache.WithMaxAge(maxAge)}, opts...)

		raw, err := cacheopen.NewFromURI(ctx, data.DSN(uri), opts...)
		if err != nil {
			t.fail(ctx, err, "could not open translation cache")
			return
		}

		setCache(t, raw, cache.NewOptions(opts...).MaxAge)
	}
}

// WithInMemoryCache caches translations in process for maxAge.
func WithInMemoryCache(maxAge time.Duration) Option {
	return func(_ context.Context, t *Toolkit) {
		setCache(t, cache.NewInMemoryCache(cache.WithMaxAge(maxAge)), maxAge)
	}
}

func setCache(t *Toolkit, raw cache.RawCache, maxAge time.Duration) {
	t.cache = raw
	t.cacheTTL = maxAge
	t.AddCleanupMethod(func(ctx context.Context) {
		if err := raw.Close(); err != nil {
			t.Log(ctx).WithError(err).Warn("could not close translation cache")
		}
	})
}

// WithResolver uses rs to reverse and match URLs, its registry replaces the toolkit one.
func WithResolver(rs *urls.Resolver) Option {
	return func(_ context.Context, t *Toolkit) {
		t.resolver = rs
		if rs != nil && rs.Registry() != nil {
			t.registry = rs.Registry()
		}
	}
}
