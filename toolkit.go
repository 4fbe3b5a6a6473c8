// Package translationtools wires the multilingual helpers of this module together:
// configuration, logging, the language registry, message localization, the
// datastore pool, the translation cache and the URL resolver.
package translationtools

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pitabwire/util"

	"github.com/pitabwire/translationtools/autoslug"
	"github.com/pitabwire/translationtools/cache"
	"github.com/pitabwire/translationtools/config"
	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/datastore"
	"github.com/pitabwire/translationtools/datastore/pool"
	"github.com/pitabwire/translationtools/languages"
	"github.com/pitabwire/translationtools/localization"
	"github.com/pitabwire/translationtools/telemetry"
	"github.com/pitabwire/translationtools/urls"
)

type contextKey string

func (c contextKey) String() string {
	return "translationtools/" + string(c)
}

const ctxKeyToolkit = contextKey("toolkitKey")

// ErrNoDatastore is returned by helpers needing a database when none was configured.
var ErrNoDatastore = errors.New("no datastore configured")

// Toolkit holds the shared dependencies of the translation helpers.
type Toolkit struct {
	name      string
	cfg       any
	logger    *util.LogEntry
	loggerSet bool

	registry  *languages.Registry
	localizer localization.Manager
	resolver  *urls.Resolver

	dbPool   pool.Pool
	cache    cache.RawCache
	cacheTTL time.Duration

	telemetry telemetry.Manager

	cleanup   []func(ctx context.Context)
	initErrs  []error
	stopMutex sync.Mutex
	stopped   bool
}

// Option configures a Toolkit while it is being created.
type Option func(ctx context.Context, t *Toolkit)

// NewToolkit creates a toolkit configured from the environment and opts.
// Anything opts leave unset is derived from the configuration afterwards,
// the returned context carries the toolkit and its parts.
func NewToolkit(ctx context.Context, name string, opts ...Option) (context.Context, *Toolkit, error) {
	defaultLogger := util.Log(ctx)
	ctx = util.ContextWithLogger(ctx, defaultLogger)

	defaultCfg, err := config.FromEnv[config.ConfigurationDefault]()
	if err != nil {
		defaultLogger.WithError(err).Warn("could not read configuration from the environment")
	}

	t := &Toolkit{
		name:   name,
		cfg:    &defaultCfg,
		logger: defaultLogger,
	}

	if defaultCfg.ServiceName != "" && name == "" {
		t.name = defaultCfg.ServiceName
	}

	for _, opt := range opts {
		opt(ctx, t)
	}

	t.ensureDefaults(ctx)

	if err = errors.Join(t.initErrs...); err != nil {
		t.Stop(ctx)
		return ctx, nil, err
	}

	ctx = ToContext(ctx, t)
	t.Log(ctx).WithField("languages", t.registry.Codes()).Debug("toolkit initialised")
	return ctx, t, nil
}

func (t *Toolkit) ensureDefaults(ctx context.Context) {
	if !t.loggerSet {
		WithLogger()(ctx, t)
	}

	if t.registry == nil {
		WithLanguageSettingsFile("")(ctx, t)
	}

	if t.registry == nil {
		return
	}

	if t.localizer == nil {
		WithLocalization("")(ctx, t)
	}

	if t.cache == nil {
		WithCache("")(ctx, t)
	}

	if t.dbPool == nil {
		if cfg, ok := t.cfg.(config.ConfigurationDatabase); ok && len(cfg.GetDatabasePrimaryHostURL()) > 0 {
			WithDatastore()(ctx, t)
		}
	}

	if t.resolver == nil {
		t.resolver = urls.NewResolver(t.registry)
	}
}

func (t *Toolkit) fail(ctx context.Context, err error, msg string) {
	t.Log(ctx).WithError(err).Error(msg)
	t.initErrs = append(t.initErrs, err)
}

// AddCleanupMethod registers f to run when the toolkit stops, latest first.
func (t *Toolkit) AddCleanupMethod(f func(ctx context.Context)) {
	t.cleanup = append(t.cleanup, f)
}

// ToContext pushes a toolkit and the parts helpers look up into ctx.
func ToContext(ctx context.Context, t *Toolkit) context.Context {
	ctx = context.WithValue(ctx, ctxKeyToolkit, t)
	ctx = config.ToContext(ctx, t.cfg)
	ctx = util.ContextWithLogger(ctx, t.logger)

	if t.registry != nil {
		ctx = languages.RegistryToContext(ctx, t.registry)
	}
	if t.resolver != nil {
		ctx = urls.ToContext(ctx, t.resolver)
	}

	return ctx
}

// FromContext obtains the toolkit propagated through ctx, nil when none is.
func FromContext(ctx context.Context) *Toolkit {
	t, ok := ctx.Value(ctxKeyToolkit).(*Toolkit)
	if !ok {
		return nil
	}
	return t
}

// Name gets the name the toolkit was created with.
func (t *Toolkit) Name() string {
	return t.name
}

// Config returns the configuration object, a *config.ConfigurationDefault unless replaced with WithConfig.
func (t *Toolkit) Config() any {
	return t.cfg
}

func (t *Toolkit) Log(ctx context.Context) *util.LogEntry {
	return t.logger.WithContext(ctx)
}

func (t *Toolkit) Languages() *languages.Registry {
	return t.registry
}

func (t *Toolkit) Localization() localization.Manager {
	return t.localizer
}

func (t *Toolkit) Resolver() *urls.Resolver {
	return t.resolver
}

// Pool returns the datastore pool, nil when no database was configured.
func (t *Toolkit) Pool() pool.Pool {
	return t.dbPool
}

// Telemetry returns the telemetry manager, nil unless WithTelemetry was used.
func (t *Toolkit) Telemetry() telemetry.Manager {
	return t.telemetry
}

func (t *Toolkit) Cache() cache.RawCache {
	return t.cache
}

// CacheMaxAge is how long translated objects stay cached.
func (t *Toolkit) CacheMaxAge() time.Duration {
	return t.cacheTTL
}

// Slugger returns a slug generator localized with the toolkit messages.
func (t *Toolkit) Slugger(opts ...autoslug.Option) *autoslug.Slugger {
	if t.localizer != nil {
		opts = append([]autoslug.Option{autoslug.WithLocalization(t.localizer)}, opts...)
	}
	return autoslug.New(opts...)
}

// RepositoryOptions are the options translatable repositories get from the toolkit.
func (t *Toolkit) RepositoryOptions() []datastore.TranslatableOption {
	opts := []datastore.TranslatableOption{datastore.WithLanguageRegistry(t.registry)}
	if t.cache != nil {
		opts = append(opts, datastore.WithTranslationCache(t.cache, t.cacheTTL))
	}
	return opts
}

// Migrate creates the tables of models and of their translations.
func (t *Toolkit) Migrate(ctx context.Context, models ...any) error {
	if t.dbPool == nil {
		return ErrNoDatastore
	}
	return datastore.Migrate(ctx, t.dbPool, models...)
}

// NewRepository creates a translatable repository backed by the toolkit pool,
// registry and cache. opts are applied after the toolkit ones.
func NewRepository[M data.BaseModelI](
	t *Toolkit,
	factory func() M,
	opts ...datastore.TranslatableOption,
) (datastore.TranslatableRepository[M], error) {
	if t.dbPool == nil {
		return nil, ErrNoDatastore
	}
	return datastore.NewTranslatableRepository(t.dbPool, factory, append(t.RepositoryOptions(), opts...)...)
}

// Stop runs the cleanup methods and releases the pool and cache. Calling it twice is a no-op.
func (t *Toolkit) Stop(ctx context.Context) {
	t.stopMutex.Lock()
	defer t.stopMutex.Unlock()

	if t.stopped {
		return
	}
	t.stopped = true

	t.Log(ctx).Debug("toolkit stopping")

	for i := len(t.cleanup) - 1; i >= 0; i-- {
		t.cleanup[i](ctx)
	}
}
