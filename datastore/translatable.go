package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/pitabwire/translationtools/cache"
	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/datastore/pool"
	"github.com/pitabwire/translationtools/languages"
)

const tracerName = "github.com/pitabwire/translationtools/datastore"

// TranslatableRepository stores masters together with their per language translation rows.
// Reads preload the translations, saves write master and translations in one transaction.
type TranslatableRepository[M data.BaseModelI] interface {
	BaseRepository[M]
	// DeleteTranslation removes the translation of master id in language.
	DeleteTranslation(ctx context.Context, id string, language string) error
	// ActiveTranslation returns the first master translated into language, or
	// one of its fallbacks, whose translation matches properties.
	ActiveTranslation(ctx context.Context, language string, properties map[string]any) (M, error)
	// Translated lists masters having a translation in language.
	Translated(ctx context.Context, language string, offset, limit int) ([]M, error)
	IsTranslatedField(name string) bool
	AvailableLanguages(ctx context.Context, id string) ([]string, error)
}

// TranslatableOption configures a TranslatableRepository.
type TranslatableOption func(*translatableOptions)

type translatableOptions struct {
	hooks    []TranslationSaveHook
	registry *languages.Registry
	cache    cache.RawCache
	cacheTTL time.Duration
}

// WithSaveHooks replaces the hooks a master declares through TranslationSaveHookProvider.
func WithSaveHooks(hooks ...TranslationSaveHook) TranslatableOption {
	return func(o *translatableOptions) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithLanguageRegistry sets the registry resolving default languages and fallbacks.
// Without it the registry in the request context is used.
func WithLanguageRegistry(reg *languages.Registry) TranslatableOption {
	return func(o *translatableOptions) {
		o.registry = reg
	}
}

// WithTranslationCache caches masters loaded by id, invalidated on every write.
func WithTranslationCache(raw cache.RawCache, ttl time.Duration) TranslatableOption {
	return func(o *translatableOptions) {
		o.cache = raw
		o.cacheTTL = ttl
	}
}

type translatableRepository[M data.BaseModelI] struct {
	*baseRepository[M]

	opts             translatableOptions
	relation         *schema.Relationship
	translationTable string
	// translationColumns whitelists the columns accepted in translation filters.
	translationColumns map[string]bool
	cache              cache.Cache[string, M]
	tracer             trace.Tracer
}

// NewTranslatableRepository creates a repository for a master model declaring
// a has-many relation to rows embedding data.TranslationModel.
func NewTranslatableRepository[M data.BaseModelI](
	dbPool pool.Pool,
	modelFactory func() M,
	opts ...TranslatableOption,
) (TranslatableRepository[M], error) {
	base, err := newBaseRepository(dbPool, modelFactory)
	if err != nil {
		return nil, err
	}

	relation, err := data.TranslationsRelation(modelFactory())
	if err != nil {
		return nil, err
	}

	translation, err := data.NewTranslationModel(modelFactory())
	if err != nil {
		return nil, err
	}

	repo := &translatableRepository[M]{
		baseRepository:     base,
		relation:           relation,
		translationTable:   relation.FieldSchema.Table,
		translationColumns: columnWhitelist(translation),
		tracer:             otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(&repo.opts)
	}

	if repo.opts.cache != nil {
		repo.cache = cache.NewGenericCache[string, M](repo.opts.cache, func(id string) string {
			return repo.tableName + ":" + id
		})
	}

	return repo, nil
}

func (tr *translatableRepository[M]) registry(ctx context.Context) *languages.Registry {
	if tr.opts.registry != nil {
		return tr.opts.registry
	}
	return languages.RegistryFromContext(ctx)
}

func (tr *translatableRepository[M]) hooks(master M) []TranslationSaveHook {
	if len(tr.opts.hooks) > 0 {
		return tr.opts.hooks
	}
	if provider, ok := any(master).(TranslationSaveHookProvider); ok {
		return provider.TranslationSaveHooks()
	}
	return nil
}

func (tr *translatableRepository[M]) IsTranslatedField(name string) bool {
	return data.IsTranslatedField(tr.modelFactory(), name)
}

func (tr *translatableRepository[M]) preloaded(ctx context.Context) (*gorm.DB, error) {
	db, err := tr.db(ctx, true)
	if err != nil {
		return nil, err
	}
	return db.Preload(tr.relation.Name, func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}), nil
}

func (tr *translatableRepository[M]) invalidate(ctx context.Context, id string) {
	if tr.cache == nil {
		return
	}
	if err := tr.cache.Delete(ctx, id); err != nil {
		util.Log(ctx).WithError(err).WithField("id", id).Warn("could not invalidate cached translations")
	}
}

// GetByID loads the master with its translations, through the cache when one is configured.
func (tr *translatableRepository[M]) GetByID(ctx context.Context, id string) (M, error) {
	if tr.cache != nil {
		cached, found, err := tr.cache.Get(ctx, id)
		if err != nil {
			util.Log(ctx).WithError(err).WithField("id", id).Debug("translation cache read failed")
		} else if found {
			return cached, nil
		}
	}

	entity := tr.modelFactory()
	db, err := tr.preloaded(ctx)
	if err != nil {
		return entity, err
	}

	if err = db.Where("id = ?", id).First(entity).Error; err != nil {
		return entity, err
	}

	if tr.cache != nil {
		if cacheErr := tr.cache.Set(ctx, id, entity, tr.opts.cacheTTL); cacheErr != nil {
			util.Log(ctx).WithError(cacheErr).WithField("id", id).Debug("translation cache write failed")
		}
	}

	return entity, nil
}

func (tr *translatableRepository[M]) GetFirstBy(ctx context.Context, properties map[string]any) (M, error) {
	entity := tr.modelFactory()

	db, err := tr.preloaded(ctx)
	if err != nil {
		return entity, err
	}

	query, err := where(db, tr.allowedColumns, "", properties)
	if err != nil {
		return entity, err
	}

	err = query.Order("created_at ASC").First(entity).Error
	return entity, err
}

func (tr *translatableRepository[M]) GetAllBy(
	ctx context.Context,
	properties map[string]any,
	offset, limit int,
) ([]M, error) {
	db, err := tr.preloaded(ctx)
	if err != nil {
		return nil, err
	}

	query, err := where(db, tr.allowedColumns, "", properties)
	if err != nil {
		return nil, err
	}

	return tr.page(query, offset, limit)
}

func (tr *translatableRepository[M]) page(query *gorm.DB, offset, limit int) ([]M, error) {
	query = query.Order("created_at ASC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entities []M
	err := query.Find(&entities).Error
	return entities, err
}

// translatedIDs selects the ids of masters translated into one of langs with matching properties.
func (tr *translatableRepository[M]) translatedIDs(
	ctx context.Context,
	langs []string,
	properties map[string]any,
) (*gorm.DB, error) {
	db, err := tr.db(ctx, true)
	if err != nil {
		return nil, err
	}

	translation, err := data.NewTranslationModel(tr.modelFactory())
	if err != nil {
		return nil, err
	}

	sub := db.Model(translation).Select("master_id").Where("language_code IN ?", langs)
	return where(sub, tr.translationColumns, "", properties)
}

func (tr *translatableRepository[M]) activeLanguages(ctx context.Context, language string) []string {
	reg := tr.registry(ctx)
	if language == "" {
		language = languages.Current(ctx, reg)
	}

	langs := []string{language}
	if reg == nil {
		return langs
	}

	site, ok := languages.SiteFromContext(ctx)
	if !ok {
		site = reg.Site()
	}

	return append(langs, reg.FallbackLanguages(language, site)...)
}

func (tr *translatableRepository[M]) ActiveTranslation(
	ctx context.Context,
	language string,
	properties map[string]any,
) (M, error) {
	entity := tr.modelFactory()

	ids, err := tr.translatedIDs(ctx, tr.activeLanguages(ctx, language), properties)
	if err != nil {
		return entity, err
	}

	db, err := tr.preloaded(ctx)
	if err != nil {
		return entity, err
	}

	err = db.Where("id IN (?)", ids).Order("created_at ASC").First(entity).Error
	return entity, err
}

func (tr *translatableRepository[M]) Translated(ctx context.Context, language string, offset, limit int) ([]M, error) {
	ids, err := tr.translatedIDs(ctx, []string{language}, nil)
	if err != nil {
		return nil, err
	}

	db, err := tr.preloaded(ctx)
	if err != nil {
		return nil, err
	}

	return tr.page(db.Where("id IN (?)", ids), offset, limit)
}

// AvailableLanguages lists the languages master id is stored in, oldest translation first.
func (tr *translatableRepository[M]) AvailableLanguages(ctx context.Context, id string) ([]string, error) {
	db, err := tr.db(ctx, true)
	if err != nil {
		return nil, err
	}

	translation, err := data.NewTranslationModel(tr.modelFactory())
	if err != nil {
		return nil, err
	}

	var langs []string
	err = db.Model(translation).
		Where("master_id = ?", id).
		Order("created_at ASC").
		Pluck("language_code", &langs).Error
	return langs, err
}

// Save writes the master and all loaded translations in one transaction.
// Translations get the master id, the active language when they have none,
// and pass through the save hooks before anything is written.
func (tr *translatableRepository[M]) Save(ctx context.Context, master M) error {
	ctx, span := tr.tracer.Start(ctx, "TranslatableRepository.Save",
		trace.WithAttributes(attribute.String("db.table", tr.tableName)))
	defer span.End()

	err := tr.save(ctx, master)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("db.id", master.GetID()))
	tr.invalidate(ctx, master.GetID())
	return nil
}

func (tr *translatableRepository[M]) save(ctx context.Context, master M) error {
	db, err := tr.db(ctx, false)
	if err != nil {
		return err
	}

	if generator, ok := any(master).(data.IDGenerator); ok {
		generator.GenID(ctx)
	}

	translations, err := data.TranslationsOf(ctx, master)
	if err != nil {
		return err
	}

	language := languages.Current(ctx, tr.registry(ctx))
	hooks := tr.hooks(master)

	return db.Transaction(func(tx *gorm.DB) error {
		for _, translation := range translations {
			translation.SetMasterID(master.GetID())
			if translation.GetLanguageCode() == "" {
				if language == "" {
					return fmt.Errorf("%w: translation of %s without language", data.ErrImproperlyConfigured, master.GetID())
				}
				translation.SetLanguageCode(language)
			}

			if generator, ok := translation.(data.IDGenerator); ok {
				generator.GenID(ctx)
			}

			for _, hook := range hooks {
				if hookErr := hook.BeforeSaveTranslation(ctx, tx, master, translation); hookErr != nil {
					return hookErr
				}
			}
		}

		if saveErr := saveRow(tx, master); saveErr != nil {
			return saveErr
		}

		for _, translation := range translations {
			if saveErr := saveRow(tx, translation); saveErr != nil {
				return fmt.Errorf("save %s translation: %w", translation.GetLanguageCode(), saveErr)
			}
		}

		return nil
	})
}

// Delete soft deletes the master and its translations.
func (tr *translatableRepository[M]) Delete(ctx context.Context, id string) error {
	db, err := tr.db(ctx, false)
	if err != nil {
		return err
	}

	translation, err := data.NewTranslationModel(tr.modelFactory())
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if txErr := tx.Where("master_id = ?", id).Delete(translation).Error; txErr != nil {
			return txErr
		}
		return tx.Where("id = ?", id).Delete(tr.modelFactory()).Error
	})
	if err != nil {
		return err
	}

	tr.invalidate(ctx, id)
	return nil
}

// DeleteTranslation removes the row for good so the language can be translated again.
func (tr *translatableRepository[M]) DeleteTranslation(ctx context.Context, id string, language string) error {
	db, err := tr.db(ctx, false)
	if err != nil {
		return err
	}

	translation, err := data.NewTranslationModel(tr.modelFactory())
	if err != nil {
		return err
	}

	err = db.Unscoped().Where("master_id = ? AND language_code = ?", id, language).Delete(translation).Error
	if err != nil {
		return err
	}

	tr.invalidate(ctx, id)
	return nil
}
