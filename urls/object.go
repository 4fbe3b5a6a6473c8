package urls

import (
	"context"
	"net/http"

	"github.com/pitabwire/util"

	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/languages"
)

// Default keyword argument and field names used by ObjectFromRequest.
const (
	DefaultPKKwarg   = "pk"
	DefaultSlugKwarg = "slug"
	DefaultSlugField = "slug"
)

// Source loads objects, datastore.BaseRepository satisfies it.
type Source[M any] interface {
	GetByID(ctx context.Context, id string) (M, error)
	GetFirstBy(ctx context.Context, properties map[string]any) (M, error)
}

// TranslatedSource loads translatable objects, datastore.TranslatableRepository satisfies it.
type TranslatedSource[M any] interface {
	Source[M]
	IsTranslatedField(name string) bool
	ActiveTranslation(ctx context.Context, language string, properties map[string]any) (M, error)
}

type objectOptions struct {
	pkKwarg   string
	slugKwarg string
	slugField string
}

type ObjectOption func(*objectOptions)

func WithPKKwarg(name string) ObjectOption {
	return func(o *objectOptions) {
		o.pkKwarg = name
	}
}

func WithSlugKwarg(name string) ObjectOption {
	return func(o *objectOptions) {
		o.slugKwarg = name
	}
}

// WithSlugField names the column the slug keyword argument is compared with.
func WithSlugField(name string) ObjectOption {
	return func(o *objectOptions) {
		o.slugField = name
	}
}

// ObjectFromRequest loads the object the route of r points at, by primary key
// when the route has one, else by slug. A translated slug is looked up in the
// request language and its fallbacks. Missing objects are reported with a
// false found flag, not an error.
func ObjectFromRequest[M any](
	rs *Resolver,
	source Source[M],
	r *http.Request,
	opts ...ObjectOption,
) (M, bool, error) {
	var zero M

	o := &objectOptions{pkKwarg: DefaultPKKwarg, slugKwarg: DefaultSlugKwarg, slugField: DefaultSlugField}
	for _, opt := range opts {
		opt(o)
	}

	match, ok := rs.Match(r)
	if !ok {
		return zero, false, nil
	}

	ctx := r.Context()
	if languages.RegistryFromContext(ctx) == nil && rs.Registry() != nil {
		ctx = languages.RegistryToContext(ctx, rs.Registry())
	}

	language := languages.FromRequest(r, rs.Registry(), true)
	if language != "" {
		ctx = languages.ToContext(ctx, language)
	}

	log := util.Log(ctx).WithField("route", match.Name).WithField("language", language)

	var (
		obj M
		err error
	)

	if pk, hasPK := match.Kwargs[o.pkKwarg]; hasPK {
		if !data.ValidID(pk) {
			return zero, false, nil
		}
		obj, err = source.GetByID(ctx, pk)
	} else if slug, hasSlug := match.Kwargs[o.slugKwarg]; hasSlug {
		obj, err = bySlug(ctx, source, language, o.slugField, slug)
	} else {
		return zero, false, nil
	}

	if err != nil {
		if data.ErrorIsNoRows(err) {
			log.Debug("no object for request")
			return zero, false, nil
		}
		return zero, false, err
	}

	return obj, true, nil
}

func bySlug[M any](ctx context.Context, source Source[M], language, field, slug string) (M, error) {
	var model M

	if translated, ok := source.(TranslatedSource[M]); ok && translated.IsTranslatedField(field) {
		if tr, err := data.NewTranslationModel(model); err == nil {
			field = columnOf(tr, field)
		}
		return translated.ActiveTranslation(ctx, language, map[string]any{field: slug})
	}
	return source.GetFirstBy(ctx, map[string]any{columnOf(model, field): slug})
}

// columnOf maps a Go field name to its column, unknown names are kept for the repository to reject.
func columnOf(model any, field string) string {
	if column, err := data.ColumnName(model, field); err == nil {
		return column
	}
	return field
}
