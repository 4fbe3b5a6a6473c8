// Package translation reads translated fields of a master model while honouring
// the fallback chains configured per site.
package translation

import (
	"context"
	"fmt"
	"slices"

	"github.com/pitabwire/util"

	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/languages"
)

// Result describes how a translated value was resolved.
type Result struct {
	Value any
	// Requested is the language asked for, Resolved the one the value is in.
	// Resolved is empty when Value is the default.
	Requested    string
	Resolved     string
	Available    []string
	FallbackUsed bool
}

type options struct {
	def         any
	language    string
	anyLanguage bool
	site        int
}

type Option func(*options)

// WithDefault sets the value returned when no suitable translation exists.
func WithDefault(v any) Option {
	return func(o *options) {
		o.def = v
	}
}

// WithLanguage asks for code instead of the language of the context.
func WithLanguage(code string) Option {
	return func(o *options) {
		o.language = code
	}
}

// WithAnyLanguage accepts any available translation once the fallbacks are exhausted.
func WithAnyLanguage() Option {
	return func(o *options) {
		o.anyLanguage = true
	}
}

// WithSite selects the site whose fallback chains apply.
func WithSite(site int) Option {
	return func(o *options) {
		o.site = site
	}
}

// AvailableLanguages lists the languages obj has loaded translations in.
func AvailableLanguages(ctx context.Context, obj any) ([]string, error) {
	if !data.IsTranslatable(obj) {
		return nil, fmt.Errorf("%w: %T has no translations", data.ErrImproperlyConfigured, obj)
	}
	return data.AvailableLanguages(ctx, obj)
}

func checkField(obj any, field string) error {
	translation, err := data.NewTranslationModel(obj)
	if err != nil {
		return err
	}
	_, err = data.LookUpField(translation, field)
	return err
}

// Resolve looks the field up in the requested language, then in its fallback
// languages, then, when allowed, in any available language.
func Resolve(ctx context.Context, reg *languages.Registry, obj any, field string, opts ...Option) (Result, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if err := checkField(obj, field); err != nil {
		return Result{}, err
	}

	available, err := data.AvailableLanguages(ctx, obj)
	if err != nil {
		return Result{}, err
	}

	if reg == nil {
		reg = languages.RegistryFromContext(ctx)
	}

	requested := o.language
	if requested == "" {
		requested = languages.Current(ctx, reg)
	}

	result := Result{Value: o.def, Requested: requested, Available: available}

	candidates := []string{requested}
	if reg != nil {
		site := o.site
		if site <= 0 {
			if ctxSite, ok := languages.SiteFromContext(ctx); ok {
				site = ctxSite
			}
		}
		candidates = append(candidates, reg.FallbackLanguages(requested, site)...)
	}

	resolved := ""
	for _, candidate := range candidates {
		if candidate != "" && slices.Contains(available, candidate) {
			resolved = candidate
			break
		}
	}

	if resolved == "" && o.anyLanguage {
		resolved = firstAvailable(reg, available)
	}

	if resolved == "" {
		util.Log(ctx).
			WithField("field", field).
			WithField("language", requested).
			Debug("no translation in language or fallbacks")
		return result, nil
	}

	value, err := fieldIn(ctx, obj, field, resolved)
	if err != nil {
		return Result{}, err
	}

	result.Value = value
	result.Resolved = resolved
	result.FallbackUsed = resolved != requested
	return result, nil
}

func firstAvailable(reg *languages.Registry, available []string) string {
	if reg != nil {
		for _, code := range reg.Codes() {
			if slices.Contains(available, code) {
				return code
			}
		}
	}

	if len(available) > 0 {
		return available[0]
	}
	return ""
}

func fieldIn(ctx context.Context, obj any, field, language string) (any, error) {
	tr, ok, err := data.TranslationFor(ctx, obj, language)
	if err != nil || !ok {
		return nil, err
	}
	return data.FieldValue(ctx, tr, field)
}

// KnownTranslationGetter returns the value of field together with the
// language it is in, or the default and "" when no suitable translation exists.
func KnownTranslationGetter(
	ctx context.Context,
	reg *languages.Registry,
	obj any,
	field string,
	opts ...Option,
) (any, string, error) {
	result, err := Resolve(ctx, reg, obj, field, opts...)
	if err != nil {
		return nil, "", err
	}
	return result.Value, result.Resolved, nil
}

// SafeTranslationGetter returns field in the active language, else in the
// default language, else def. It never fails.
func SafeTranslationGetter(ctx context.Context, reg *languages.Registry, obj any, field string, def any) any {
	if reg == nil {
		reg = languages.RegistryFromContext(ctx)
	}

	if err := checkField(obj, field); err != nil {
		util.Log(ctx).WithError(err).Debug("safe translation getter on an unsuitable field")
		return def
	}

	candidates := []string{languages.Current(ctx, reg)}
	if reg != nil {
		candidates = append(candidates, reg.Default())
	}

	for _, code := range candidates {
		if code == "" {
			continue
		}
		value, err := fieldIn(ctx, obj, field, code)
		if err == nil && value != nil {
			return value
		}
	}

	return def
}

// String is KnownTranslationGetter for string fields.
func String(ctx context.Context, reg *languages.Registry, obj any, field string, opts ...Option) (string, string, error) {
	value, language, err := KnownTranslationGetter(ctx, reg, obj, field, opts...)
	if err != nil {
		return "", "", err
	}

	s, _ := value.(string)
	return s, language, nil
}
