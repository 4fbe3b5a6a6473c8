package languages

import (
	"context"
)

type contextKey string

func (c contextKey) String() string {
	return "translationtools/languages/" + string(c)
}

const (
	ctxKeyLanguage = contextKey("languageKey")
	ctxKeySite     = contextKey("siteKey")
	ctxKeyRegistry = contextKey("registryKey")
)

// ToContext sets the active language, the equivalent of overriding it for a block of work.
func ToContext(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, ctxKeyLanguage, code)
}

// FromContext returns the active language or "" when none is set.
func FromContext(ctx context.Context) string {
	code, ok := ctx.Value(ctxKeyLanguage).(string)
	if !ok {
		return ""
	}
	return code
}

// Current returns the active language, falling back to the registry default.
func Current(ctx context.Context, reg *Registry) string {
	if code := FromContext(ctx); code != "" {
		return code
	}

	if reg == nil {
		reg = RegistryFromContext(ctx)
	}
	if reg != nil {
		return reg.Default()
	}

	return ""
}

// WithSite sets the site whose fallback chains apply.
func WithSite(ctx context.Context, site int) context.Context {
	return context.WithValue(ctx, ctxKeySite, site)
}

// SiteFromContext returns the site set with WithSite.
func SiteFromContext(ctx context.Context) (int, bool) {
	site, ok := ctx.Value(ctxKeySite).(int)
	return site, ok
}

func RegistryToContext(ctx context.Context, reg *Registry) context.Context {
	return context.WithValue(ctx, ctxKeyRegistry, reg)
}

func RegistryFromContext(ctx context.Context) *Registry {
	reg, ok := ctx.Value(ctxKeyRegistry).(*Registry)
	if !ok {
		return nil
	}
	return reg
}
