package translationtools

import (
	"context"
	"net/http"

	"github.com/pitabwire/translationtools/admin"
	"github.com/pitabwire/translationtools/config"
	"github.com/pitabwire/translationtools/languages"
	"github.com/pitabwire/translationtools/sitemaps"
)

// Middleware puts the toolkit and the request language into every request context.
func (t *Toolkit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ToContext(r.Context(), t)
		if code := languages.FromRequest(r, t.registry, true); code != "" {
			ctx = languages.ToContext(ctx, code)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Handler serves the resolver routes behind Middleware.
func (t *Toolkit) Handler() http.Handler {
	return t.Middleware(t.resolver)
}

func (t *Toolkit) adminPrefix() string {
	if cfg, ok := t.cfg.(config.ConfigurationAdmin); ok && cfg.GetAdminURLPrefix() != "" {
		return cfg.GetAdminURLPrefix()
	}
	return admin.DefaultURLPrefix
}

// RegisterAdmin adds the admin routes of model below ADMIN_URL_PREFIX.
func (t *Toolkit) RegisterAdmin(appLabel string, model any, handlers admin.ModelHandlers) error {
	return admin.RegisterModel(t.resolver, appLabel, model, handlers, admin.WithURLPrefix(t.adminPrefix()))
}

// TranslationsColumn returns the admin translations column localized with the toolkit messages.
func (t *Toolkit) TranslationsColumn(appLabel string) *admin.TranslationsColumn {
	opts := []admin.ColumnOption{admin.WithRegistry(t.registry)}
	if t.localizer != nil {
		opts = append(opts, admin.WithLocalizer(t.localizer))
	}
	return admin.NewTranslationsColumn(t.resolver, appLabel, opts...)
}

// NewSitemap creates a sitemap of items in language, pages hold SITEMAP_PAGE_SIZE urls.
func NewSitemap[T sitemaps.Locatable](
	t *Toolkit,
	language string,
	items func(ctx context.Context, language string) ([]T, error),
	opts ...sitemaps.I18NOption,
) *sitemaps.I18N[T] {
	if cfg, ok := t.cfg.(config.ConfigurationAdmin); ok && cfg.GetSitemapPageSize() > 0 {
		opts = append([]sitemaps.I18NOption{sitemaps.WithPageSize(cfg.GetSitemapPageSize())}, opts...)
	}
	return sitemaps.NewI18N(t.registry, language, items, opts...)
}

// SitemapHandler serves one sitemap section per configured language, named after the language code.
func SitemapHandler[T sitemaps.Locatable](
	t *Toolkit,
	items func(ctx context.Context, language string) ([]T, error),
	opts ...sitemaps.I18NOption,
) http.Handler {
	sections := map[string]sitemaps.Sitemap{}
	for _, code := range t.registry.Codes() {
		sections[code] = NewSitemap(t, code, items, opts...)
	}
	return t.Middleware(sitemaps.Handler(sections))
}
