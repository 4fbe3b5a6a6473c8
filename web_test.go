package translationtools_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/pitabwire/translationtools"
	"github.com/pitabwire/translationtools/admin"
	"github.com/pitabwire/translationtools/config"
	"github.com/pitabwire/translationtools/internal/testaddon"
	"github.com/pitabwire/translationtools/languages"
)

type page string

func (p page) AbsoluteURL(ctx context.Context) (string, error) {
	return "/" + languages.FromContext(ctx) + "/" + string(p) + "/", nil
}

func pages(_ context.Context, _ string) ([]page, error) {
	return []page{"a", "b"}, nil
}

func (s *ToolkitSuite) webToolkit(cfg *config.ConfigurationDefault) (context.Context, *translationtools.Toolkit) {
	return s.newToolkit(
		translationtools.WithConfig(cfg),
		translationtools.WithLanguages(testaddon.Registry()),
	)
}

func (s *ToolkitSuite) TestMiddleware() {
	_, tk := s.webToolkit(&config.ConfigurationDefault{})

	var (
		seen     *translationtools.Toolkit
		language string
	)
	handler := tk.Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = translationtools.FromContext(r.Context())
		language = languages.FromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/de/simple/", nil))

	s.Same(tk, seen)
	s.Equal("de", language)
}

func (s *ToolkitSuite) TestAdmin() {
	ctx, tk := s.webToolkit(&config.ConfigurationDefault{AdminURLPrefix: "/manage"})

	var seen *translationtools.Toolkit
	add := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = translationtools.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	s.Require().NoError(tk.RegisterAdmin(testaddon.AppLabel, &testaddon.Simple{}, admin.ModelHandlers{Add: add}))

	changeList, err := tk.Resolver().Reverse(ctx,
		admin.RouteName(testaddon.AppLabel, &testaddon.Simple{}, admin.ActionChangeList))
	s.Require().NoError(err)
	s.Equal("/manage/test_addon/simple/", changeList)

	column := tk.TranslationsColumn(testaddon.AppLabel)
	s.Equal("Übersetzungen", column.Header(languages.ToContext(ctx, "de")))

	rec := httptest.NewRecorder()
	tk.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/manage/test_addon/simple/add/", nil))
	s.Equal(http.StatusNoContent, rec.Code)
	s.Same(tk, seen)

	rec = httptest.NewRecorder()
	tk.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/test_addon/simple/add/", nil))
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ToolkitSuite) TestSitemaps() {
	_, tk := s.webToolkit(&config.ConfigurationDefault{SitemapPageSize: 1})

	sm := translationtools.NewSitemap(tk, "de", pages)
	s.Equal(1, sm.PageSize())
	s.Equal("de", sm.Language())

	handler := translationtools.SitemapHandler(tk, pages)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.com/sitemap.xml", nil))
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "<loc>http://example.com/sitemap-de.xml</loc>")
	s.Contains(rec.Body.String(), "<loc>http://example.com/sitemap-fr.xml?p=2</loc>")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.com/sitemap-en.xml?p=2", nil))
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "<loc>http://example.com/en/b/</loc>")
	s.NotContains(rec.Body.String(), "/en/a/")
}
