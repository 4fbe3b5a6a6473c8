package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pitabwire/translationtools/config"
	"github.com/pitabwire/translationtools/languages"
	lhttp "github.com/pitabwire/translationtools/languages/interceptors/http"
)

func TestLanguageHTTPMiddleware(t *testing.T) {
	reg := languages.MustRegistry(&config.LanguageSettings{
		Languages: []config.LanguageSetting{{Code: "en"}, {Code: "de"}},
	}, 1)

	var seen string
	handler := lhttp.LanguageHTTPMiddleware(reg)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = languages.Current(r.Context(), nil)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/de/things/", nil))
	require.Equal(t, "de", seen)
	require.Equal(t, "de", rec.Header().Get("Content-Language"))

	req := httptest.NewRequest(http.MethodGet, "/things/", nil)
	req.Header.Set("Accept-Language", "fr")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "en", seen)
}
