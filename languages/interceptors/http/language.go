package http

import (
	"net/http"

	"github.com/pitabwire/translationtools/languages"
)

// LanguageHTTPMiddleware puts the request language and the registry into the request context.
func LanguageHTTPMiddleware(reg *languages.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := languages.FromRequest(r, reg, true)

			ctx := languages.RegistryToContext(r.Context(), reg)
			ctx = languages.ToContext(ctx, code)
			r = r.WithContext(ctx)

			w.Header().Set("Content-Language", code)
			next.ServeHTTP(w, r)
		})
	}
}
