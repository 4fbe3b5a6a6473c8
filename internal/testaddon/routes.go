package testaddon

import (
	"fmt"
	"net/http"

	"github.com/pitabwire/translationtools/urls"
)

// Route patterns accept an object id or a slug.
const (
	pkPattern   = "{pk:[0-9a-v]{20}}"
	slugPattern = `{slug:\w[-\w]*}`
)

// DetailHandler writes the string form of the object the request points at.
func DetailHandler[M fmt.Stringer](rs *urls.Resolver, source urls.Source[M]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		obj, found, err := urls.ObjectFromRequest(rs, source, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !found {
			http.NotFound(w, r)
			return
		}
		_, _ = fmt.Fprint(w, obj.String())
	})
}

// RegisterRoutes adds the add-on routes, simple pages are translated.
func RegisterRoutes(rs *urls.Resolver, simple urls.Source[*Simple], untranslated urls.Source[*Untranslated]) error {
	simpleDetail := DetailHandler(rs, simple)
	untranslatedDetail := DetailHandler(rs, untranslated)
	empty := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	routes := []struct {
		name    string
		pattern string
		handler http.Handler
		i18n    bool
	}{
		{"simple-root", "/empty-view", empty, true},
		{"simple-list", "/simple/", empty, true},
		{"simple-detail", "/simple/" + pkPattern + "/", simpleDetail, true},
		{"simple-detail", "/simple/" + slugPattern + "/", simpleDetail, true},
		{"untranslated-detail", "/untranslated/" + pkPattern + "/", untranslatedDetail, false},
		{"untranslated-detail", "/untranslated/" + slugPattern + "/", untranslatedDetail, false},
	}

	for _, route := range routes {
		if _, err := rs.Handle(route.name, route.pattern, route.handler, route.i18n); err != nil {
			return err
		}
	}
	return nil
}
