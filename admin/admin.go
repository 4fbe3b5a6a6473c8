// Package admin provides list display helpers for translatable models: a
// column linking every translation to its change form, admin URL
// construction and the admin routes of a model.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/urls"
)

// ColumnAllTranslations is the list display column rendered by TranslationsColumn.
const ColumnAllTranslations = "all_translations"

// StylesheetPath is the bundled stylesheet styling the translation links.
const StylesheetPath = "css/admin/all-translations-mixin.css"

// Admin route actions.
const (
	ActionChangeList = "changelist"
	ActionAdd        = "add"
	ActionChange     = "change"
)

const DefaultURLPrefix = "/admin"

//go:embed static
var staticFiles embed.FS

// StaticHandler serves the bundled assets, e.g. StylesheetPath, relative to where it is mounted.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// Stylesheets lists the assets pages showing the translations column include.
func Stylesheets() []string {
	return []string{StylesheetPath}
}

// ListDisplay appends the translations column unless it is already placed.
func ListDisplay(columns []string) []string {
	if slices.Contains(columns, ColumnAllTranslations) {
		return columns
	}
	return append(slices.Clone(columns), ColumnAllTranslations)
}

// RouteName returns the admin route name of model, e.g. "test_addon_simple_change".
func RouteName(appLabel string, model any, action string) string {
	return fmt.Sprintf("%s_%s_%s", strings.ToLower(appLabel), data.ModelName(model), action)
}

// AdminURL reverses the admin route action with args and appends params
// sorted by key. Strings, numbers and booleans are written as is, other
// values as JSON.
func AdminURL(
	ctx context.Context,
	rs *urls.Resolver,
	action string,
	args []any,
	params map[string]any,
) (string, error) {
	base, err := rs.Reverse(ctx, action, args...)
	if err != nil {
		return "", err
	}

	if len(params) == 0 {
		return base, nil
	}

	values := url.Values{}
	for k, v := range params {
		s, encErr := paramString(v)
		if encErr != nil {
			return "", fmt.Errorf("admin url parameter %s: %w", k, encErr)
		}
		values.Set(k, s)
	}

	return base + "?" + values.Encode(), nil
}

func paramString(v any) (string, error) {
	switch value := v.(type) {
	case string:
		return value, nil
	case fmt.Stringer:
		return value.String(), nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(value), nil
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// ModelHandlers serve the admin pages of one model, nil handlers answer 404.
type ModelHandlers struct {
	ChangeList http.Handler
	Add        http.Handler
	Change     http.Handler
}

type registerOptions struct {
	prefix string
}

type RegisterOption func(*registerOptions)

// WithURLPrefix mounts the admin routes below prefix instead of DefaultURLPrefix.
func WithURLPrefix(prefix string) RegisterOption {
	return func(o *registerOptions) {
		o.prefix = strings.TrimRight(prefix, "/")
	}
}

func orNotFound(h http.Handler) http.Handler {
	if h == nil {
		return http.NotFoundHandler()
	}
	return h
}

// RegisterModel adds the changelist, add and change routes of model:
// <prefix>/<app>/<model>/, .../add/ and .../{id}/.
func RegisterModel(
	rs *urls.Resolver,
	appLabel string,
	model any,
	handlers ModelHandlers,
	opts ...RegisterOption,
) error {
	o := &registerOptions{prefix: DefaultURLPrefix}
	for _, opt := range opts {
		opt(o)
	}

	base := fmt.Sprintf("%s/%s/%s", o.prefix, strings.ToLower(appLabel), data.ModelName(model))

	routes := []struct {
		action  string
		pattern string
		handler http.Handler
	}{
		{ActionChangeList, base + "/", handlers.ChangeList},
		{ActionAdd, base + "/add/", handlers.Add},
		{ActionChange, base + "/{id}/", handlers.Change},
	}

	for _, route := range routes {
		_, err := rs.Handle(RouteName(appLabel, model, route.action), route.pattern, orNotFound(route.handler), false)
		if err != nil {
			return err
		}
	}

	return nil
}
