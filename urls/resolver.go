// Package urls names routes so they can be reversed, resolves requests back to
// route keyword arguments and loads the object a request points at.
package urls

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/pitabwire/translationtools/languages"
)

// LanguageVar is the path variable holding the language of i18n routes.
const LanguageVar = "language"

// ErrNoReverseMatch is returned when no route of a name accepts the arguments.
var ErrNoReverseMatch = errors.New("no reverse match")

// RouteInfo describes a registered route for introspection.
type RouteInfo struct {
	Name    string
	Pattern string
	I18N    bool
}

type namedRoute struct {
	info  RouteInfo
	route *mux.Route
	vars  []string
}

// Resolver wraps a mux.Router and records named routes. Several routes may
// share a name, reversing picks the first whose variables fit.
type Resolver struct {
	router   *mux.Router
	registry *languages.Registry

	mu      sync.RWMutex
	byName  map[string][]*namedRoute
	byRoute map[*mux.Route]*namedRoute
	routes  []RouteInfo
}

// NewResolver creates a resolver, i18n routes accept the languages of reg.
func NewResolver(reg *languages.Registry) *Resolver {
	return &Resolver{
		router:   mux.NewRouter(),
		registry: reg,
		byName:   map[string][]*namedRoute{},
		byRoute:  map[*mux.Route]*namedRoute{},
	}
}

func (rs *Resolver) Registry() *languages.Registry {
	return rs.registry
}

// Router exposes the underlying router, e.g. to add middleware.
func (rs *Resolver) Router() *mux.Router {
	return rs.router
}

func (rs *Resolver) languagePattern() string {
	var codes []string
	if rs.registry != nil {
		for _, code := range rs.registry.Codes() {
			codes = append(codes, regexp.QuoteMeta(code))
		}
	}
	if len(codes) == 0 {
		return "/{" + LanguageVar + "}"
	}
	return "/{" + LanguageVar + ":" + strings.Join(codes, "|") + "}"
}

// Handle registers handler under name. An i18n route is served below a
// /{language} prefix limited to the configured languages.
func (rs *Resolver) Handle(name, pattern string, handler http.Handler, i18n bool) (*mux.Route, error) {
	full := pattern
	if i18n {
		full = rs.languagePattern() + pattern
	}

	route := rs.router.Handle(full, handler)
	if err := route.GetError(); err != nil {
		return nil, fmt.Errorf("route %s: %w", name, err)
	}

	vars, err := route.GetVarNames()
	if err != nil {
		return nil, fmt.Errorf("route %s: %w", name, err)
	}

	nr := &namedRoute{
		info:  RouteInfo{Name: name, Pattern: pattern, I18N: i18n},
		route: route,
		vars:  slices.DeleteFunc(vars, func(v string) bool { return i18n && v == LanguageVar }),
	}

	rs.mu.Lock()
	rs.byName[name] = append(rs.byName[name], nr)
	rs.byRoute[route] = nr
	rs.routes = append(rs.routes, nr.info)
	rs.mu.Unlock()

	return route, nil
}

// HandleFunc is Handle for plain functions.
func (rs *Resolver) HandleFunc(
	name, pattern string,
	handler func(http.ResponseWriter, *http.Request),
	i18n bool,
) (*mux.Route, error) {
	return rs.Handle(name, pattern, http.HandlerFunc(handler), i18n)
}

func (rs *Resolver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rs.router.ServeHTTP(w, req)
}

// Routes lists the registered routes in registration order.
func (rs *Resolver) Routes() []RouteInfo {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return slices.Clone(rs.routes)
}

func (rs *Resolver) named(name string) []*namedRoute {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return slices.Clone(rs.byName[name])
}

func (rs *Resolver) language(ctx context.Context) string {
	code := languages.Current(ctx, rs.registry)
	if rs.registry != nil && !rs.registry.Has(code) {
		return rs.registry.Default()
	}
	return code
}

func (rs *Resolver) build(ctx context.Context, nr *namedRoute, kwargs map[string]string) (string, error) {
	pairs := make([]string, 0, 2*(len(kwargs)+1))
	for _, v := range nr.vars {
		pairs = append(pairs, v, kwargs[v])
	}
	if nr.info.I18N {
		pairs = append(pairs, LanguageVar, rs.language(ctx))
	}

	u, err := nr.route.URLPath(pairs...)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Reverse builds the path of route name from positional arguments, in the
// order the variables appear in the pattern. The language prefix of i18n
// routes comes from ctx.
func (rs *Resolver) Reverse(ctx context.Context, name string, args ...any) (string, error) {
	for _, nr := range rs.named(name) {
		if len(nr.vars) != len(args) {
			continue
		}

		kwargs := make(map[string]string, len(args))
		for i, v := range nr.vars {
			kwargs[v] = fmt.Sprint(args[i])
		}

		if path, err := rs.build(ctx, nr, kwargs); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: %s with arguments %v", ErrNoReverseMatch, name, args)
}

// ReverseKwargs builds the path of the first route name whose variables are exactly kwargs.
func (rs *Resolver) ReverseKwargs(ctx context.Context, name string, kwargs map[string]any) (string, error) {
	for _, nr := range rs.named(name) {
		if len(nr.vars) != len(kwargs) {
			continue
		}

		values := make(map[string]string, len(kwargs))
		for _, v := range nr.vars {
			value, ok := kwargs[v]
			if !ok {
				break
			}
			values[v] = fmt.Sprint(value)
		}
		if len(values) != len(nr.vars) {
			continue
		}

		if path, err := rs.build(ctx, nr, values); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: %s with keyword arguments %v", ErrNoReverseMatch, name, kwargs)
}

// Match is the outcome of resolving a request.
type Match struct {
	Name     string
	Pattern  string
	Language string
	Kwargs   map[string]string
}

// Match resolves r against the registered routes.
func (rs *Resolver) Match(r *http.Request) (*Match, bool) {
	var rm mux.RouteMatch
	if !rs.router.Match(r, &rm) || rm.Route == nil || rm.MatchErr != nil {
		return nil, false
	}

	rs.mu.RLock()
	nr, ok := rs.byRoute[rm.Route]
	rs.mu.RUnlock()
	if !ok {
		return nil, false
	}

	match := &Match{Name: nr.info.Name, Pattern: nr.info.Pattern, Kwargs: map[string]string{}}
	for k, v := range rm.Vars {
		if nr.info.I18N && k == LanguageVar {
			match.Language = v
			continue
		}
		match.Kwargs[k] = v
	}

	return match, true
}

type contextKey string

func (c contextKey) String() string {
	return "translationtools/urls/" + string(c)
}

const ctxKeyResolver = contextKey("resolverKey")

func ToContext(ctx context.Context, rs *Resolver) context.Context {
	return context.WithValue(ctx, ctxKeyResolver, rs)
}

func FromContext(ctx context.Context) *Resolver {
	rs, ok := ctx.Value(ctxKeyResolver).(*Resolver)
	if !ok {
		return nil
	}
	return rs
}
