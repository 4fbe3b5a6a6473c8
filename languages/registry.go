package languages

import (
	"fmt"
	"slices"

	"golang.org/x/text/language"

	"github.com/pitabwire/translationtools/config"
)

// Language is a configured language code and its display name.
type Language struct {
	Code string
	Name string
}

// Registry answers which languages are served and how they fall back on each site.
type Registry struct {
	settings  *config.LanguageSettings
	languages []Language
	index     map[string]int
	site      int
	matcher   language.Matcher
}

// NewRegistry builds a registry from validated settings, site is used when a lookup names none.
func NewRegistry(settings *config.LanguageSettings, site int) (*Registry, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: nil settings", config.ErrInvalidLanguageSettings)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	reg := &Registry{
		settings: settings,
		index:    make(map[string]int, len(settings.Languages)),
		site:     site,
	}

	tags := make([]language.Tag, 0, len(settings.Languages))
	for i, lang := range settings.Languages {
		name := lang.Name
		if name == "" {
			name = lang.Code
		}
		reg.languages = append(reg.languages, Language{Code: lang.Code, Name: name})
		reg.index[lang.Code] = i
		tags = append(tags, language.Make(lang.Code))
	}
	reg.matcher = language.NewMatcher(tags)

	return reg, nil
}

// MustRegistry is NewRegistry panicking on error, meant for static setups and tests.
func MustRegistry(settings *config.LanguageSettings, site int) *Registry {
	reg, err := NewRegistry(settings, site)
	if err != nil {
		panic(err)
	}
	return reg
}

// Languages lists the configured languages in configuration order.
func (r *Registry) Languages() []Language {
	return slices.Clone(r.languages)
}

// Codes lists the configured language codes in configuration order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.languages))
	for _, lang := range r.languages {
		codes = append(codes, lang.Code)
	}
	return codes
}

// Name returns the display name of code, or the code itself when unknown.
func (r *Registry) Name(code string) string {
	if i, ok := r.index[code]; ok {
		return r.languages[i].Name
	}

	for _, siteLanguages := range r.settings.Sites {
		for _, lang := range siteLanguages {
			if lang.Code == code && lang.Name != "" {
				return lang.Name
			}
		}
	}

	return code
}

func (r *Registry) Has(code string) bool {
	_, ok := r.index[code]
	return ok
}

// Default is the language used when nothing else selects one.
func (r *Registry) Default() string {
	return r.settings.Default
}

// Site is the site lookups fall back to.
func (r *Registry) Site() int {
	return r.site
}

// SiteLanguages returns the per language settings of site, site <= 0 meaning the registry site.
func (r *Registry) SiteLanguages(site int) []config.SiteLanguage {
	if site <= 0 {
		site = r.site
	}
	return slices.Clone(r.settings.Sites[config.SiteKey(site)])
}

// FallbackLanguages returns, in order, the languages consulted when content
// is missing in code. A site language with explicit fallbacks uses them, one
// without uses the other languages of the site. Languages unknown to the site
// use the default fallbacks. The result never contains code.
func (r *Registry) FallbackLanguages(code string, site int) []string {
	siteLanguages := r.SiteLanguages(site)

	for _, lang := range siteLanguages {
		if lang.Code != code {
			continue
		}

		if lang.Fallbacks != nil {
			return without(lang.Fallbacks, code)
		}

		others := make([]string, 0, len(siteLanguages))
		for _, other := range siteLanguages {
			others = append(others, other.Code)
		}
		return without(others, code)
	}

	return without(r.settings.DefaultFallbacks, code)
}

// Match picks the configured language closest to the supplied preferences,
// e.g. the values of an Accept-Language header.
func (r *Registry) Match(preferences ...string) (string, bool) {
	var tags []language.Tag
	for _, pref := range preferences {
		parsed, _, err := language.ParseAcceptLanguage(pref)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}

	if len(tags) == 0 {
		return "", false
	}

	_, idx, confidence := r.matcher.Match(tags...)
	if confidence == language.No {
		return "", false
	}

	return r.languages[idx].Code, true
}

func without(codes []string, code string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if c == code || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}
