package admin

import (
	"context"
	"html/template"
	"slices"
	"strings"

	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/languages"
	"github.com/pitabwire/translationtools/localization"
	"github.com/pitabwire/translationtools/urls"
)

var linksTemplate = template.Must(template.New("all_translations").Parse(
	`{{range .}}<a class="{{.Class}}" href="{{.URL}}" title="{{.Title}}">{{.Code}}</a>{{end}}`,
))

type translationLink struct {
	Class string
	URL   string
	Title string
	Code  string
}

// TranslationsColumn renders, for every configured language, a link to the
// change form of an object in that language. Links are tagged "current" for
// the active language and "active" when a translation exists.
type TranslationsColumn struct {
	resolver  *urls.Resolver
	registry  *languages.Registry
	localizer localization.Manager
	appLabel  string
}

type ColumnOption func(*TranslationsColumn)

// WithLocalizer translates the column header and link titles.
func WithLocalizer(manager localization.Manager) ColumnOption {
	return func(c *TranslationsColumn) {
		c.localizer = manager
	}
}

// WithRegistry sets the languages listed, the resolver registry otherwise.
func WithRegistry(reg *languages.Registry) ColumnOption {
	return func(c *TranslationsColumn) {
		c.registry = reg
	}
}

func NewTranslationsColumn(rs *urls.Resolver, appLabel string, opts ...ColumnOption) *TranslationsColumn {
	c := &TranslationsColumn{resolver: rs, registry: rs.Registry(), appLabel: appLabel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TranslationsColumn) Name() string {
	return ColumnAllTranslations
}

// Header is the column title in the active language.
func (c *TranslationsColumn) Header(ctx context.Context) string {
	if c.localizer == nil {
		return "Translations"
	}
	return c.localizer.Translate(ctx, ctx, localization.MessageTranslationsColumn)
}

func (c *TranslationsColumn) title(ctx context.Context, name string, translated bool) string {
	if c.localizer == nil {
		if translated {
			return name + " (translated)"
		}
		return name + " (untranslated)"
	}

	messageID := localization.MessageLanguageUntranslated
	if translated {
		messageID = localization.MessageLanguageTranslated
	}
	return c.localizer.TranslateWithMap(ctx, ctx, messageID, map[string]any{"Language": name})
}

// Render returns the links for obj, which must have its translations loaded.
func (c *TranslationsColumn) Render(ctx context.Context, obj data.BaseModelI) (template.HTML, error) {
	available, err := data.AvailableLanguages(ctx, obj)
	if err != nil {
		return "", err
	}

	reg := c.registry
	if reg == nil {
		reg = languages.RegistryFromContext(ctx)
	}
	if reg == nil {
		return "", nil
	}

	changeURL, err := c.resolver.Reverse(ctx, RouteName(c.appLabel, obj, ActionChange), obj.GetID())
	if err != nil {
		return "", err
	}

	current := languages.Current(ctx, reg)

	links := make([]translationLink, 0, len(reg.Languages()))
	for _, lang := range reg.Languages() {
		classes := []string{"lang-code"}
		if lang.Code == current {
			classes = append(classes, "current")
		}

		translated := slices.Contains(available, lang.Code)
		if translated {
			classes = append(classes, "active")
		}

		links = append(links, translationLink{
			Class: strings.Join(classes, " "),
			URL:   changeURL + "?language=" + lang.Code,
			Title: c.title(ctx, lang.Name, translated),
			Code:  lang.Code,
		})
	}

	var b strings.Builder
	if err = linksTemplate.Execute(&b, links); err != nil {
		return "", err
	}

	//nolint:gosec // the links are escaped by html/template
	return template.HTML(b.String()), nil
}
