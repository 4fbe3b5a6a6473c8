// Package testaddon holds the models, routes and views the integration tests run against.
package testaddon

import (
	"context"
	"fmt"

	"github.com/pitabwire/translationtools/autoslug"
	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/datastore"
	"github.com/pitabwire/translationtools/languages"
	"github.com/pitabwire/translationtools/translation"
	"github.com/pitabwire/translationtools/urls"
)

const AppLabel = "test_addon"

var (
	SimpleSlugger         = autoslug.New()
	UnconventionalSlugger = autoslug.New(autoslug.WithSourceField("Title"), autoslug.WithSlugField("UniqueSlug"))
	ComplexSlugger        = autoslug.New()
)

type Simple struct {
	data.BaseModel
	Translations []*SimpleTranslation `gorm:"foreignKey:MasterID"`
}

type SimpleTranslation struct {
	data.TranslationModel
	Name string `gorm:"size:64"`
	Slug string `gorm:"size:64"`
}

func (s *Simple) TranslationSaveHooks() []datastore.TranslationSaveHook {
	return []datastore.TranslationSaveHook{SimpleSlugger}
}

// In returns the translation of s in language, adding it when missing.
func (s *Simple) In(ctx context.Context, language string) *SimpleTranslation {
	tr, err := data.TranslationOf[*SimpleTranslation](ctx, s, language)
	if err != nil {
		panic(err)
	}
	return tr
}

// AbsoluteURL is the detail page of s in the best language available for ctx.
func (s *Simple) AbsoluteURL(ctx context.Context) (string, error) {
	rs := urls.FromContext(ctx)
	if rs == nil {
		return "", fmt.Errorf("%w: no resolver in context", urls.ErrNoReverseMatch)
	}

	slug, language, err := translation.String(ctx, rs.Registry(), s, "slug")
	if err != nil {
		return "", err
	}
	if language != "" {
		ctx = languages.ToContext(ctx, language)
	}

	return rs.ReverseKwargs(ctx, "simple-detail", map[string]any{"slug": slug})
}

func (s *Simple) String() string {
	for _, tr := range s.Translations {
		if tr.Name != "" {
			return tr.Name
		}
	}
	return "Simple: " + s.ID
}

type Untranslated struct {
	data.BaseModel
	Name string `gorm:"size:64"`
	Slug string `gorm:"size:64"`
}

func (u *Untranslated) AbsoluteURL(ctx context.Context) (string, error) {
	rs := urls.FromContext(ctx)
	if rs == nil {
		return "", fmt.Errorf("%w: no resolver in context", urls.ErrNoReverseMatch)
	}
	return rs.ReverseKwargs(ctx, "untranslated-detail", map[string]any{"slug": u.Slug})
}

type Unconventional struct {
	data.BaseModel
	Translations []*UnconventionalTranslation `gorm:"foreignKey:MasterID"`
}

type UnconventionalTranslation struct {
	data.TranslationModel
	Title      string `gorm:"size:64" verbose:"short title"`
	UniqueSlug string `gorm:"size:64"`
}

func (u *Unconventional) VerboseName() string {
	return "unconventional model"
}

func (u *Unconventional) TranslationSaveHooks() []datastore.TranslationSaveHook {
	return []datastore.TranslationSaveHook{UnconventionalSlugger}
}

func (u *Unconventional) In(ctx context.Context, language string) *UnconventionalTranslation {
	tr, err := data.TranslationOf[*UnconventionalTranslation](ctx, u, language)
	if err != nil {
		panic(err)
	}
	return tr
}

type Complex struct {
	data.BaseModel
	ObjectType   string                `gorm:"size:64"`
	Translations []*ComplexTranslation `gorm:"foreignKey:MasterID"`
}

type ComplexTranslation struct {
	data.TranslationModel
	Name string `gorm:"size:64"`
	Slug string `gorm:"size:64"`
}

func (c *Complex) TranslationSaveHooks() []datastore.TranslationSaveHook {
	return []datastore.TranslationSaveHook{ComplexSlugger}
}

// SlugSource combines the object type and the name, e.g. "complex: one".
func (c *Complex) SlugSource(_ context.Context, language string) string {
	if c.ObjectType == "" {
		return ""
	}

	for _, tr := range c.Translations {
		if tr.LanguageCode == language && tr.Name != "" {
			return fmt.Sprintf("%s: %s", c.ObjectType, tr.Name)
		}
	}
	return ""
}

func (c *Complex) In(ctx context.Context, language string) *ComplexTranslation {
	tr, err := data.TranslationOf[*ComplexTranslation](ctx, c, language)
	if err != nil {
		panic(err)
	}
	return tr
}

// Models lists every model of the add-on, for migrations.
func Models() []any {
	return []any{&Simple{}, &Untranslated{}, &Unconventional{}, &Complex{}}
}

func (u *Untranslated) String() string {
	return "Untranslated: " + u.Name
}
