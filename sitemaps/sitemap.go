// Package sitemaps writes sitemap XML, with I18N binding one language to a
// sitemap so item locations resolve under that language.
package sitemaps

import (
	"context"
	"errors"
	"time"

	"github.com/pitabwire/util"

	"github.com/pitabwire/translationtools/languages"
	"github.com/pitabwire/translationtools/urls"
)

// DefaultPageSize is the sitemap protocol limit of urls per file.
const DefaultPageSize = 50000

// Change frequencies understood by crawlers.
const (
	Always  = "always"
	Hourly  = "hourly"
	Daily   = "daily"
	Weekly  = "weekly"
	Monthly = "monthly"
	Yearly  = "yearly"
	Never   = "never"
)

// Sitemap lists the items of one sitemap section.
type Sitemap interface {
	Items(ctx context.Context) ([]any, error)
	// Location returns the path of item, "" leaves it out.
	Location(ctx context.Context, item any) (string, error)
	LastModified(item any) *time.Time
	ChangeFrequency(item any) string
	// Priority between 0 and 1, 0 leaves it out.
	Priority(item any) float64
	PageSize() int
}

// Locatable items know their canonical URL in the language of ctx.
type Locatable interface {
	AbsoluteURL(ctx context.Context) (string, error)
}

// Modified items report when they last changed, data.BaseModel does.
type Modified interface {
	GetModifiedAt() time.Time
}

type i18nOptions struct {
	changeFrequency string
	priority        float64
	pageSize        int
}

type I18NOption func(*i18nOptions)

func WithChangeFrequency(frequency string) I18NOption {
	return func(o *i18nOptions) {
		o.changeFrequency = frequency
	}
}

func WithPriority(priority float64) I18NOption {
	return func(o *i18nOptions) {
		o.priority = priority
	}
}

func WithPageSize(size int) I18NOption {
	return func(o *i18nOptions) {
		o.pageSize = size
	}
}

// I18N is a sitemap of the items translated into a single language.
type I18N[T Locatable] struct {
	language string
	items    func(ctx context.Context, language string) ([]T, error)
	opts     i18nOptions
}

var _ Sitemap = (*I18N[Locatable])(nil)

// NewI18N binds language to a sitemap, an empty language selects the first configured one.
// items should only return objects translated into the language it receives.
func NewI18N[T Locatable](
	reg *languages.Registry,
	language string,
	items func(ctx context.Context, language string) ([]T, error),
	opts ...I18NOption,
) *I18N[T] {
	if language == "" && reg != nil {
		if codes := reg.Codes(); len(codes) > 0 {
			language = codes[0]
		}
	}

	s := &I18N[T]{language: language, items: items, opts: i18nOptions{pageSize: DefaultPageSize}}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

func (s *I18N[T]) Language() string {
	return s.language
}

func (s *I18N[T]) Items(ctx context.Context) ([]any, error) {
	typed, err := s.items(languages.ToContext(ctx, s.language), s.language)
	if err != nil {
		return nil, err
	}

	items := make([]any, len(typed))
	for i, item := range typed {
		items[i] = item
	}
	return items, nil
}

// Location resolves the item URL with the sitemap language active.
// An item that cannot be reversed is left out.
func (s *I18N[T]) Location(ctx context.Context, item any) (string, error) {
	locatable, ok := item.(Locatable)
	if !ok {
		return "", nil
	}

	location, err := locatable.AbsoluteURL(languages.ToContext(ctx, s.language))
	if err != nil {
		if errors.Is(err, urls.ErrNoReverseMatch) {
			util.Log(ctx).WithError(err).WithField("language", s.language).Debug("sitemap item has no url")
			return "", nil
		}
		return "", err
	}

	return location, nil
}

func (s *I18N[T]) LastModified(item any) *time.Time {
	modified, ok := item.(Modified)
	if !ok {
		return nil
	}

	at := modified.GetModifiedAt()
	if at.IsZero() {
		return nil
	}
	return &at
}

func (s *I18N[T]) ChangeFrequency(_ any) string {
	return s.opts.changeFrequency
}

func (s *I18N[T]) Priority(_ any) float64 {
	return s.opts.priority
}

func (s *I18N[T]) PageSize() int {
	return s.opts.pageSize
}
