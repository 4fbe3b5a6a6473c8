// Package autoslug fills the slug field of translation rows when they are saved.
//
// A Slugger derives the slug from a source field, or from what the master
// supplies through SourceProvider, and probes the translation table with an
// increasing numeric suffix until the slug is free in its scope.
package autoslug

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/datastore"
	"github.com/pitabwire/translationtools/localization"
	"github.com/pitabwire/translationtools/slugify"
)

const instrumentationName = "github.com/pitabwire/translationtools/autoslug"

const (
	DefaultSlugField   = "slug"
	DefaultSourceField = "name"
	DefaultMaxAttempts = 1000
)

// ErrSlugExhausted is returned when no free slug fits the length or attempt bound.
var ErrSlugExhausted = errors.New("no unique slug available")

// SourceProvider is implemented by masters that build the slug source themselves.
// An empty result selects the default slug.
type SourceProvider interface {
	SlugSource(ctx context.Context, language string) string
}

// TakenFunc reports whether candidate is already used in the slug scope.
type TakenFunc func(ctx context.Context, candidate string) (bool, error)

// Slugger generates unique slugs for the translations of one master model.
type Slugger struct {
	SlugField   string
	SourceField string
	Separator   string
	// MaxLength bounds the slug, zero uses the column size.
	MaxLength      int
	GloballyUnique bool
	// Default is slugified when the source is empty.
	Default     string
	MaxAttempts int
	Unicode     bool

	localizer  localization.Manager
	tracer     trace.Tracer
	collisions metric.Int64Counter
}

var _ datastore.TranslationSaveHook = (*Slugger)(nil)

type Option func(*Slugger)

func WithSlugField(name string) Option {
	return func(s *Slugger) {
		s.SlugField = name
	}
}

func WithSourceField(name string) Option {
	return func(s *Slugger) {
		s.SourceField = name
	}
}

func WithSeparator(separator string) Option {
	return func(s *Slugger) {
		s.Separator = separator
	}
}

func WithMaxLength(maxLength int) Option {
	return func(s *Slugger) {
		s.MaxLength = maxLength
	}
}

// WithGloballyUnique makes slugs unique across all languages instead of per language.
func WithGloballyUnique() Option {
	return func(s *Slugger) {
		s.GloballyUnique = true
	}
}

func WithDefault(slug string) Option {
	return func(s *Slugger) {
		s.Default = slug
	}
}

func WithMaxAttempts(attempts int) Option {
	return func(s *Slugger) {
		s.MaxAttempts = attempts
	}
}

// WithUnicode keeps non-ASCII letters in generated slugs.
func WithUnicode() Option {
	return func(s *Slugger) {
		s.Unicode = true
	}
}

// WithLocalization translates the default slug message into the translation's language.
func WithLocalization(manager localization.Manager) Option {
	return func(s *Slugger) {
		s.localizer = manager
	}
}

// New creates a Slugger writing to "slug" from "name" unless configured otherwise.
func New(opts ...Option) *Slugger {
	s := &Slugger{
		SlugField:   DefaultSlugField,
		SourceField: DefaultSourceField,
		Separator:   slugify.DefaultSeparator,
		MaxAttempts: DefaultMaxAttempts,
		tracer:      otel.Tracer(instrumentationName),
	}

	for _, opt := range opts {
		opt(s)
	}

	collisions, err := otel.Meter(instrumentationName).Int64Counter(
		"translationtools.slug.collisions",
		metric.WithDescription("Slug candidates found taken while probing"),
	)
	if err == nil {
		s.collisions = collisions
	}

	return s
}

func (s *Slugger) slugify(text string) string {
	if s.Unicode {
		return slugify.SlugifyUnicode(text)
	}
	return slugify.Slugify(text)
}

// Source returns the text the slug of translation is derived from.
func (s *Slugger) Source(ctx context.Context, master any, translation data.Translation) string {
	if provider, ok := master.(SourceProvider); ok {
		return provider.SlugSource(ctx, translation.GetLanguageCode())
	}

	source, err := data.FieldString(ctx, translation, s.SourceField)
	if err != nil {
		util.Log(ctx).WithError(err).Debug("slug source field unreadable")
		return ""
	}
	return source
}

// DefaultSlug is the slug used when the source is empty, e.g. "simple-without-name".
func (s *Slugger) DefaultSlug(ctx context.Context, master any, translation data.Translation) string {
	if s.Default != "" {
		return s.slugify(s.Default)
	}

	variables := map[string]any{
		"Model": data.VerboseName(master),
		"Field": data.FieldVerboseName(translation, s.SourceField),
	}

	text := fmt.Sprintf("%s without %s", variables["Model"], variables["Field"])
	if s.localizer != nil {
		text = s.localizer.TranslateWithMap(
			ctx, translation.GetLanguageCode(), localization.MessageSlugDefault, variables)
	}

	return s.slugify(text)
}

// MaxSlugLength returns the configured bound or the size of the slug column.
func (s *Slugger) MaxSlugLength(translation data.Translation) int {
	if s.MaxLength > 0 {
		return s.MaxLength
	}
	return data.FieldSize(translation, s.SlugField)
}

// Unique probes base, base-1, base-2 and so on until taken reports a free
// candidate. The base is shortened so no candidate exceeds maxLength.
func (s *Slugger) Unique(ctx context.Context, base string, maxLength int, taken TakenFunc) (string, error) {
	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	candidate := slugify.Truncate(base, maxLength, s.Separator)
	for i := 1; ; i++ {
		isTaken, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !isTaken {
			return candidate, nil
		}

		if s.collisions != nil {
			s.collisions.Add(ctx, 1)
		}

		if i >= attempts {
			return "", fmt.Errorf("%w: %d candidates for %q are taken", ErrSlugExhausted, attempts, base)
		}

		suffix := s.Separator + strconv.Itoa(i)
		room := 0
		if maxLength > 0 {
			room = maxLength - slugify.Length(suffix)
			if room <= 0 {
				return "", fmt.Errorf("%w: suffix %q does not fit in %d characters", ErrSlugExhausted, suffix, maxLength)
			}
		}

		candidate = slugify.Truncate(base, room, s.Separator) + suffix
	}
}

// Taken returns the uniqueness query for translation: rows of the same table
// with the candidate slug, in the same language unless unique globally,
// excluding the row being saved.
func (s *Slugger) Taken(tx *gorm.DB, translation data.Translation) (TakenFunc, error) {
	table, err := data.TableName(translation)
	if err != nil {
		return nil, err
	}

	column, err := data.ColumnName(translation, s.SlugField)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, candidate string) (bool, error) {
		query := tx.WithContext(ctx).
			Table(table).
			Where("deleted_at IS NULL").
			Where(column+" = ?", candidate).
			Where("NOT (master_id = ? AND language_code = ?)",
				translation.GetMasterID(), translation.GetLanguageCode())

		if !s.GloballyUnique {
			query = query.Where("language_code = ?", translation.GetLanguageCode())
		}

		var count int64
		if err := query.Count(&count).Error; err != nil {
			return false, err
		}
		return count > 0, nil
	}, nil
}

// Ensure keeps a free slug as it is, otherwise writes a new unique slug to the translation.
// A taken slug is the base for the new one, an empty slug is derived from the source.
func (s *Slugger) Ensure(ctx context.Context, tx *gorm.DB, master any, translation data.Translation) error {
	ctx, span := s.tracer.Start(ctx, "autoslug.Ensure", trace.WithAttributes(
		attribute.String("slug.language", translation.GetLanguageCode()),
		attribute.Bool("slug.global", s.GloballyUnique),
	))
	defer span.End()

	slug, err := s.ensure(ctx, tx, master, translation)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("slug.value", slug))
	return nil
}

func (s *Slugger) ensure(ctx context.Context, tx *gorm.DB, master any, translation data.Translation) (string, error) {
	current, err := data.FieldString(ctx, translation, s.SlugField)
	if err != nil {
		return "", err
	}

	taken, err := s.Taken(tx, translation)
	if err != nil {
		return "", err
	}

	maxLength := s.MaxSlugLength(translation)

	// Explicit slugs are kept as given, only shortened to fit.
	current = slugify.Truncate(current, maxLength, s.Separator)
	base := current
	if current != "" {
		isTaken, takenErr := taken(ctx, current)
		if takenErr != nil {
			return "", takenErr
		}
		if !isTaken {
			return current, nil
		}
	} else {
		base = s.slugify(s.Source(ctx, master, translation))
		if base == "" {
			base = s.DefaultSlug(ctx, master, translation)
		}
		if base == "" {
			base = data.ModelName(master)
		}
	}

	slug, err := s.Unique(ctx, base, maxLength, taken)
	if err != nil {
		return "", err
	}

	util.Log(ctx).
		WithField("language", translation.GetLanguageCode()).
		WithField("slug", slug).
		Debug("slug assigned")

	return slug, data.SetFieldValue(ctx, translation, s.SlugField, slug)
}

// BeforeSaveTranslation runs Ensure inside the repository save transaction.
func (s *Slugger) BeforeSaveTranslation(
	ctx context.Context,
	tx *gorm.DB,
	master any,
	translation data.Translation,
) error {
	return s.Ensure(ctx, tx, master, translation)
}
