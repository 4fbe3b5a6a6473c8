package localization

import (
	"context"
	"embed"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"
	"google.golang.org/grpc/metadata"

	"github.com/pitabwire/translationtools/languages"
)

// Message ids of the bundled catalogue.
const (
	MessageSlugDefault          = "SlugDefault"
	MessageTranslationsColumn   = "TranslationsColumn"
	MessageLanguageTranslated   = "LanguageTranslated"
	MessageLanguageUntranslated = "LanguageUntranslated"
)

//go:embed messages/*.toml
var bundledMessages embed.FS

// BundledLanguages are the languages the embedded catalogue ships.
var BundledLanguages = []string{"en", "de", "fr"}

var defaultMessages = map[string]string{
	MessageSlugDefault:          "{{.Model}} without {{.Field}}",
	MessageTranslationsColumn:   "Translations",
	MessageLanguageTranslated:   "{{.Language}} (translated)",
	MessageLanguageUntranslated: "{{.Language}} (untranslated)",
}

type Manager interface {
	Bundle() *i18n.Bundle
	Translate(ctx context.Context, request any, messageID string) string
	TranslateWithMap(
		ctx context.Context,
		request any,
		messageID string,
		variables map[string]any,
	) string
	TranslateWithMapAndCount(
		ctx context.Context,
		request any,
		messageID string,
		variables map[string]any,
		count int,
	) string
}

type managerImpl struct {
	bundle *i18n.Bundle
}

// NewManager loads messages.<lang>.toml for every language from translationsFolder.
// An empty folder selects the embedded catalogue, languages it lacks are skipped.
func NewManager(translationsFolder string, langs ...string) (Manager, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	if len(langs) == 0 {
		langs = BundledLanguages
	}

	for _, lang := range langs {
		fileName := fmt.Sprintf("messages.%s.toml", lang)

		if translationsFolder == "" {
			content, err := bundledMessages.ReadFile("messages/" + fileName)
			if err != nil {
				continue
			}
			if _, err = bundle.ParseMessageFileBytes(content, fileName); err != nil {
				return nil, fmt.Errorf("could not parse bundled messages %s: %w", fileName, err)
			}
			continue
		}

		path := filepath.Join(translationsFolder, fileName)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("could not find messages for %s: %w", lang, err)
		}
		if _, err := bundle.LoadMessageFile(path); err != nil {
			return nil, fmt.Errorf("could not load messages %s: %w", path, err)
		}
	}

	return &managerImpl{bundle: bundle}, nil
}

// Bundle Access the translation bundle instantiated in the system.
func (s *managerImpl) Bundle() *i18n.Bundle {
	return s.bundle
}

// Translate performs a quick translation based on the supplied message id.
func (s *managerImpl) Translate(ctx context.Context, request any, messageID string) string {
	return s.TranslateWithMap(ctx, request, messageID, map[string]any{})
}

// TranslateWithMap performs a translation with variables based on the supplied message id.
func (s *managerImpl) TranslateWithMap(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
) string {
	return s.localize(ctx, request, messageID, variables, nil)
}

// TranslateWithMapAndCount performs a translation with variables based on the supplied message id and can pluralize.
// request selects the language: a code, a list of codes, an *http.Request or a context.
func (s *managerImpl) TranslateWithMapAndCount(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
	count int,
) string {
	return s.localize(ctx, request, messageID, variables, count)
}

func (s *managerImpl) localize(
	ctx context.Context,
	request any,
	messageID string,
	variables map[string]any,
	count any,
) string {
	var languageSlice []string

	switch v := request.(type) {
	case *http.Request:
		languageSlice = ExtractLanguageFromHTTPRequest(v)
	case context.Context:
		languageSlice = ExtractLanguageFromContext(v)
	case string:
		languageSlice = []string{v}
	case []string:
		languageSlice = v
	case nil:
		languageSlice = ExtractLanguageFromContext(ctx)
	default:
		logger := util.Log(ctx).WithField("messageID", messageID).WithField("variables", variables)
		logger.Warn("no valid request object found, use string, []string, context or http.Request")
		return messageID
	}

	localizer := i18n.NewLocalizer(s.Bundle(), languageSlice...)

	defaultMessage := &i18n.Message{ID: messageID, Other: defaultMessages[messageID]}
	if defaultMessage.Other == "" {
		defaultMessage.Other = messageID
	}

	transVersion, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:      messageID,
		DefaultMessage: defaultMessage,
		TemplateData:   variables,
		PluralCount:    count,
	})
	if err != nil {
		util.Log(ctx).WithError(err).WithField("messageID", messageID).Debug("could not perform translation")
	}

	return transVersion
}

// ExtractLanguageFromHTTPRequest lists the lang query parameter followed by the Accept-Language entries.
func ExtractLanguageFromHTTPRequest(req *http.Request) []string {
	var langs []string
	if lang := req.URL.Query().Get(languages.QueryParam); lang != "" {
		langs = append(langs, lang)
	}

	return append(langs, ExtractLanguageFromHTTPHeader(req.Header)...)
}

func ExtractLanguageFromHTTPHeader(header http.Header) []string {
	return splitAccept(header.Get(languages.AcceptLanguage))
}

// ExtractLanguageFromContext prefers the active language of ctx over incoming gRPC metadata.
func ExtractLanguageFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}

	if code := languages.FromContext(ctx); code != "" {
		return []string{code}
	}

	return ExtractLanguageFromGrpcRequest(ctx)
}

func ExtractLanguageFromGrpcRequest(ctx context.Context) []string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return []string{}
	}

	header := md.Get("accept-language")
	if len(header) == 0 {
		return []string{}
	}

	return splitAccept(header[0])
}

func splitAccept(header string) []string {
	var langs []string
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			langs = append(langs, part)
		}
	}
	return langs
}
