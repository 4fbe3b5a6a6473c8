package localization_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc/metadata"

	"github.com/pitabwire/translationtools/languages"
	"github.com/pitabwire/translationtools/localization"
)

type LocalizationTestSuite struct {
	suite.Suite
	bundled localization.Manager
}

func TestLocalizationSuite(t *testing.T) {
	suite.Run(t, &LocalizationTestSuite{})
}

func (s *LocalizationTestSuite) SetupSuite() {
	lm, err := localization.NewManager("")
	s.Require().NoError(err)
	s.bundled = lm
}

func (s *LocalizationTestSuite) TestFolderTranslations() {
	lm, err := localization.NewManager("test_data", "en", "sw")
	s.Require().NoError(err)

	ctx := context.Background()
	vars := map[string]any{"Name": "Air"}

	s.Equal("Air has nothing", lm.TranslateWithMap(ctx, "en", "Example", vars))
	s.Equal("Air haina chochote", lm.TranslateWithMap(ctx, "sw", "Example", vars))
	s.Equal("Air haina chochote", lm.TranslateWithMap(ctx, []string{"sw", "en"}, "Example", vars))
	s.Equal("<no value> has nothing", lm.Translate(ctx, "en", "Example"))

	_, err = localization.NewManager("test_data", "xx")
	s.Error(err)
}

func (s *LocalizationTestSuite) TestBundledCatalogue() {
	ctx := context.Background()
	vars := map[string]any{"Model": "simple", "Field": "name"}

	testCases := []struct {
		language string
		expected string
	}{
		{language: "en", expected: "simple without name"},
		{language: "de", expected: "simple ohne name"},
		{language: "fr", expected: "simple sans name"},
		{language: "it", expected: "simple without name"},
	}

	for _, tc := range testCases {
		s.Run(tc.language, func() {
			s.Equal(tc.expected, s.bundled.TranslateWithMap(ctx, tc.language, localization.MessageSlugDefault, vars))
		})
	}

	s.Equal("Übersetzungen", s.bundled.Translate(ctx, "de", localization.MessageTranslationsColumn))
	s.Equal("unknown-id", s.bundled.Translate(ctx, "en", "unknown-id"))
	s.Equal(localization.MessageSlugDefault, s.bundled.Translate(ctx, 42, localization.MessageSlugDefault))
}

func (s *LocalizationTestSuite) TestLanguageSources() {
	ctx := languages.ToContext(context.Background(), "fr")
	s.Equal("Traductions", s.bundled.Translate(ctx, ctx, localization.MessageTranslationsColumn))
	s.Equal("Traductions", s.bundled.Translate(ctx, nil, localization.MessageTranslationsColumn))

	req := httptest.NewRequest(http.MethodGet, "/?lang=de", nil)
	req.Header.Set("Accept-Language", "fr, en;q=0.8")
	s.Equal([]string{"de", "fr", "en;q=0.8"}, localization.ExtractLanguageFromHTTPRequest(req))
	s.Equal("Übersetzungen", s.bundled.Translate(ctx, req, localization.MessageTranslationsColumn))

	grpcCtx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("accept-language", "de"))
	s.Equal([]string{"de"}, localization.ExtractLanguageFromGrpcRequest(grpcCtx))
	s.Equal([]string{"de"}, localization.ExtractLanguageFromContext(grpcCtx))
	s.Empty(localization.ExtractLanguageFromGrpcRequest(context.Background()))
}
