package translationtools_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pitabwire/util"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	sdkmetrics "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/pitabwire/translationtools"
	"github.com/pitabwire/translationtools/config"
	"github.com/pitabwire/translationtools/internal/testaddon"
	"github.com/pitabwire/translationtools/languages"
	"github.com/pitabwire/translationtools/telemetry"
	"github.com/pitabwire/translationtools/toolstests"
	"github.com/pitabwire/translationtools/toolstests/definition"
	"github.com/pitabwire/translationtools/toolstests/deps/testpostgres"
	"github.com/pitabwire/translationtools/urls"
)

const settingsTOML = `
default = "fr"
default_fallbacks = ["fr"]

[[languages]]
code = "fr"
name = "French"

[[languages]]
code = "en"
name = "English"

[[sites.1]]
code = "en"
name = "English"
fallbacks = ["fr"]
`

type ToolkitSuite struct {
	suite.Suite
}

func TestToolkitSuite(t *testing.T) {
	suite.Run(t, new(ToolkitSuite))
}

func (s *ToolkitSuite) newToolkit(opts ...translationtools.Option) (context.Context, *translationtools.Toolkit) {
	ctx, tk, err := translationtools.NewToolkit(s.T().Context(), "tools", opts...)
	s.Require().NoError(err)
	s.T().Cleanup(func() { tk.Stop(context.Background()) })
	return ctx, tk
}

func (s *ToolkitSuite) TestDefaults() {
	cfg := &config.ConfigurationDefault{LanguageCode: "de", TranslationCacheMaxAge: "2m", SiteID: 1}
	ctx, tk := s.newToolkit(translationtools.WithConfig(cfg))

	s.Equal("tools", tk.Name())
	s.Same(cfg, tk.Config())
	s.Equal("de", tk.Languages().Default())
	s.Equal([]string{"de"}, tk.Languages().Codes())
	s.NotNil(tk.Localization())
	s.NotNil(tk.Cache())
	s.Equal(2*time.Minute, tk.CacheMaxAge())
	s.Nil(tk.Pool())
	s.Same(tk.Languages(), tk.Resolver().Registry())

	s.Same(tk, translationtools.FromContext(ctx))
	s.Same(tk.Languages(), languages.RegistryFromContext(ctx))
	s.Same(tk.Resolver(), urls.FromContext(ctx))
	s.Same(cfg, config.FromContext[*config.ConfigurationDefault](ctx))
	s.Len(tk.RepositoryOptions(), 2)

	s.ErrorIs(tk.Migrate(ctx, testaddon.Models()...), translationtools.ErrNoDatastore)

	_, err := translationtools.NewRepository(tk, func() *testaddon.Simple { return &testaddon.Simple{} })
	s.ErrorIs(err, translationtools.ErrNoDatastore)
}

func (s *ToolkitSuite) TestForeignConfig() {
	_, tk := s.newToolkit(translationtools.WithConfig(struct{}{}))

	s.Equal("en", tk.Languages().Default())
	s.NotNil(tk.Cache())
	s.Equal(config.DefaultCacheMaxAge, tk.CacheMaxAge())
	s.NotNil(tk.Log(s.T().Context()))
}

func (s *ToolkitSuite) TestLanguageSettingsFile() {
	path := filepath.Join(s.T().TempDir(), "languages.toml")
	s.Require().NoError(os.WriteFile(path, []byte(settingsTOML), 0o600))

	_, tk := s.newToolkit(
		translationtools.WithConfig(&config.ConfigurationDefault{}),
		translationtools.WithLanguageSettingsFile(path),
	)

	s.Equal("fr", tk.Languages().Default())
	s.Equal([]string{"fr", "en"}, tk.Languages().Codes())
	s.Equal([]string{"fr"}, tk.Languages().FallbackLanguages("en", 1))
}

func (s *ToolkitSuite) TestInitialisationErrors() {
	testCases := []struct {
		name string
		opt  translationtools.Option
	}{
		{
			name: "missing settings file",
			opt:  translationtools.WithLanguageSettingsFile(filepath.Join(s.T().TempDir(), "missing.toml")),
		},
		{
			name: "unsupported cache scheme",
			opt:  translationtools.WithCache("ftp://cache.local"),
		},
		{
			name: "missing translations folder",
			opt:  translationtools.WithLocalization(filepath.Join(s.T().TempDir(), "messages")),
		},
		{
			name: "datastore without database settings",
			opt:  translationtools.WithDatastore(),
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, tk, err := translationtools.NewToolkit(s.T().Context(), "tools",
				translationtools.WithConfig(struct{}{}), tc.opt)
			s.Require().Error(err)
			s.Nil(tk)
		})
	}
}

func (s *ToolkitSuite) TestWithResolver() {
	rs := urls.NewResolver(testaddon.Registry())
	ctx, tk := s.newToolkit(
		translationtools.WithConfig(&config.ConfigurationDefault{}),
		translationtools.WithResolver(rs),
	)

	s.Same(rs, tk.Resolver())
	s.Same(rs.Registry(), tk.Languages())
	s.Same(rs, urls.FromContext(ctx))
}

func (s *ToolkitSuite) TestLocalizedSlugger() {
	ctx, tk := s.newToolkit(
		translationtools.WithConfig(&config.ConfigurationDefault{}),
		translationtools.WithLanguages(testaddon.Registry()),
	)

	slugger := tk.Slugger()
	simple := &testaddon.Simple{}
	s.Equal("simple-ohne-name", slugger.DefaultSlug(ctx, simple, simple.In(ctx, "de")))
	s.Equal("simple-without-name", slugger.DefaultSlug(ctx, simple, simple.In(ctx, "en")))
}

func (s *ToolkitSuite) TestTelemetry() {
	_, tk := s.newToolkit(
		translationtools.WithConfig(&config.ConfigurationDefault{OpenTelemetryTraceRatio: 1}),
		translationtools.WithTelemetry(
			telemetry.WithTraceExporter(tracetest.NewInMemoryExporter()),
			telemetry.WithMetricsReader(sdkmetrics.NewManualReader()),
		),
	)

	s.Require().NotNil(tk.Telemetry())
	s.False(tk.Telemetry().Disabled())
	s.NotNil(tk.Telemetry().LogHandler())

	_, disabled := s.newToolkit(
		translationtools.WithConfig(&config.ConfigurationDefault{OpenTelemetryDisable: true}),
		translationtools.WithTelemetry(),
	)
	s.True(disabled.Telemetry().Disabled())
	s.Nil(disabled.Telemetry().LogHandler())
}

func (s *ToolkitSuite) TestStopRunsCleanupOnce() {
	_, tk, err := translationtools.NewToolkit(s.T().Context(), "tools",
		translationtools.WithConfig(&config.ConfigurationDefault{}),
		translationtools.WithInMemoryCache(time.Minute),
	)
	s.Require().NoError(err)

	var order []int
	tk.AddCleanupMethod(func(context.Context) { order = append(order, 1) })
	tk.AddCleanupMethod(func(context.Context) { order = append(order, 2) })

	tk.Stop(s.T().Context())
	tk.Stop(s.T().Context())

	s.Equal([]int{2, 1}, order)
}

func TestFromContextWithoutToolkit(t *testing.T) {
	t.Parallel()

	require.Nil(t, translationtools.FromContext(t.Context()))
}

type ToolkitDatabaseSuite struct {
	toolstests.BaseTestSuite
}

func TestToolkitDatabaseSuite(t *testing.T) {
	suite.Run(t, &ToolkitDatabaseSuite{
		BaseTestSuite: toolstests.BaseTestSuite{
			InitResourceFunc: func(_ context.Context) []definition.TestResource {
				return []definition.TestResource{testpostgres.New()}
			},
		},
	})
}

func (s *ToolkitDatabaseSuite) TestRepository() {
	ctx := s.T().Context()

	dsn, cleanup, err := s.Resources()[0].GetRandomisedDS(ctx, util.IDString())
	s.Require().NoError(err)
	defer cleanup(context.Background())

	ctx, tk, err := translationtools.NewToolkit(ctx, "tools",
		translationtools.WithConfig(&config.ConfigurationDefault{DatabaseMigrate: true}),
		translationtools.WithLanguages(testaddon.Registry()),
		translationtools.WithDatastoreConnection(dsn.String(), false),
		translationtools.WithInMemoryCache(time.Minute),
	)
	s.Require().NoError(err)
	defer tk.Stop(context.Background())

	s.Require().NotNil(tk.Pool())
	s.Require().NoError(tk.Migrate(ctx, testaddon.Models()...))

	repo, err := translationtools.NewRepository(tk, func() *testaddon.Simple { return &testaddon.Simple{} })
	s.Require().NoError(err)

	simple := &testaddon.Simple{}
	simple.In(ctx, "en").Name = "Hello World"
	simple.In(ctx, "fr").Name = "Bonjour"
	s.Require().NoError(repo.Save(languages.ToContext(ctx, "en"), simple))

	loaded, err := repo.GetByID(ctx, simple.GetID())
	s.Require().NoError(err)
	s.Equal("hello-world", loaded.In(ctx, "en").Slug)
	s.Equal("bonjour", loaded.In(ctx, "fr").Slug)

	found, err := repo.ActiveTranslation(languages.ToContext(ctx, "de"), "de", map[string]any{"slug": "hello-world"})
	s.Require().NoError(err)
	s.Equal(simple.GetID(), found.GetID())
}
