package testaddon

import (
	"context"

	"github.com/pitabwire/util"

	"github.com/pitabwire/translationtools/datastore"
	"github.com/pitabwire/translationtools/datastore/pool"
	"github.com/pitabwire/translationtools/languages"
	"github.com/pitabwire/translationtools/toolstests"
	"github.com/pitabwire/translationtools/toolstests/definition"
	"github.com/pitabwire/translationtools/toolstests/deps/testpostgres"
	"github.com/pitabwire/translationtools/urls"
)

// DatabaseSuite gives every test a fresh database with the add-on models
// migrated, their repositories and a resolver with the add-on routes.
type DatabaseSuite struct {
	toolstests.BaseTestSuite

	Pool     pool.Pool
	Repos    *Repositories
	Registry *languages.Registry
	Resolver *urls.Resolver

	// RepositoryOptions are applied to the translatable repositories of each test.
	RepositoryOptions []datastore.TranslatableOption

	cleanup func(context.Context)
}

func (s *DatabaseSuite) SetupSuite() {
	s.InitResourceFunc = func(_ context.Context) []definition.TestResource {
		return []definition.TestResource{testpostgres.New()}
	}
	s.BaseTestSuite.SetupSuite()
}

func (s *DatabaseSuite) SetupTest() {
	ctx := s.T().Context()

	resources := s.Resources()
	s.Require().NotEmpty(resources)

	dsn, cleanup, err := resources[0].GetRandomisedDS(ctx, util.IDString())
	s.Require().NoError(err)
	s.cleanup = cleanup

	s.Pool, err = OpenPool(ctx, dsn)
	s.Require().NoError(err)

	s.Registry = Registry()

	s.Repos, err = NewRepositories(s.Pool, s.RepositoryOptions...)
	s.Require().NoError(err)

	s.Resolver = urls.NewResolver(s.Registry)
	s.Require().NoError(RegisterRoutes(s.Resolver, s.Repos.Simple, s.Repos.Untranslated))
}

func (s *DatabaseSuite) TearDownTest() {
	ctx := context.Background()
	if s.Pool != nil {
		s.Pool.Close(ctx)
	}
	if s.cleanup != nil {
		s.cleanup(ctx)
	}
}

// Ctx carries the registry, the resolver and, when not empty, the active language.
func (s *DatabaseSuite) Ctx(language string) context.Context {
	ctx := languages.RegistryToContext(s.T().Context(), s.Registry)
	ctx = urls.ToContext(ctx, s.Resolver)
	if language != "" {
		ctx = languages.ToContext(ctx, language)
	}
	return ctx
}
