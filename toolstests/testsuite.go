// Package toolstests starts containerised dependencies for integration suites.
package toolstests

import (
	"context"

	"github.com/pitabwire/util"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"

	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/toolstests/definition"
)

// BaseTestSuite starts the resources returned by InitResourceFunc on a shared
// network, skipping the suite when no container provider is available.
type BaseTestSuite struct {
	suite.Suite
	Network   *testcontainers.DockerNetwork
	resources []definition.TestResource

	InitResourceFunc func(ctx context.Context) []definition.TestResource
}

// SetupSuite initialises the test environment for the test suite.
func (s *BaseTestSuite) SetupSuite() {
	t := s.T()
	ctx := t.Context()

	s.Require().NotNil(s.InitResourceFunc, "InitResourceFunc is required")

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ntwk, err := network.New(ctx)
	s.Require().NoError(err, "could not create network")
	s.Network = ntwk

	log := util.Log(ctx)
	s.resources = s.InitResourceFunc(ctx)
	for _, dep := range s.resources {
		log.WithField("image", dep.Name()).Info("Setting up container...")
		s.Require().NoError(dep.Setup(ctx, ntwk), "could not setup %s", dep.Name())
	}
}

func (s *BaseTestSuite) Resources() []definition.TestResource {
	return s.resources
}

// DSN returns the first resource connection string accepted by match.
func (s *BaseTestSuite) DSN(ctx context.Context, match func(data.DSN) bool) data.DSN {
	for _, dep := range s.resources {
		if ds := dep.GetDS(ctx); match(ds) {
			return ds
		}
	}
	return ""
}

// TearDownSuite cleans up resources after all tests are completed.
func (s *BaseTestSuite) TearDownSuite() {
	ctx := context.Background()

	for _, dep := range s.resources {
		dep.Cleanup(ctx)
	}

	if s.Network != nil {
		if err := s.Network.Remove(ctx); err != nil {
			util.Log(ctx).WithError(err).Warn("could not remove network")
		}
	}
}
