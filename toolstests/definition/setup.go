package definition

import (
	"context"
	"time"

	"github.com/pitabwire/util"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"

	"github.com/pitabwire/translationtools/data"
)

const DefaultLogProductionTimeout = 10 * time.Second

// TestResource is a containerised dependency started for a test suite.
type TestResource interface {
	Name() string
	Setup(ctx context.Context, network *testcontainers.DockerNetwork) error
	Cleanup(ctx context.Context)
	GetDS(ctx context.Context) data.DSN
	GetRandomisedDS(ctx context.Context, randomisedPrefix string) (data.DSN, func(context.Context), error)
}

type ContainerOpts struct {
	ImageName      string
	UserName       string
	Password       string
	NetworkAliases []string

	EnableLogging  bool
	LoggingTimeout time.Duration
}

// ContainerOption is a type that can be used to configure the container creation request.
type ContainerOption func(req *ContainerOpts)

func (o *ContainerOpts) Setup(opts ...ContainerOption) {
	o.LoggingTimeout = DefaultLogProductionTimeout
	for _, opt := range opts {
		opt(o)
	}
}

// Customizers attaches the container to ntwk under the configured aliases.
func (o *ContainerOpts) Customizers(
	ctx context.Context,
	ntwk *testcontainers.DockerNetwork,
	customizers ...testcontainers.ContainerCustomizer,
) []testcontainers.ContainerCustomizer {
	if o.EnableLogging {
		customizers = append(customizers, testcontainers.WithLogConsumerConfig(LogConfig(ctx, o.LoggingTimeout)))
	}

	if ntwk != nil {
		customizers = append(customizers,
			network.WithNetwork(o.NetworkAliases, ntwk))
	}

	return customizers
}

func WithImageName(imageName string) ContainerOption {
	return func(original *ContainerOpts) {
		original.ImageName = imageName
	}
}

func WithUserName(userName string) ContainerOption {
	return func(original *ContainerOpts) {
		original.UserName = userName
	}
}

func WithPassword(password string) ContainerOption {
	return func(original *ContainerOpts) {
		original.Password = password
	}
}

// WithEnableLogging forwards container output to the test logger.
func WithEnableLogging(enable bool) ContainerOption {
	return func(original *ContainerOpts) {
		original.EnableLogging = enable
	}
}

type StdoutLogConsumer struct {
	log *util.LogEntry
}

func LogConfig(ctx context.Context, timeout time.Duration) *testcontainers.LogConsumerConfig {
	return &testcontainers.LogConsumerConfig{
		Opts: []testcontainers.LogProductionOption{testcontainers.WithLogProductionTimeout(timeout)},
		Consumers: []testcontainers.LogConsumer{&StdoutLogConsumer{
			log: util.Log(ctx),
		}},
	}
}

// Accept prints the log to stdout.
func (s *StdoutLogConsumer) Accept(l testcontainers.Log) {
	if l.LogType == testcontainers.StderrLog {
		s.log.Error(string(l.Content))
		return
	}
	s.log.Info(string(l.Content))
}
