package testvalkey

import (
	"context"
	"fmt"

	"github.com/pitabwire/util"
	"github.com/testcontainers/testcontainers-go"
	tcValKey "github.com/testcontainers/testcontainers-go/modules/valkey"

	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/toolstests/definition"
)

const ValKeyImage = "docker.io/valkey/valkey:latest"

type valKeyDependancy struct {
	opts      definition.ContainerOpts
	conn      data.DSN
	container *tcValKey.ValkeyContainer
}

func New(containerOpts ...definition.ContainerOption) definition.TestResource {
	opts := definition.ContainerOpts{
		ImageName:      ValKeyImage,
		NetworkAliases: []string{"valkey", "cache-valkey"},
	}
	opts.Setup(containerOpts...)

	return &valKeyDependancy{opts: opts}
}

func (d *valKeyDependancy) Name() string {
	return d.opts.ImageName
}

func (d *valKeyDependancy) Setup(ctx context.Context, ntwk *testcontainers.DockerNetwork) error {
	valkeyContainer, err := tcValKey.Run(ctx, d.opts.ImageName, d.opts.Customizers(ctx, ntwk)...)
	if err != nil {
		return fmt.Errorf("failed to start valkeyContainer: %w", err)
	}
	d.container = valkeyContainer

	conn, err := valkeyContainer.ConnectionString(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection string for valkeyContainer: %w", err)
	}
	d.conn = data.DSN(conn)

	return nil
}

// GetDS returns the redis:// connection string of the container.
func (d *valKeyDependancy) GetDS(_ context.Context) data.DSN {
	return d.conn
}

func (d *valKeyDependancy) GetRandomisedDS(_ context.Context, _ string) (data.DSN, func(context.Context), error) {
	return d.conn, func(_ context.Context) {}, nil
}

func (d *valKeyDependancy) Cleanup(ctx context.Context) {
	if d.container == nil {
		return
	}
	if err := d.container.Terminate(ctx); err != nil {
		util.Log(ctx).WithField("image", d.opts.ImageName).WithError(err).Info("could not terminate container")
	}
}
