package pool

import (
	"context"

	"gorm.io/gorm"
)

// Pool hands out gorm sessions over the configured primary and replica connections.
type Pool interface {
	// DB returns a session bound to ctx, readOnly prefers a replica. Nil when no connection exists.
	DB(ctx context.Context, readOnly bool) *gorm.DB

	AddConnection(ctx context.Context, opts ...Option) error

	CanMigrate() bool
	// Migrate creates or alters the tables of models.
	Migrate(ctx context.Context, models ...any) error

	Close(ctx context.Context)
}
