// Package cacheopen selects a cache.RawCache implementation from a DSN.
package cacheopen

import (
	"context"
	"fmt"

	"github.com/pitabwire/translationtools/cache"
	cacheredis "github.com/pitabwire/translationtools/cache/redis"
	cachevalkey "github.com/pitabwire/translationtools/cache/valkey"
	"github.com/pitabwire/translationtools/data"
)

// NewFromURI opens the cache named by dsn: mem:// or empty for in process,
// redis:// for go-redis, valkey:// for valkey-go.
func NewFromURI(ctx context.Context, dsn data.DSN, opts ...cache.Option) (cache.RawCache, error) {
	opts = append(opts, cache.WithDSN(dsn))

	switch {
	case dsn.IsMem():
		return cache.NewInMemoryCache(opts...), nil
	case dsn.IsRedis():
		return cacheredis.New(ctx, opts...)
	case dsn.IsValkey():
		return cachevalkey.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported cache dsn scheme: %q", dsn.String())
	}
}
