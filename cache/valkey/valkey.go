package valkey

import (
	"context"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/pitabwire/translationtools/cache"
	"github.com/pitabwire/translationtools/data"
)

// Cache is a Valkey backed cache.RawCache.
type Cache struct {
	client valkey.Client
	maxAge time.Duration
}

const connectionTimeout = 5 * time.Second

// New connects to the valkey:// or redis:// DSN of the options and verifies the connection.
func New(ctx context.Context, opts ...cache.Option) (*Cache, error) {
	cacheOpts := cache.NewOptions(opts...)

	dsn := cacheOpts.DSN.String()
	if strings.HasPrefix(dsn, data.ValkeyScheme) {
		dsn = data.RedisScheme + strings.TrimPrefix(dsn, data.ValkeyScheme)
	}

	valkeyOpts, err := valkey.ParseURL(dsn)
	if err != nil {
		return nil, err
	}

	client, err := valkey.NewClient(valkeyOpts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if pingErr := client.Do(pingCtx, client.B().Ping().Build()).Error(); pingErr != nil {
		client.Close()
		return nil, pingErr
	}

	return &Cache{
		client: client,
		maxAge: cacheOpts.MaxAge,
	}, nil
}

func (vc *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	resp := vc.client.Do(ctx, vc.client.B().Get().Key(key).Build())
	if err := resp.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	val, err := resp.AsBytes()
	if err != nil {
		return nil, false, err
	}

	return val, true, nil
}

// Set stores value, a ttl <= 0 uses the configured max age. Valkey expiry has second granularity.
func (vc *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = vc.maxAge
	}

	if ttl <= 0 {
		return vc.client.Do(ctx, vc.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Build()).Error()
	}

	seconds := max(int64(ttl.Seconds()), 1)
	cmd := vc.client.B().Set().Key(key).Value(valkey.BinaryString(value)).ExSeconds(seconds).Build()
	return vc.client.Do(ctx, cmd).Error()
}

func (vc *Cache) Delete(ctx context.Context, key string) error {
	return vc.client.Do(ctx, vc.client.B().Del().Key(key).Build()).Error()
}

func (vc *Cache) Exists(ctx context.Context, key string) (bool, error) {
	count, err := vc.client.Do(ctx, vc.client.B().Exists().Key(key).Build()).AsInt64()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (vc *Cache) Flush(ctx context.Context) error {
	return vc.client.Do(ctx, vc.client.B().Flushdb().Build()).Error()
}

func (vc *Cache) Close() error {
	vc.client.Close()
	return nil
}
