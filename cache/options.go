package cache

import (
	"time"

	"github.com/pitabwire/translationtools/data"
)

// Option configures a cache connection.
type Option func(*Options)

// Options holds cache connection configuration.
type Options struct {
	DSN    data.DSN
	Name   string
	MaxAge time.Duration
}

// NewOptions applies opts over the defaults, a max age of one hour.
func NewOptions(opts ...Option) *Options {
	o := &Options{MaxAge: time.Hour}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func WithDSN(dsn data.DSN) Option {
	return func(o *Options) {
		o.DSN = dsn
	}
}

func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithMaxAge sets the ttl applied when a value is stored without one.
func WithMaxAge(maxAge time.Duration) Option {
	return func(o *Options) {
		o.MaxAge = maxAge
	}
}
