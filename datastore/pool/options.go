package pool

import (
	"time"

	"github.com/pitabwire/translationtools/config"
	"github.com/pitabwire/translationtools/data"
)

// Connection is one database to add to the pool.
type Connection struct {
	DSN      data.DSN
	ReadOnly bool
}

// Option configures database connection settings.
type Option func(*Options)

// Options holds Datastore connection configuration.
type Options struct {
	Connections []Connection

	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration

	PreferSimpleProtocol   bool
	SkipDefaultTransaction bool

	TraceConfig config.ConfigurationDatabaseTracing
}

func defaultOptions() *Options {
	return &Options{
		PreferSimpleProtocol:   true,
		SkipDefaultTransaction: true,
	}
}

// WithConnection adds a database, comma separated DSNs add several.
func WithConnection(dsn data.DSN, readOnly bool) Option {
	return func(o *Options) {
		for _, single := range dsn.ToArray() {
			o.Connections = append(o.Connections, Connection{DSN: single, ReadOnly: readOnly})
		}
	}
}

// WithMaxOpen caps the connections a single database pool opens.
func WithMaxOpen(maxOpen int) Option {
	return func(o *Options) {
		o.MaxOpen = maxOpen
	}
}

func WithMaxIdle(maxIdle int) Option {
	return func(o *Options) {
		o.MaxIdle = maxIdle
	}
}

func WithMaxLifetime(maxLifetime time.Duration) Option {
	return func(o *Options) {
		o.MaxLifetime = maxLifetime
	}
}

func WithPreferSimpleProtocol(preferSimpleProtocol bool) Option {
	return func(o *Options) {
		o.PreferSimpleProtocol = preferSimpleProtocol
	}
}

func WithSkipDefaultTransaction(skipDefaultTransaction bool) Option {
	return func(o *Options) {
		o.SkipDefaultTransaction = skipDefaultTransaction
	}
}

// WithTraceConfig sets query logging and the slow query threshold.
func WithTraceConfig(traceConfig config.ConfigurationDatabaseTracing) Option {
	return func(o *Options) {
		o.TraceConfig = traceConfig
	}
}

// WithConfig applies connection and tracing settings from cfg.
func WithConfig(cfg interface {
	config.ConfigurationDatabase
	config.ConfigurationDatabaseTracing
}) Option {
	return func(o *Options) {
		for _, dsn := range cfg.GetDatabasePrimaryHostURL() {
			WithConnection(data.DSN(dsn), false)(o)
		}
		for _, dsn := range cfg.GetDatabaseReplicaHostURL() {
			WithConnection(data.DSN(dsn), true)(o)
		}
		o.MaxOpen = cfg.GetMaxOpenConnections()
		o.MaxIdle = cfg.GetMaxIdleConnections()
		o.MaxLifetime = cfg.GetMaxConnectionLifeTimeInSeconds()
		o.PreferSimpleProtocol = cfg.PreferSimpleProtocol()
		o.SkipDefaultTransaction = cfg.SkipDefaultTransaction()
		o.TraceConfig = cfg
	}
}
