package pool

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pitabwire/translationtools/data"
)

const defaultPostgresPort = "5432"

func createConnection(ctx context.Context, dsn data.DSN, poolOpts *Options) (*gorm.DB, error) {
	keywordDSN, err := cleanPostgresDSN(dsn.String())
	if err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(keywordDSN)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	cfg.ConnConfig.Tracer = otelpgx.NewTracer()
	if poolOpts.MaxOpen > 0 {
		cfg.MaxConns = int32(poolOpts.MaxOpen) //nolint:gosec // pool sizes are small
	}
	if poolOpts.MaxLifetime > 0 {
		cfg.MaxConnLifetime = poolOpts.MaxLifetime
	}

	pgxPool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err = otelpgx.RecordStats(pgxPool); err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("unable to record database stats: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pgxPool)
	if poolOpts.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(poolOpts.MaxIdle)
	}

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{
			Conn:                 sqlDB,
			PreferSimpleProtocol: poolOpts.PreferSimpleProtocol,
		}),
		&gorm.Config{
			Logger:                 datastoreLogger(ctx, poolOpts.TraceConfig),
			SkipDefaultTransaction: poolOpts.SkipDefaultTransaction,
			TranslateError:         true,
		},
	)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return gormDB, nil
}

// cleanPostgresDSN returns keyword/value DSNs untouched and converts postgres:// URLs into one.
func cleanPostgresDSN(pgString string) (string, error) {
	trimmed := strings.TrimSpace(pgString)
	lower := strings.ToLower(trimmed)
	isURL := strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
	if !isURL && strings.Contains(trimmed, "=") {
		return trimmed, nil
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", err
	}

	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("invalid scheme: %q", u.Scheme)
	}

	var user, password string
	if u.User != nil {
		user = u.User.Username()
		password, _ = u.User.Password()
	}

	port := u.Port()
	if port == "" {
		port = defaultPostgresPort
	}

	parts := []string{
		"host=" + u.Hostname(),
		"port=" + port,
		"user=" + user,
		"password=" + password,
		"dbname=" + strings.TrimPrefix(u.Path, "/"),
	}
	for key, values := range u.Query() {
		for _, v := range values {
			parts = append(parts, key+"="+v)
		}
	}

	return strings.Join(parts, " "), nil
}
