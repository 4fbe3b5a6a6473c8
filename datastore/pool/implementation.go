package pool

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pitabwire/util"
	"gorm.io/gorm"
)

const pgDuplicateTable = "42P07"

// ErrNoWritableDatabase is returned when an operation needs the primary and none is configured.
var ErrNoWritableDatabase = errors.New("no writable database configured")

type pool struct {
	readIdx  atomic.Uint64
	writeIdx atomic.Uint64

	mu       sync.RWMutex
	readDBs  []*gorm.DB
	writeDBs []*gorm.DB

	shouldDoMigrations bool
}

// NewPool returns an empty pool, canMigrate is reported by CanMigrate.
func NewPool(canMigrate bool) Pool {
	return &pool{shouldDoMigrations: canMigrate}
}

// AddConnection opens every connection of opts and adds it to the pool.
func (s *pool) AddConnection(ctx context.Context, opts ...Option) error {
	poolOpts := defaultOptions()
	for _, opt := range opts {
		opt(poolOpts)
	}

	if len(poolOpts.Connections) == 0 {
		return errors.New("add connection: no connection configured")
	}

	for _, conn := range poolOpts.Connections {
		db, err := createConnection(ctx, conn.DSN, poolOpts)
		if err != nil {
			return err
		}

		s.mu.Lock()
		if conn.ReadOnly {
			s.readDBs = append(s.readDBs, db)
		} else {
			s.writeDBs = append(s.writeDBs, db)
		}
		s.mu.Unlock()
	}

	return nil
}

func (s *pool) Close(ctx context.Context) {
	s.mu.Lock()
	dbs := append(append([]*gorm.DB(nil), s.readDBs...), s.writeDBs...)
	s.readDBs, s.writeDBs = nil, nil
	s.mu.Unlock()

	for _, db := range dbs {
		sqlDB, err := db.DB()
		if err != nil {
			continue
		}
		if err = sqlDB.Close(); err != nil {
			util.Log(ctx).WithError(err).Warn("could not close database connection")
		}
	}
}

// DB round-robins over replicas for reads when any exist, else over the primaries.
func (s *pool) DB(ctx context.Context, readOnly bool) *gorm.DB {
	var selected *gorm.DB

	s.mu.RLock()
	if readOnly {
		selected = selectOne(s.readDBs, &s.readIdx)
	}
	if selected == nil {
		selected = selectOne(s.writeDBs, &s.writeIdx)
	}
	s.mu.RUnlock()

	if selected == nil {
		return nil
	}

	return selected.Session(&gorm.Session{NewDB: true}).WithContext(ctx)
}

func selectOne(dbs []*gorm.DB, idx *atomic.Uint64) *gorm.DB {
	if len(dbs) == 0 {
		return nil
	}
	pos := idx.Add(1)
	return dbs[int((pos-1)%uint64(len(dbs)))] //nolint:gosec // the modulo result fits in int
}

func (s *pool) CanMigrate() bool {
	return s.shouldDoMigrations
}

// Migrate auto migrates models on the primary. Tables created by a concurrent
// migration are logged and tolerated.
func (s *pool) Migrate(ctx context.Context, models ...any) error {
	db := s.DB(ctx, false)
	if db == nil {
		return ErrNoWritableDatabase
	}

	if len(models) == 0 {
		return nil
	}

	if err := db.Migrator().AutoMigrate(models...); err != nil {
		if !isRelationAlreadyExistsErr(err) {
			util.Log(ctx).WithError(err).Error("could not auto migrate models")
			return err
		}
		util.Log(ctx).WithError(err).Warn("tables already created concurrently")
	}

	return nil
}

func isRelationAlreadyExistsErr(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgDuplicateTable
	}

	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists")
}
