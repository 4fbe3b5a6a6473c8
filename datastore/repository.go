package datastore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/datastore/pool"
)

// ErrOptimisticLock is returned when an update finds the row changed since it was read.
var ErrOptimisticLock = errors.New("optimistic lock failed")

// ErrNoDatabase is returned when the pool has no connection to serve a query.
var ErrNoDatabase = errors.New("no database connection available")

// BaseRepository provides generic CRUD operations for any model type.
// T is the model pointer type, e.g. *Simple.
type BaseRepository[T any] interface {
	Pool() pool.Pool
	GetByID(ctx context.Context, id string) (T, error)
	GetFirstBy(ctx context.Context, properties map[string]any) (T, error)
	GetAllBy(ctx context.Context, properties map[string]any, offset, limit int) ([]T, error)
	Count(ctx context.Context) (int64, error)
	CountBy(ctx context.Context, properties map[string]any) (int64, error)
	Save(ctx context.Context, entity T) error
	Delete(ctx context.Context, id string) error
}

type baseRepository[T data.BaseModelI] struct {
	dbPool       pool.Pool
	modelFactory func() T
	tableName    string
	// allowedColumns whitelists the column names accepted in property filters.
	allowedColumns map[string]bool
}

// NewBaseRepository creates a repository for the model returned by modelFactory.
func NewBaseRepository[T data.BaseModelI](dbPool pool.Pool, modelFactory func() T) (BaseRepository[T], error) {
	return newBaseRepository(dbPool, modelFactory)
}

func newBaseRepository[T data.BaseModelI](dbPool pool.Pool, modelFactory func() T) (*baseRepository[T], error) {
	model := modelFactory()

	s, err := data.Schema(model)
	if err != nil {
		return nil, err
	}

	repo := &baseRepository[T]{
		dbPool:         dbPool,
		modelFactory:   modelFactory,
		tableName:      s.Table,
		allowedColumns: columnWhitelist(model),
	}

	return repo, nil
}

func columnWhitelist(model any) map[string]bool {
	allowed := map[string]bool{}

	s, err := data.Schema(model)
	if err != nil {
		return allowed
	}

	for _, field := range s.Fields {
		if field.DBName != "" {
			allowed[field.DBName] = true
		}
	}
	return allowed
}

func (br *baseRepository[T]) Pool() pool.Pool {
	return br.dbPool
}

func (br *baseRepository[T]) db(ctx context.Context, readOnly bool) (*gorm.DB, error) {
	db := br.dbPool.DB(ctx, readOnly)
	if db == nil {
		return nil, ErrNoDatabase
	}
	return db, nil
}

func validateColumn(allowed map[string]bool, column string) error {
	if !allowed[column] {
		return fmt.Errorf("invalid column name: %s", column)
	}
	return nil
}

// where applies equality filters on whitelisted columns.
func where(query *gorm.DB, allowed map[string]bool, prefix string, properties map[string]any) (*gorm.DB, error) {
	for column, value := range properties {
		if err := validateColumn(allowed, column); err != nil {
			return nil, err
		}
		query = query.Where(prefix+column+" = ?", value)
	}
	return query, nil
}

func (br *baseRepository[T]) GetByID(ctx context.Context, id string) (T, error) {
	entity := br.modelFactory()

	db, err := br.db(ctx, true)
	if err != nil {
		return entity, err
	}

	err = db.Where("id = ?", id).First(entity).Error
	return entity, err
}

// GetFirstBy returns the oldest entity matching properties.
func (br *baseRepository[T]) GetFirstBy(ctx context.Context, properties map[string]any) (T, error) {
	entity := br.modelFactory()

	db, err := br.db(ctx, true)
	if err != nil {
		return entity, err
	}

	query, err := where(db, br.allowedColumns, "", properties)
	if err != nil {
		return entity, err
	}

	err = query.Order("created_at ASC").First(entity).Error
	return entity, err
}

// GetAllBy returns entities matching properties, limit <= 0 means no limit.
func (br *baseRepository[T]) GetAllBy(ctx context.Context, properties map[string]any, offset, limit int) ([]T, error) {
	db, err := br.db(ctx, true)
	if err != nil {
		return nil, err
	}

	query, err := where(db, br.allowedColumns, "", properties)
	if err != nil {
		return nil, err
	}

	query = query.Order("created_at ASC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entities []T
	err = query.Find(&entities).Error
	return entities, err
}

func (br *baseRepository[T]) Count(ctx context.Context) (int64, error) {
	return br.CountBy(ctx, nil)
}

func (br *baseRepository[T]) CountBy(ctx context.Context, properties map[string]any) (int64, error) {
	db, err := br.db(ctx, true)
	if err != nil {
		return 0, err
	}

	query, err := where(db.Model(br.modelFactory()), br.allowedColumns, "", properties)
	if err != nil {
		return 0, err
	}

	var count int64
	err = query.Count(&count).Error
	return count, err
}

// Save creates entities with a zero version and updates the others with an
// optimistic lock on their version.
func (br *baseRepository[T]) Save(ctx context.Context, entity T) error {
	db, err := br.db(ctx, false)
	if err != nil {
		return err
	}
	return saveRow(db, entity)
}

func saveRow(db *gorm.DB, entity data.BaseModelI) error {
	if entity.GetVersion() <= 0 {
		return db.Omit(clause.Associations).Create(entity).Error
	}

	if entity.GetID() == "" {
		return errors.New("entity ID is required for updates")
	}

	currentVersion := entity.GetVersion()
	result := db.Model(entity).
		Where("id = ? AND version = ?", entity.GetID(), currentVersion).
		Select("*").
		Omit(clause.Associations, "id", "created_at").
		Updates(entity)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id=%s expected version %d", ErrOptimisticLock, entity.GetID(), currentVersion)
	}

	return nil
}

// Delete soft deletes the entity with id.
func (br *baseRepository[T]) Delete(ctx context.Context, id string) error {
	db, err := br.db(ctx, false)
	if err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(br.modelFactory()).Error
}
