package datastore

import (
	"context"
	"fmt"
	"strings"

	"github.com/pitabwire/util"
	"gorm.io/gorm"

	"github.com/pitabwire/translationtools/data"
	"github.com/pitabwire/translationtools/datastore/pool"
)

// Migrate creates the tables of models and of the translation rows they declare.
func Migrate(ctx context.Context, dbPool pool.Pool, models ...any) error {
	if !dbPool.CanMigrate() {
		util.Log(ctx).Debug("pool is not allowed to migrate, skipping")
		return nil
	}

	var all []any
	for _, model := range models {
		all = append(all, model)
		if translation, err := data.NewTranslationModel(model); err == nil {
			all = append(all, translation)
		}
	}

	return dbPool.Migrate(ctx, all...)
}

// EnsureSlugIndex creates a partial unique index on the slug column of the
// translation rows of master. Unless unique globally, uniqueness is per language.
func EnsureSlugIndex(ctx context.Context, db *gorm.DB, master any, slugField string, globally bool) error {
	translation, err := data.NewTranslationModel(master)
	if err != nil {
		return err
	}

	table, err := data.TableName(translation)
	if err != nil {
		return err
	}

	column, err := data.ColumnName(translation, slugField)
	if err != nil {
		return err
	}

	columns := []string{"language_code", column}
	scope := "language"
	if globally {
		columns = []string{column}
		scope = "global"
	}

	index := fmt.Sprintf("uix_%s_%s_%s", table, column, scope)
	stmt := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s) WHERE deleted_at IS NULL",
		quoteIdent(index), quoteIdent(table), quoteIdents(columns))

	if err = db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("create slug index %s: %w", index, err)
	}

	util.Log(ctx).WithField("index", index).Debug("slug index ensured")
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdent(name)
	}
	return strings.Join(quoted, ", ")
}
