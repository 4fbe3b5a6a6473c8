package datastore

import (
	"context"

	"gorm.io/gorm"

	"github.com/pitabwire/translationtools/data"
)

// TranslationSaveHook runs inside the save transaction of a translatable
// master, once per translation row, before any row is written.
type TranslationSaveHook interface {
	BeforeSaveTranslation(ctx context.Context, tx *gorm.DB, master any, translation data.Translation) error
}

// TranslationSaveHookFunc adapts a function to TranslationSaveHook.
type TranslationSaveHookFunc func(ctx context.Context, tx *gorm.DB, master any, translation data.Translation) error

func (f TranslationSaveHookFunc) BeforeSaveTranslation(
	ctx context.Context,
	tx *gorm.DB,
	master any,
	translation data.Translation,
) error {
	return f(ctx, tx, master, translation)
}

// TranslationSaveHookProvider is implemented by masters declaring their own hooks,
// for example the slug generator of their translations.
type TranslationSaveHookProvider interface {
	TranslationSaveHooks() []TranslationSaveHook
}
