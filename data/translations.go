package data

import (
	"context"
	"fmt"
	"reflect"

	"gorm.io/gorm/schema"
)

// TranslationsRelation returns the has-many relation of model whose rows implement Translation.
func TranslationsRelation(model any) (*schema.Relationship, error) {
	s, err := Schema(model)
	if err != nil {
		return nil, err
	}

	for _, rel := range s.Relationships.HasMany {
		if rel.FieldSchema == nil {
			continue
		}

		if reflect.PointerTo(rel.FieldSchema.ModelType).Implements(translationType) {
			return rel, nil
		}
	}

	return nil, fmt.Errorf(
		"%w: %s must declare a has-many relation to a model embedding data.TranslationModel",
		ErrImproperlyConfigured, s.Name)
}

// IsTranslatable reports whether model carries a translations relation.
func IsTranslatable(model any) bool {
	_, err := TranslationsRelation(model)
	return err == nil
}

// NewTranslationModel returns a new zero translation row for the master model.
func NewTranslationModel(model any) (Translation, error) {
	rel, err := TranslationsRelation(model)
	if err != nil {
		return nil, err
	}

	tr, _ := reflect.New(rel.FieldSchema.ModelType).Interface().(Translation)
	return tr, nil
}

// IsTranslatedField reports whether name is a field of the master's translation rows.
func IsTranslatedField(model any, name string) bool {
	tr, err := NewTranslationModel(model)
	if err != nil {
		return false
	}
	return HasField(tr, name)
}

func translationsValue(ctx context.Context, model any) (reflect.Value, error) {
	rel, err := TranslationsRelation(model)
	if err != nil {
		return reflect.Value{}, err
	}

	rv := reflect.ValueOf(model)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: %T is not a pointer to a model", ErrImproperlyConfigured, model)
	}

	return rel.Field.ReflectValueOf(ctx, rv), nil
}

// TranslationsOf lists the loaded translation rows of model.
func TranslationsOf(ctx context.Context, model any) ([]Translation, error) {
	slice, err := translationsValue(ctx, model)
	if err != nil {
		return nil, err
	}

	translations := make([]Translation, 0, slice.Len())
	for i := range slice.Len() {
		if tr, ok := elemTranslation(slice.Index(i)); ok {
			translations = append(translations, tr)
		}
	}

	return translations, nil
}

func elemTranslation(elem reflect.Value) (Translation, bool) {
	if elem.Kind() == reflect.Ptr {
		if elem.IsNil() {
			return nil, false
		}
		tr, ok := elem.Interface().(Translation)
		return tr, ok
	}

	tr, ok := elem.Addr().Interface().(Translation)
	return tr, ok
}

// AvailableLanguages lists the language codes model has translations for, in load order.
func AvailableLanguages(ctx context.Context, model any) ([]string, error) {
	translations, err := TranslationsOf(ctx, model)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var languages []string
	for _, tr := range translations {
		code := tr.GetLanguageCode()
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		languages = append(languages, code)
	}

	return languages, nil
}

// TranslationFor returns the loaded translation of model in language.
func TranslationFor(ctx context.Context, model any, language string) (Translation, bool, error) {
	translations, err := TranslationsOf(ctx, model)
	if err != nil {
		return nil, false, err
	}

	for _, tr := range translations {
		if tr.GetLanguageCode() == language {
			return tr, true, nil
		}
	}

	return nil, false, nil
}

// Translate returns the translation of model in language, appending a new row when missing.
func Translate(ctx context.Context, model any, language string) (Translation, error) {
	if language == "" {
		return nil, fmt.Errorf("%w: empty language code", ErrImproperlyConfigured)
	}

	tr, ok, err := TranslationFor(ctx, model, language)
	if err != nil {
		return nil, err
	}
	if ok {
		return tr, nil
	}

	slice, err := translationsValue(ctx, model)
	if err != nil {
		return nil, err
	}

	elemType := slice.Type().Elem()
	isPtr := elemType.Kind() == reflect.Ptr
	if isPtr {
		elemType = elemType.Elem()
	}

	fresh := reflect.New(elemType)
	newTr, _ := fresh.Interface().(Translation)
	newTr.SetLanguageCode(language)

	if master, isModel := model.(BaseModelI); isModel {
		newTr.SetMasterID(master.GetID())
	}

	if isPtr {
		slice.Set(reflect.Append(slice, fresh))
		return newTr, nil
	}

	slice.Set(reflect.Append(slice, fresh.Elem()))
	appended, _ := elemTranslation(slice.Index(slice.Len() - 1))
	return appended, nil
}

// TranslationOf is the typed form of Translate.
func TranslationOf[T Translation](ctx context.Context, model any, language string) (T, error) {
	var zero T

	tr, err := Translate(ctx, model, language)
	if err != nil {
		return zero, err
	}

	typed, ok := tr.(T)
	if !ok {
		return zero, fmt.Errorf("%w: translation of %T is %T", ErrImproperlyConfigured, model, tr)
	}

	return typed, nil
}
