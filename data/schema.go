package data

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"gorm.io/gorm/schema"
)

// verboseTag names the struct tag holding a human readable field name.
const verboseTag = "verbose"

var (
	schemaCache = &sync.Map{}
	namer       = schema.NamingStrategy{}

	translationType = reflect.TypeOf((*Translation)(nil)).Elem()
)

// Schema parses the gorm schema of model, cached per type.
func Schema(model any) (*schema.Schema, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrImproperlyConfigured)
	}

	s, err := schema.Parse(model, schemaCache, namer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImproperlyConfigured, err)
	}

	return s, nil
}

// TableName returns the table a model is persisted to.
func TableName(model any) (string, error) {
	s, err := Schema(model)
	if err != nil {
		return "", err
	}
	return s.Table, nil
}

// LookUpField finds a field by its Go name or its column name.
func LookUpField(model any, name string) (*schema.Field, error) {
	s, err := Schema(model)
	if err != nil {
		return nil, err
	}

	field := s.LookUpField(name)
	if field == nil {
		return nil, fmt.Errorf("%w: %s has no field %q", ErrImproperlyConfigured, s.Name, name)
	}

	return field, nil
}

// HasField reports whether model declares a persisted field called name.
func HasField(model any, name string) bool {
	field, err := LookUpField(model, name)
	return err == nil && field.DBName != ""
}

// ColumnName returns the column backing the named field.
func ColumnName(model any, name string) (string, error) {
	field, err := LookUpField(model, name)
	if err != nil {
		return "", err
	}

	if field.DBName == "" {
		return "", fmt.Errorf("%w: field %q is not persisted", ErrImproperlyConfigured, name)
	}

	return field.DBName, nil
}

// FieldSize returns the declared size of the named column, 0 when unbounded.
func FieldSize(model any, name string) int {
	field, err := LookUpField(model, name)
	if err != nil {
		return 0
	}
	return field.Size
}

// FieldValue reads the named field of model.
func FieldValue(ctx context.Context, model any, name string) (any, error) {
	field, err := LookUpField(model, name)
	if err != nil {
		return nil, err
	}

	value, _ := field.ValueOf(ctx, reflect.ValueOf(model))
	return value, nil
}

// FieldString reads the named field of model as a string.
func FieldString(ctx context.Context, model any, name string) (string, error) {
	value, err := FieldValue(ctx, model, name)
	if err != nil {
		return "", err
	}

	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case *string:
		if v == nil {
			return "", nil
		}
		return *v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// SetFieldValue assigns value to the named field, model must be a pointer.
func SetFieldValue(ctx context.Context, model any, name string, value any) error {
	rv := reflect.ValueOf(model)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("%w: %T is not a pointer to a model", ErrImproperlyConfigured, model)
	}

	field, err := LookUpField(model, name)
	if err != nil {
		return err
	}

	return field.Set(ctx, rv, value)
}

// ModelName returns the lower cased type name of model, e.g. "simple".
func ModelName(model any) string {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return strings.ToLower(t.Name())
}

// VerboseName returns the human readable name of model.
func VerboseName(model any) string {
	if vn, ok := model.(VerboseNamer); ok {
		return vn.VerboseName()
	}

	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}

	return humanise(t.Name())
}

// FieldVerboseName returns the `verbose` tag of the named field or its name split into words.
func FieldVerboseName(model any, name string) string {
	field, err := LookUpField(model, name)
	if err != nil {
		return humanise(name)
	}

	if verbose, ok := field.Tag.Lookup(verboseTag); ok && verbose != "" {
		return verbose
	}

	return humanise(field.Name)
}

func humanise(name string) string {
	return strings.ReplaceAll(namer.ColumnName("", name), "_", " ")
}
