package schemakit

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// FromAttributes validates a struct's exported fields through the plan.
// Field names are taken from the `schema` struct tag when present, otherwise
// from the exported name converted to snake_case. Nested structs become
// nested mappings.
func (p *Plan) FromAttributes(src any) (*Instance, error) {
	m, err := attributesToMap(src)
	if err != nil {
		return nil, err
	}
	return p.New(m)
}

func attributesToMap(src any) (map[string]any, error) {
	rv := reflect.ValueOf(src)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("from attributes: nil source")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("from attributes: expected struct, got %s", rv.Kind())
	}

	rt := rv.Type()
	out := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		name := sf.Tag.Get("schema")
		if name == "-" {
			continue
		}
		if name == "" {
			name = toSnakeCase(sf.Name)
		}

		fv := rv.Field(i)
		if isPlainStruct(fv) {
			nested, err := attributesToMap(fv.Interface())
			if err == nil {
				out[name] = nested
				continue
			}
		}
		out[name] = fv.Interface()
	}
	return out, nil
}

// isPlainStruct reports whether the value is a struct (or non-nil pointer to
// one) that should be flattened to a nested mapping. time.Time and
// decimal.Decimal stay opaque values.
func isPlainStruct(fv reflect.Value) bool {
	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			return false
		}
		fv = fv.Elem()
	}
	if fv.Kind() != reflect.Struct {
		return false
	}
	switch fv.Interface().(type) {
	case time.Time, decimal.Decimal:
		return false
	}
	return true
}

// toSnakeCase converts an exported Go field name to its snake_case input
// name, keeping initialisms together (UserID -> user_id).
func toSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
