package accel

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ValidateOne evaluates a single value against a compiled descriptor. On
// failure the message is prefixed with the field name; callers strip the
// prefix before wrapping the message in their own error type.
func ValidateOne(value any, field string, d Descriptor) (any, error) {
	out, err := eval(value, d)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", field, err.Error())
	}
	return out, nil
}

// typeName renders the runtime type of a raw input value the way error
// messages spell types.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	case float32, float64:
		return "float"
	case string:
		return "string"
	case []byte:
		return "bytes"
	case []any:
		return "list"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		if i, ok := asInt64(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

// eval runs the fixed check order: type check and coercion, string
// transforms, numeric bounds, finiteness, length. Error messages carry no
// field prefix.
func eval(value any, d Descriptor) (any, error) {
	var err error
	value, err = coerce(value, d)
	if err != nil {
		return nil, err
	}

	if s, ok := value.(string); ok {
		if d.Strip {
			s = strings.TrimSpace(s)
		}
		if d.Lower {
			s = strings.ToLower(s)
		}
		if d.Upper {
			s = strings.ToUpper(s)
		}
		value = s
	}

	if err := checkBounds(value, d); err != nil {
		return nil, err
	}

	if f, ok := value.(float64); ok && !d.AllowInfNaN {
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("must be finite, got %v", f)
		}
	}

	if err := checkLength(value, d); err != nil {
		return nil, err
	}

	return value, nil
}

func coerce(value any, d Descriptor) (any, error) {
	switch d.Type {
	case CodeInt:
		if _, ok := value.(bool); ok {
			// Booleans never satisfy an integer requirement.
			return nil, fmt.Errorf("expected int, got bool")
		}
		if i, ok := asInt64(value); ok {
			return i, nil
		}
		if isFloat(value) {
			if d.Strict {
				return nil, fmt.Errorf("expected exactly int, got float")
			}
			f, _ := asFloat64(value)
			if math.IsInf(f, 0) || math.IsNaN(f) {
				return nil, fmt.Errorf("cannot convert float to int")
			}
			// Truncation toward zero, matching non-strict float-to-int
			// coercion.
			return int64(f), nil
		}
		if d.Strict {
			return nil, fmt.Errorf("expected exactly int, got %s", typeName(value))
		}
		return nil, fmt.Errorf("expected int, got %s", typeName(value))

	case CodeFloat:
		if _, ok := value.(bool); ok {
			return nil, fmt.Errorf("expected float, got bool")
		}
		if isFloat(value) {
			f, _ := asFloat64(value)
			return f, nil
		}
		if i, ok := asInt64(value); ok {
			if d.Strict {
				return nil, fmt.Errorf("expected exactly float, got int")
			}
			return float64(i), nil
		}
		if d.Strict {
			return nil, fmt.Errorf("expected exactly float, got %s", typeName(value))
		}
		return nil, fmt.Errorf("expected float, got %s", typeName(value))

	case CodeString:
		if s, ok := value.(string); ok {
			return s, nil
		}
		if d.Strict {
			return nil, fmt.Errorf("expected exactly string, got %s", typeName(value))
		}
		return nil, fmt.Errorf("expected string, got %s", typeName(value))

	case CodeBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
		if d.Strict {
			return nil, fmt.Errorf("expected exactly bool, got %s", typeName(value))
		}
		return nil, fmt.Errorf("expected bool, got %s", typeName(value))

	case CodeBytes:
		if b, ok := value.([]byte); ok {
			return b, nil
		}
		if d.Strict {
			return nil, fmt.Errorf("expected exactly bytes, got %s", typeName(value))
		}
		return nil, fmt.Errorf("expected bytes, got %s", typeName(value))

	default:
		return value, nil
	}
}

func checkBounds(value any, d Descriptor) error {
	if d.Gt == nil && d.Ge == nil && d.Lt == nil && d.Le == nil && d.MultipleOf == nil {
		return nil
	}

	f, ok := asFloat64(value)
	if !ok {
		return nil
	}

	if d.Gt != nil && f <= *d.Gt {
		return fmt.Errorf("must be > %v, got %v", *d.Gt, value)
	}
	if d.Ge != nil && f < *d.Ge {
		return fmt.Errorf("must be >= %v, got %v", *d.Ge, value)
	}
	if d.Lt != nil && f >= *d.Lt {
		return fmt.Errorf("must be < %v, got %v", *d.Lt, value)
	}
	if d.Le != nil && f > *d.Le {
		return fmt.Errorf("must be <= %v, got %v", *d.Le, value)
	}
	if d.MultipleOf != nil {
		m := *d.MultipleOf
		if i, isInt := value.(int64); isInt && m == math.Trunc(m) {
			if int64(m) == 0 || i%int64(m) != 0 {
				return fmt.Errorf("must be a multiple of %v, got %v", m, value)
			}
		} else if math.Mod(f, m) != 0 {
			return fmt.Errorf("must be a multiple of %v, got %v", m, value)
		}
	}
	return nil
}

// Length counts logical characters: strings are NFC-normalized and measured
// in runes, never bytes.
func Length(value any) (int, bool) {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(norm.NFC.String(v)), true
	case []byte:
		return len(v), true
	case []any:
		return len(v), true
	case map[string]any:
		return len(v), true
	default:
		return 0, false
	}
}

func checkLength(value any, d Descriptor) error {
	if d.MinLen == nil && d.MaxLen == nil {
		return nil
	}
	length, ok := Length(value)
	if !ok {
		return nil
	}
	if d.MinLen != nil && length < *d.MinLen {
		return fmt.Errorf("length must be >= %d, got %d", *d.MinLen, length)
	}
	if d.MaxLen != nil && length > *d.MaxLen {
		return fmt.Errorf("length must be <= %d, got %d", *d.MaxLen, length)
	}
	return nil
}

var errRequired = errors.New("field required")
