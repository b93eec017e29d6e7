package schemakit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a single field failure so callers can react to the
// category without parsing messages.
type ErrorKind string

const (
	KindMissing    ErrorKind = "missing"
	KindType       ErrorKind = "type_mismatch"
	KindCoercion   ErrorKind = "coercion"
	KindRange      ErrorKind = "range"
	KindLength     ErrorKind = "length"
	KindPattern    ErrorKind = "pattern"
	KindMultipleOf ErrorKind = "multiple_of"
	KindDecimal    ErrorKind = "decimal"
	KindUnique     ErrorKind = "unique_items"
	KindExtra      ErrorKind = "extra_forbidden"
	KindCustom     ErrorKind = "custom"
	KindUnknown    ErrorKind = "unknown"
)

// Schema declaration and misuse errors. These are returned immediately and are
// never part of a ValidationErrors set: they signal an invalid API call, not
// bad input data.
var (
	ErrFrozen            = errors.New("instance is frozen")
	ErrUnknownField      = errors.New("unknown field")
	ErrUnknownKind       = errors.New("unknown field kind")
	ErrInvalidPattern    = errors.New("invalid pattern")
	ErrDuplicateField    = errors.New("duplicate field name")
	ErrEmptyDefinition   = errors.New("definition has no fields")
	ErrDefaultAndFactory = errors.New("field declares both a default and a factory")
)

// ValidationError represents a single field validation failure. Field is the
// dotted path for nested records ("outer.inner").
type ValidationError struct {
	Field   string
	Kind    ErrorKind
	Message string
}

// ValidationErrors is the complete, ordered collection of field failures from
// one validation call. All fields are evaluated before the set is returned;
// a single invalid field never hides the others.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}

	var parts []string
	for _, err := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (ve *ValidationErrors) Add(err ValidationError) {
	*ve = append(*ve, err)
}

func (ve ValidationErrors) Has(field string) bool {
	for _, err := range ve {
		if err.Field == field {
			return true
		}
	}
	return false
}

func (ve ValidationErrors) Get(field string) []string {
	var messages []string
	for _, err := range ve {
		if err.Field == field {
			messages = append(messages, err.Message)
		}
	}
	return messages
}

func (ve ValidationErrors) GetErrors(field string) []ValidationError {
	var out []ValidationError
	for _, err := range ve {
		if err.Field == field {
			out = append(out, err)
		}
	}
	return out
}

func (ve ValidationErrors) Fields() []string {
	var fields []string
	seen := make(map[string]bool)
	for _, err := range ve {
		if !seen[err.Field] {
			fields = append(fields, err.Field)
			seen[err.Field] = true
		}
	}
	return fields
}

func (ve ValidationErrors) IsEmpty() bool {
	return len(ve) == 0
}

// prefixed returns a copy of the set with path prefixed onto every field,
// used when re-labeling a nested record's failures under the outer field.
func (ve ValidationErrors) prefixed(path string) ValidationErrors {
	out := make(ValidationErrors, len(ve))
	for i, err := range ve {
		err.Field = path + "." + err.Field
		out[i] = err
	}
	return out
}

// ExtractValidationErrors extracts ValidationErrors from an error.
func ExtractValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var validationErr ValidationErrors
	if errors.As(err, &validationErr) {
		return validationErr
	}

	return nil
}

func IsValidationError(err error) bool {
	if err == nil {
		return false
	}

	var validationErr ValidationErrors
	return errors.As(err, &validationErr)
}

// valueError is the failure produced by a compiled field validator before it
// is attached to a field path.
type valueError struct {
	kind ErrorKind
	msg  string
}

func (e *valueError) Error() string { return e.msg }

func failf(kind ErrorKind, format string, args ...any) error {
	return &valueError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// classifyMessage recovers an ErrorKind from an accelerator-reported message.
// The accelerator emits the same wording as the in-process engine, so a prefix
// check is sufficient; anything unrecognized is preserved as KindUnknown.
func classifyMessage(msg string) ErrorKind {
	switch {
	case msg == "field required":
		return KindMissing
	case strings.HasPrefix(msg, "cannot convert"):
		return KindCoercion
	case strings.HasPrefix(msg, "expected"):
		return KindType
	case strings.HasPrefix(msg, "must be a multiple of"):
		return KindMultipleOf
	case strings.HasPrefix(msg, "must be finite"):
		return KindRange
	case strings.HasPrefix(msg, "must be "):
		return KindRange
	case strings.HasPrefix(msg, "length must be"):
		return KindLength
	case strings.HasPrefix(msg, "does not match pattern"):
		return KindPattern
	case strings.HasPrefix(msg, "must have at most"):
		return KindDecimal
	case strings.HasPrefix(msg, "items must be unique"):
		return KindUnique
	case strings.HasPrefix(msg, "extra field not permitted"):
		return KindExtra
	default:
		return KindUnknown
	}
}
