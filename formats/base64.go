package formats

import (
	"encoding/base64"
	"fmt"
)

// Base64StrValidator validates that a string is standard base64 text. The
// value passes through unchanged.
type Base64StrValidator struct{}

// Base64Str returns a validator for base64-encoded strings.
func Base64Str() Base64StrValidator { return Base64StrValidator{} }

func (Base64StrValidator) Validate(value any, field string) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", value)
	}
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return nil, fmt.Errorf("must be valid base64")
	}
	return s, nil
}

// Base64BytesValidator decodes base64 input to its raw byte payload.
type Base64BytesValidator struct{}

// Base64Bytes returns a validator that decodes base64 text or bytes,
// yielding the decoded payload.
func Base64Bytes() Base64BytesValidator { return Base64BytesValidator{} }

func (Base64BytesValidator) Validate(value any, field string) (any, error) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return nil, fmt.Errorf("expected string or bytes, got %T", value)
	}
	out, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("must be valid base64")
	}
	return out, nil
}
