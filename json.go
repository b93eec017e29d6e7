package schemakit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidJSON is returned by NewJSON when the payload is not a single
// well-formed JSON object.
var ErrInvalidJSON = errors.New("invalid JSON")

// NewJSON decodes a JSON object and validates it through the plan. JSON
// numbers without a fraction or exponent arrive as integers so strict-mode
// integer fields behave the same for JSON and mapping input.
func (p *Plan) NewJSON(data []byte) (*Instance, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty body", ErrInvalidJSON)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidJSON)
	}

	return p.New(normalizeMap(raw))
}

func normalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		s := t.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := t.Int64(); err == nil {
				return i
			}
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		return normalizeMap(t)
	case []any:
		for i, item := range t {
			t[i] = normalizeValue(item)
		}
		return t
	default:
		return v
	}
}
