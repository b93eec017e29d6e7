package formats

import (
	"fmt"

	"github.com/google/uuid"
)

// UUIDValidator validates canonical textual UUIDs, optionally pinned to a
// specific version.
type UUIDValidator struct {
	version int
}

// UUID returns a validator accepting any UUID version.
func UUID() UUIDValidator { return UUIDValidator{} }

// UUIDVersion returns a validator requiring the given UUID version.
func UUIDVersion(version int) UUIDValidator { return UUIDValidator{version: version} }

func (v UUIDValidator) Validate(value any, field string) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", value)
	}

	// Fast rejection before parsing: canonical form is 36 characters with
	// fixed hyphen positions.
	if len(s) != 36 || s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return nil, fmt.Errorf("must be a valid UUID")
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("must be a valid UUID")
	}

	if v.version != 0 && int(id.Version()) != v.version {
		return nil, fmt.Errorf("must be a valid UUID version %d", v.version)
	}

	return s, nil
}
