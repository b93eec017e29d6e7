package formats

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// URLValidator validates absolute URLs, optionally restricted to a scheme
// allowlist.
type URLValidator struct {
	schemes []string
}

// URL returns a URL validator. With no arguments any scheme is accepted;
// otherwise the URL's scheme must be one of the given values.
func URL(schemes ...string) URLValidator {
	return URLValidator{schemes: schemes}
}

func (v URLValidator) Validate(value any, field string) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", value)
	}
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("must be a valid URL")
	}

	u, err := url.ParseRequestURI(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("must be a valid URL")
	}

	if len(v.schemes) > 0 && !slices.Contains(v.schemes, u.Scheme) {
		return nil, fmt.Errorf("URL scheme must be one of %s", strings.Join(v.schemes, ", "))
	}

	return s, nil
}
