package formats

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var errNotEmail = errors.New("must be a valid email address")

// EmailValidator validates RFC 5322 addresses with additional checks for
// typical web use.
type EmailValidator struct{}

// Email returns a validator for plain email addresses.
func Email() EmailValidator { return EmailValidator{} }

func (EmailValidator) Validate(value any, field string) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", value)
	}
	if !validEmail(s) {
		return nil, errNotEmail
	}
	return s, nil
}

func validEmail(value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}

	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false
	}

	email := addr.Address
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}

	localPart := parts[0]
	domain := parts[1]

	if localPart == "" {
		return false
	}

	// Domain must contain at least one dot and cannot start/end with dot.
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}

	for _, part := range strings.Split(domain, ".") {
		if part == "" {
			return false
		}
	}

	return true
}

// NameEmailValidator accepts either a plain address or the
// "Display Name <email>" form.
type NameEmailValidator struct{}

// NameEmail returns a validator for addresses with an optional display name.
func NameEmail() NameEmailValidator { return NameEmailValidator{} }

func (NameEmailValidator) Validate(value any, field string) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", value)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || !validEmail(addr.Address) {
		return nil, errNotEmail
	}
	return s, nil
}
