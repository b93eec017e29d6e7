package formats

import (
	"fmt"
	"net/netip"
)

type ipVersion int

const (
	ipAny ipVersion = iota
	ipV4
	ipV6
)

// IPValidator validates textual IP addresses.
type IPValidator struct {
	version ipVersion
}

// IP returns a validator accepting any IP address.
func IP() IPValidator { return IPValidator{version: ipAny} }

// IPv4 returns a validator accepting IPv4 addresses only.
func IPv4() IPValidator { return IPValidator{version: ipV4} }

// IPv6 returns a validator accepting IPv6 addresses only.
func IPv6() IPValidator { return IPValidator{version: ipV6} }

func (v IPValidator) Validate(value any, field string) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", value)
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return nil, fmt.Errorf("must be a valid IP address")
	}

	switch v.version {
	case ipV4:
		if !addr.Is4() {
			return nil, fmt.Errorf("must be a valid IPv4 address")
		}
	case ipV6:
		if !addr.Is6() || addr.Is4In6() {
			return nil, fmt.Errorf("must be a valid IPv6 address")
		}
	}

	return s, nil
}

// CIDRValidator validates prefix notation such as "10.0.0.0/8".
type CIDRValidator struct{}

// CIDR returns a validator for IP network prefixes.
func CIDR() CIDRValidator { return CIDRValidator{} }

func (CIDRValidator) Validate(value any, field string) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", value)
	}
	if _, err := netip.ParsePrefix(s); err != nil {
		return nil, fmt.Errorf("must be a valid CIDR prefix")
	}
	return s, nil
}
