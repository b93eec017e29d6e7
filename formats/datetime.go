package formats

import (
	"fmt"
	"time"
)

// PastTimeValidator requires a time strictly before now.
type PastTimeValidator struct{}

// PastTime returns a validator for times in the past.
func PastTime() PastTimeValidator { return PastTimeValidator{} }

func (PastTimeValidator) Validate(value any, field string) (any, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, fmt.Errorf("expected time, got %T", value)
	}
	if !t.Before(time.Now()) {
		return nil, fmt.Errorf("must be in the past")
	}
	return t, nil
}

// FutureTimeValidator requires a time strictly after now.
type FutureTimeValidator struct{}

// FutureTime returns a validator for times in the future.
func FutureTime() FutureTimeValidator { return FutureTimeValidator{} }

func (FutureTimeValidator) Validate(value any, field string) (any, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, fmt.Errorf("expected time, got %T", value)
	}
	if !t.After(time.Now()) {
		return nil, fmt.Errorf("must be in the future")
	}
	return t, nil
}

// UTCTimeValidator normalizes a time to UTC.
type UTCTimeValidator struct{}

// UTCTime returns a validator that converts any time to UTC.
func UTCTime() UTCTimeValidator { return UTCTimeValidator{} }

func (UTCTimeValidator) Validate(value any, field string) (any, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, fmt.Errorf("expected time, got %T", value)
	}
	return t.UTC(), nil
}
