package quota

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrInvalidQuota        = errors.New("invalid quota")
	ErrIntervalWithoutRate = errors.New("interval is set but rate is not")
	ErrRateWithoutInterval = errors.New("rate is set but interval is not")

	// Manager errors
	ErrNotActive = errors.New("release called with no active invocation")

	// Loading errors
	ErrReadFailed  = errors.New("failed to read quota file")
	ErrParseFailed = errors.New("failed to parse quota file")
)

// ConfigError describes a quota field that failed validation
type ConfigError struct {
	Limiter string // empty when the quota is not part of a named set
	Field   string
	Value   any
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Limiter != "" {
		return fmt.Sprintf("invalid quota for limiter '%s': %s (got %v): %v", e.Limiter, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid quota: %s (got %v): %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is makes every ConfigError match ErrInvalidQuota
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidQuota
}

// Configuration error functions
func NewConfigError(field string, value any, err error) error {
	return &ConfigError{Field: field, Value: value, Err: err}
}

func NewNegativeFieldError(field string, value any) error {
	return &ConfigError{Field: field, Value: value, Err: errors.New("must not be negative")}
}

// Loading error functions
func NewReadFailedError(path string, err error) error {
	return fmt.Errorf("%w %q: %w", ErrReadFailed, path, err)
}

func NewParseFailedError(source string, err error) error {
	return fmt.Errorf("%w %q: %w", ErrParseFailed, source, err)
}

func NewUnknownLimiterError(name string) error {
	return fmt.Errorf("no quota defined for limiter '%s'", name)
}

func NewEnvOverrideError(key, value string, err error) error {
	return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
}
