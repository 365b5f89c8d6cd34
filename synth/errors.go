package synth

import (
	"errors"
	"fmt"
)

// Sentinel errors for setup-time failures. The audio path never returns errors.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrOutOfRange        = errors.New("value out of range")
	ErrInvalidWaveform   = errors.New("invalid waveform")
	ErrInvalidFilterType = errors.New("invalid filter type")
	ErrUnknownParameter  = errors.New("unknown parameter")
)

// RangeError reports a value rejected by a parameter declaration.
type RangeError struct {
	ID    string
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("parameter %q: value %g outside [%g, %g]", e.ID, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// ConfigError reports an invalid declaration or processor setup.
type ConfigError struct {
	Field  string
	Reason string
	Cause  error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid configuration of %s: %s: %v", e.Field, e.Reason, e.Cause)
	}
	return fmt.Sprintf("invalid configuration of %s: %s", e.Field, e.Reason)
}

// Unwrap exposes both the configuration sentinel and the underlying cause,
// so errors.Is matches ErrConfiguration as well as e.g. ErrOutOfRange.
func (e *ConfigError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrConfiguration, e.Cause}
	}
	return []error{ErrConfiguration}
}

func configError(field, reason string, cause error) *ConfigError {
	return &ConfigError{Field: field, Reason: reason, Cause: cause}
}
