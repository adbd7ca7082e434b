package concat

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingOutput is returned by New and FromMap when no output path is configured.
	ErrMissingOutput = &ConfigError{Option: "output", Reason: "missing `output` option"}
	// ErrInvalidMetadata is returned by Process when metadata is not a mapping.
	ErrInvalidMetadata = &ConfigError{Option: "metadata", Reason: "concat metadata must be an object"}
	// ErrNotFound matches every *NotFoundError via errors.Is.
	ErrNotFound = errors.New("file does not exist")
)

// ConfigError reports an invalid concat option.
type ConfigError struct {
	Option string // Name of the offending option.
	Reason string // Human-readable description.
	Err    error  // Underlying cause, if any.
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("concat: invalid %s: %s: %v", e.Option, e.Reason, e.Err)
	}
	return fmt.Sprintf("concat: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is matches another ConfigError describing the same option and reason,
// so errors.Is(err, ErrInvalidMetadata) holds regardless of the cause.
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	return ok && t.Option == e.Option && t.Reason == e.Reason
}

// NotFoundError reports an explicitly listed input path that is absent from
// the file map.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("concat: %s does not exist", e.Path)
}

// Is makes errors.Is(err, ErrNotFound) hold for every NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
