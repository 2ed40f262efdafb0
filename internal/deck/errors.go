package deck

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a presentation that cannot be turned into a
// record sequence: unparseable JSON, a schema violation, or a slide that
// lacks its notes container or layout reference.
//
// It is never retried. Malformed input is an operator problem, not a
// transient condition.
type ConfigurationError struct {
	// SlideID identifies the offending slide, empty for document-level problems.
	SlideID string

	// Field is the dotted path of the missing or invalid part, if known.
	Field string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause (JSON or schema error), if any.
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Field)
	}
	if e.SlideID != "" {
		msg = fmt.Sprintf("slide %q: %s", e.SlideID, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", msg, e.Err)
	}
	return "configuration error: " + msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError returns true if err is or wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func missing(slideID, field string) *ConfigurationError {
	return &ConfigurationError{
		SlideID: slideID,
		Field:   field,
		Message: "missing required structure",
	}
}
