package motiondetection

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidFrameError is returned when a frame cannot be processed: it is nil, has no pixels, uses
// an unsupported color model, or does not match the dimensions of the background model. It is
// scoped to a single tick.
type InvalidFrameError struct {
	Reason string
}

func (e *InvalidFrameError) Error() string {
	return "invalid frame: " + e.Reason
}

// NewInvalidFrameError returns an InvalidFrameError with a formatted reason.
func NewInvalidFrameError(format string, args ...interface{}) error {
	return &InvalidFrameError{Reason: fmt.Sprintf(format, args...)}
}

// UninitializedModelError is returned when the background model is read or updated before it
// was initialized. It always indicates a sequencing bug.
type UninitializedModelError struct {
	Op string
}

func (e *UninitializedModelError) Error() string {
	return fmt.Sprintf("background model %s called before initialize", e.Op)
}

// ConfigurationError describes an invalid detector option.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for %q: %s", e.Field, e.Reason)
}

// NewConfigurationError returns a ConfigurationError for field with a formatted reason.
func NewConfigurationError(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsInvalidFrameError returns whether err is or wraps an InvalidFrameError.
func IsInvalidFrameError(err error) bool {
	var target *InvalidFrameError
	return errors.As(err, &target)
}

// IsUninitializedModelError returns whether err is or wraps an UninitializedModelError.
func IsUninitializedModelError(err error) bool {
	var target *UninitializedModelError
	return errors.As(err, &target)
}

// IsConfigurationError returns whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
