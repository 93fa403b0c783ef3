package pipeline

import (
	"errors"
	"fmt"

	"github.com/fidelis3/Warm-Lead-Sourcer/internal/resilience"
)

// ValidationError reports bad or missing caller input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UnsupportedFeatureError reports a recognized request that has no
// implementation yet, such as a platform other than LinkedIn.
type UnsupportedFeatureError struct {
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("%s is not implemented yet", e.Feature)
}

// InternalError wraps an unexpected failure. Error returns a sanitized
// message; the cause stays reachable through Unwrap for logging.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return "internal error while sourcing leads"
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// isTyped reports whether err already belongs to the caller-facing taxonomy.
func isTyped(err error) bool {
	var (
		ve *ValidationError
		ue *UnsupportedFeatureError
		ie *InternalError
		up *resilience.UpstreamError
	)
	return errors.As(err, &ve) || errors.As(err, &ue) || errors.As(err, &ie) || errors.As(err, &up)
}
