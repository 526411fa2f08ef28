package urgency

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrConfiguration means the engine cannot run at all, e.g. a missing
	// credential. It is the only error Classify returns.
	ErrConfiguration = errors.New("urgency: configuration error")

	// ErrMalformedResponse matches both ParseError and SchemaError.
	ErrMalformedResponse = errors.New("urgency: malformed model response")
)

// ParseError is returned when the model output is not valid JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrMalformedResponse }

// SchemaError is returned when the model output is valid JSON but not an
// object the normalizer can repair.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return e.Reason }

func (e *SchemaError) Is(target error) bool { return target == ErrMalformedResponse }

// ProviderError carries a short, stable failure kind from a Provider so the
// fallback reasoning does not leak transport details.
type ProviderError struct {
	Kind string
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ConfigError wraps err so that errors.Is(err, ErrConfiguration) holds.
func ConfigError(err error) error {
	return fmt.Errorf("%w: %w", ErrConfiguration, err)
}

// ErrorKind reduces a provider failure to a short label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Kind != "" {
		return pe.Kind
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "timeout"
	}
	return "transport"
}
