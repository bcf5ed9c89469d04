package moonraker

import (
	"errors"
	"fmt"
)

// Sentinel errors for the proxy layer. Validation errors are surfaced
// before any network call; transport errors distinguish a timeout from a
// generic connection failure in the message only.
var (
	// ErrInvalidBaseURL indicates the target origin is missing or is not a
	// well-formed http/https URL.
	ErrInvalidBaseURL = errors.New("moonraker: invalid base url")

	// ErrTimeout indicates the upstream did not respond within the
	// configured request timeout.
	ErrTimeout = errors.New("moonraker: request timed out")

	// ErrUnreachable indicates the upstream could not be reached at all.
	ErrUnreachable = errors.New("moonraker: connection failed")

	// ErrUnsupportedAction indicates an unrecognised control action.
	ErrUnsupportedAction = errors.New("moonraker: unsupported action")

	// ErrInvalidValue indicates a numeric control action received a
	// missing or non-finite value.
	ErrInvalidValue = errors.New("moonraker: invalid value")

	// ErrBlankScript indicates a script action with an empty script body.
	ErrBlankScript = errors.New("moonraker: blank script")

	// ErrMalformedResponse indicates the upstream replied 2xx but the body
	// could not be decoded into the expected shape.
	ErrMalformedResponse = errors.New("moonraker: malformed response")
)

// UpstreamError is a non-2xx response from the Moonraker API. The status
// code is relayed so handlers can include it in the failure envelope.
type UpstreamError struct {
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("moonraker: upstream status %d", e.Status)
}

// IsValidationError reports whether err should be treated as a caller
// mistake (HTTP 400-equivalent) rather than an upstream or transport fault.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidBaseURL) ||
		errors.Is(err, ErrUnsupportedAction) ||
		errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrBlankScript)
}
