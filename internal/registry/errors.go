package registry

import "errors"

// Domain errors for the registry package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, registry.ErrPrinterNotFound) {
//	    // handle not found case
//	}
var (
	// ErrPrinterNotFound is returned when a printer id does not exist.
	ErrPrinterNotFound = errors.New("registry: printer not found")

	// ErrNodeNotFound is returned when a node id does not exist.
	ErrNodeNotFound = errors.New("registry: node not found")

	// ErrInvalidName is returned when a printer name is blank.
	ErrInvalidName = errors.New("registry: printer name is required")

	// ErrInvalidBaseURL is returned when a printer base URL is blank.
	ErrInvalidBaseURL = errors.New("registry: printer base URL is required")

	// ErrInvalidNodeName is returned when neither a resolvable node id nor a
	// node name is supplied during registration.
	ErrInvalidNodeName = errors.New("registry: node name is required")

	// ErrInvalidState is returned when a stored printer state fails validation.
	ErrInvalidState = errors.New("registry: invalid printer state")

	// ErrPersist is returned when the snapshot file cannot be written.
	ErrPersist = errors.New("registry: persisting snapshot failed")
)

// IsValidationError reports whether an error represents a caller mistake
// (blank field, unresolvable reference) rather than a storage failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidBaseURL) ||
		errors.Is(err, ErrInvalidNodeName) ||
		errors.Is(err, ErrInvalidState)
}
