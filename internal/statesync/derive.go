package statesync

import (
	"strings"

	"github.com/printdeck/printdeck/internal/registry"
)

// Fixed labels used when the upstream gives nothing usable.
const (
	unknownLabel = "Unknown"
	errorLabel   = "Error"
)

// Derive maps a raw upstream status string to a display label and coarse
// variant. Matching is ordered, case-insensitive substring matching; the
// first match wins. Unrecognised statuses keep the raw text as the label
// with the unknown variant.
//
// Parameters:
//   - raw: upstream print state string, possibly empty
//
// Returns:
//   - string: display label
//   - registry.StateVariant: derived variant
func Derive(raw string) (string, registry.StateVariant) {
	label := strings.TrimSpace(raw)
	if label == "" {
		return unknownLabel, registry.VariantUnknown
	}

	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "print"):
		return label, registry.VariantPrinting
	case strings.Contains(lower, "complete"),
		strings.Contains(lower, "done"),
		strings.Contains(lower, "finish"):
		return label, registry.VariantComplete
	case strings.Contains(lower, "pause"):
		return label, registry.VariantPaused
	case strings.Contains(lower, "standby"),
		strings.Contains(lower, "idle"),
		strings.Contains(lower, "ready"):
		return label, registry.VariantIdle
	case strings.Contains(lower, "error"),
		strings.Contains(lower, "fault"),
		strings.Contains(lower, "halt"):
		return label, registry.VariantError
	default:
		return label, registry.VariantUnknown
	}
}
