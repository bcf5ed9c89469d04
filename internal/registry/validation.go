package registry

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// maxProgress is the upper bound of the progress scale.
const maxProgress = 100

// GenerateID creates a new unique id for a node or printer.
func GenerateID() string {
	return uuid.New().String()
}

// ValidateState checks a stored printer state for structural validity.
//
// A state is valid when its label is non-blank, its variant is one of the
// recognised values, and its progress (when present) is a finite number
// within [0, 100].
//
// Returns:
//   - error: ErrInvalidState if any check fails, nil otherwise
func ValidateState(st StoredPrinterState) error {
	if strings.TrimSpace(st.Label) == "" {
		return ErrInvalidState
	}
	if !st.Variant.Valid() {
		return ErrInvalidState
	}
	if st.Progress != nil {
		p := *st.Progress
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > maxProgress {
			return ErrInvalidState
		}
	}
	return nil
}

// validNode reports whether a node satisfies the snapshot invariants.
func validNode(n Node) bool {
	return n.ID != "" && strings.TrimSpace(n.Name) != ""
}

// validPrinter reports whether a printer satisfies the snapshot invariants,
// ignoring the node reference (checked separately during sanitization).
func validPrinter(p Printer) bool {
	return p.ID != "" && strings.TrimSpace(p.Name) != "" && strings.TrimSpace(p.BaseURL) != ""
}
