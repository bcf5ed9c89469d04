// Package history keeps a local audit trail of printer state transitions.
//
// Every time the synchronizer derives a new state variant for a printer,
// the transition is appended to SQLite. The trail answers "when did this
// print finish" and "how often does this printer error" without depending
// on the time-series database being reachable.
package history

import (
	"context"
	"time"

	"github.com/printdeck/printdeck/internal/registry"
)

// Transition source values.
const (
	SourcePoll = "poll"
	SourceSync = "sync"
)

// Entry is one recorded printer state transition.
type Entry struct {
	// ID is the auto-incremented primary key for the row.
	ID int64 `json:"id"`

	// PrinterID is the registry id of the printer.
	PrinterID string `json:"printer_id"`

	// Label is the display label at the time of the transition.
	Label string `json:"label"`

	// Variant is the derived state variant.
	Variant registry.StateVariant `json:"variant"`

	// Progress is the job progress at the time of the transition, if known.
	Progress *float64 `json:"progress"`

	// Source identifies how the transition was observed (poll, sync).
	Source string `json:"source"`

	// CreatedAt is the timestamp of the transition (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// Repository stores and retrieves printer state transitions.
//
// Implementations must be thread-safe and use UTC timestamps.
type Repository interface {
	// RecordTransition appends one state transition.
	RecordTransition(ctx context.Context, printerID string, state registry.StoredPrinterState, source string) error

	// GetHistory returns recent transitions for a printer, newest first.
	// Implementations may clamp the limit.
	GetHistory(ctx context.Context, printerID string, limit int) ([]Entry, error)

	// Prune deletes transitions older than the given retention window and
	// returns the number of rows removed.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}
