package history

import (
	"context"
	"sync"
	"time"

	"github.com/printdeck/printdeck/internal/registry"
)

// recordTimeout bounds each insert so a stuck database cannot back up the
// poller's fan-out path.
const recordTimeout = 5 * time.Second

// Logger is the logging interface used by the Recorder.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder turns poller state changes into transition rows. Only variant
// changes are recorded; repeated states with the same variant (progress
// ticks during a print) are skipped to keep the trail readable.
//
// Thread Safety: StateChanged is safe for concurrent use.
type Recorder struct {
	repo   Repository
	logger Logger

	mu   sync.Mutex
	last map[string]registry.StateVariant
}

// NewRecorder creates a transition recorder over the given repository.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{
		repo:   repo,
		logger: logger,
		last:   make(map[string]registry.StateVariant),
	}
}

// StateChanged records the transition when the printer's variant changed
// since the last observation. Insert failures are logged and dropped.
func (r *Recorder) StateChanged(printerID string, state registry.StoredPrinterState) {
	r.mu.Lock()
	prev, seen := r.last[printerID]
	if seen && prev == state.Variant {
		r.mu.Unlock()
		return
	}
	r.last[printerID] = state.Variant
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.repo.RecordTransition(ctx, printerID, state, SourcePoll); err != nil {
		r.logger.Error("recording state transition failed", "printer_id", printerID, "error", err)
	}
}

// Forget drops the recorder's memory of a printer so a re-registered id
// starts a fresh trail segment.
func (r *Recorder) Forget(printerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.last, printerID)
}
