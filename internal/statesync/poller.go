package statesync

import (
	"context"
	"sync"
	"time"

	"github.com/printdeck/printdeck/internal/moonraker"
	"github.com/printdeck/printdeck/internal/registry"
)

// Default timings for the poll loop.
const (
	defaultInterval = 45 * time.Second
	defaultDebounce = 800 * time.Millisecond
)

// Upstream fetches telemetry for one printer.
type Upstream interface {
	FetchOverview(ctx context.Context, baseURL string) (moonraker.Overview, error)
}

// Store is the subset of the snapshot store the poller needs.
type Store interface {
	GetSnapshot(defaults *registry.Defaults) *registry.Snapshot
	UpsertPrinterStates(states map[string]registry.StoredPrinterState) (*registry.Snapshot, error)
}

// Sink receives derived state changes for fan-out (live update hub, MQTT,
// metrics, history). Implementations must not block; slow consumers should
// buffer internally.
type Sink interface {
	StateChanged(printerID string, state registry.StoredPrinterState)
}

// OverviewSink receives the raw telemetry overview of each successful poll,
// for consumers that want more than the derived state (metrics recording).
type OverviewSink interface {
	TelemetryPolled(printerID string, overview moonraker.Overview)
}

// Logger defines the logging interface used by the Poller.
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

// Config carries the poll loop timings. Zero values select the defaults.
type Config struct {
	Interval time.Duration
	Debounce time.Duration
}

// Poller sweeps all registered printers, derives display states, and pushes
// them to the store after a debounce window.
//
// Thread Safety: All public methods are safe for concurrent use.
type Poller struct {
	cfg      Config
	store    Store
	upstream Upstream
	logger   Logger
	now      func() time.Time

	sinksMu       sync.RWMutex
	sinks         []Sink
	overviewSinks []OverviewSink

	notify chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	// pending is the current full per-printer state map, pushed wholesale
	// on each flush.
	mu         sync.Mutex
	pending    map[string]registry.StoredPrinterState
	flushTimer *time.Timer
}

// New creates a poller.
//
// Parameters:
//   - cfg: loop timings (zero values select defaults)
//   - store: snapshot store to read printers from and push states to
//   - upstream: telemetry fetcher
//   - logger: optional logger (nil disables logging)
//
// Returns:
//   - *Poller: poller ready for Start
func New(cfg Config, store Store, upstream Upstream, logger Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Poller{
		cfg:      cfg,
		store:    store,
		upstream: upstream,
		logger:   logger,
		now:      time.Now,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		pending:  make(map[string]registry.StoredPrinterState),
	}
}

// AddSink registers a state-change consumer. Must be called before Start.
func (p *Poller) AddSink(sink Sink) {
	p.sinksMu.Lock()
	defer p.sinksMu.Unlock()
	p.sinks = append(p.sinks, sink)
}

// AddOverviewSink registers a raw-telemetry consumer. Must be called
// before Start.
func (p *Poller) AddOverviewSink(sink OverviewSink) {
	p.sinksMu.Lock()
	defer p.sinksMu.Unlock()
	p.overviewSinks = append(p.overviewSinks, sink)
}

// Start launches the poll loop. The first sweep runs immediately rather
// than waiting a full interval.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
}

// Notify requests an immediate out-of-cycle sweep, typically after the
// printer registry changed. Never blocks; coalesces with a pending request.
func (p *Poller) Notify() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Close stops the loop, waits for in-flight polls, and flushes any pending
// states synchronously.
func (p *Poller) Close() error {
	if p == nil {
		return nil
	}
	p.once.Do(func() {
		close(p.done)
	})
	p.wg.Wait()

	p.mu.Lock()
	if p.flushTimer != nil {
		p.flushTimer.Stop()
		p.flushTimer = nil
	}
	p.mu.Unlock()

	p.flush()
	return nil
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-ticker.C:
			p.sweep(ctx)
		case <-p.notify:
			p.sweep(ctx)
		}
	}
}

// sweep polls every registered printer once. Polls run as independent
// in-flight requests; results for printers removed mid-flight are dropped
// by the store's merge, which ignores unknown ids.
func (p *Poller) sweep(ctx context.Context) {
	snap := p.store.GetSnapshot(nil)

	tracked := make(map[string]struct{}, len(snap.Printers))
	for _, printer := range snap.Printers {
		tracked[printer.ID] = struct{}{}
	}

	// Discard stale entries for printers that left the registry.
	p.mu.Lock()
	for id := range p.pending {
		if _, ok := tracked[id]; !ok {
			delete(p.pending, id)
		}
	}
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, printer := range snap.Printers {
		prev, hadPrev := snap.States[printer.ID]
		wg.Add(1)
		go func(printer registry.Printer, prev registry.StoredPrinterState, hadPrev bool) {
			defer wg.Done()
			state := p.pollOne(ctx, printer, prev, hadPrev)
			p.record(printer.ID, state)
		}(printer, prev, hadPrev)
	}
	wg.Wait()
}

// pollOne fetches one printer's telemetry and derives its display state.
// A failed poll keeps the last successful updatedAt so the UI can show how
// stale the data is.
func (p *Poller) pollOne(ctx context.Context, printer registry.Printer, prev registry.StoredPrinterState, hadPrev bool) registry.StoredPrinterState {
	overview, err := p.upstream.FetchOverview(ctx, printer.BaseURL)
	if err != nil {
		p.logger.Warn("printer poll failed", "printer_id", printer.ID, "error", err)
		reason := err.Error()
		state := registry.StoredPrinterState{
			Label:   errorLabel,
			Variant: registry.VariantError,
			Error:   &reason,
		}
		if hadPrev {
			state.UpdatedAt = prev.UpdatedAt
		}
		return state
	}

	p.sinksMu.RLock()
	overviewSinks := p.overviewSinks
	p.sinksMu.RUnlock()
	for _, sink := range overviewSinks {
		sink.TelemetryPolled(printer.ID, overview)
	}

	label, variant := Derive(overview.Print.State)
	updatedAt := p.now().UnixMilli()
	state := registry.StoredPrinterState{
		Label:     label,
		Variant:   variant,
		UpdatedAt: &updatedAt,
	}
	if overview.Print.Progress != nil {
		progress := *overview.Print.Progress
		state.Progress = &progress
	}
	if overview.Print.Message != "" {
		message := overview.Print.Message
		state.Message = &message
	}
	return state
}

// record merges one derived state into the pending map, fans the change out
// to sinks, and (re)arms the debounce timer. A poll that only refreshed
// updatedAt still arms a flush, so the persisted freshness stamp keeps
// advancing for other sessions, but it does not re-fan an unchanged display
// state out to sinks.
func (p *Poller) record(printerID string, state registry.StoredPrinterState) {
	p.mu.Lock()
	prev, hadPrev := p.pending[printerID]
	displayChanged := !hadPrev || !statesEqual(prev, state)
	changed := displayChanged || !int64PtrEqual(prev.UpdatedAt, state.UpdatedAt)
	p.pending[printerID] = state.DeepCopy()

	if changed {
		if p.flushTimer == nil {
			p.flushTimer = time.AfterFunc(p.cfg.Debounce, p.flush)
		} else {
			p.flushTimer.Reset(p.cfg.Debounce)
		}
	}
	p.mu.Unlock()

	if !displayChanged {
		return
	}

	p.sinksMu.RLock()
	sinks := p.sinks
	p.sinksMu.RUnlock()
	for _, sink := range sinks {
		sink.StateChanged(printerID, state.DeepCopy())
	}
}

// flush pushes the full pending state map to the store. A push failure is
// logged and dropped; the next sweep supersedes it.
func (p *Poller) flush() {
	p.mu.Lock()
	p.flushTimer = nil
	if len(p.pending) == 0 {
		p.mu.Unlock()
		return
	}
	states := make(map[string]registry.StoredPrinterState, len(p.pending))
	for id, st := range p.pending {
		states[id] = st.DeepCopy()
	}
	p.mu.Unlock()

	if _, err := p.store.UpsertPrinterStates(states); err != nil {
		p.logger.Error("state push failed", "count", len(states), "error", err)
		return
	}
	p.logger.Debug("states pushed", "count", len(states))
}

// statesEqual compares the fields that drive the dashboard display,
// ignoring updatedAt so a steady-state printer does not spam sinks on
// every sweep. Persistence uses a separate check that includes the stamp.
func statesEqual(a, b registry.StoredPrinterState) bool {
	return a.Label == b.Label &&
		a.Variant == b.Variant &&
		floatPtrEqual(a.Progress, b.Progress) &&
		stringPtrEqual(a.Error, b.Error) &&
		stringPtrEqual(a.Message, b.Message)
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
