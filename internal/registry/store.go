package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Default labels used when seeding an empty registry.
const (
	// DefaultNodeName is the name given to the node created during seeding.
	DefaultNodeName = "Nodo principal"

	// DefaultPrinterName is used when seeding without an explicit printer name.
	DefaultPrinterName = "Impresora"
)

// File permission modes for the snapshot file and its directory.
const (
	dirPermissions  = 0750
	filePermissions = 0600
)

// Logger defines the logging interface used by the Store.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Defaults carries optional seeding parameters for an empty registry.
// When BaseURL is non-blank and the stored snapshot has no nodes or no
// printers, the store seeds one default node and one default printer.
type Defaults struct {
	BaseURL     string
	PrinterName string
}

// RegisterPrinterInput carries the fields of a printer registration.
type RegisterPrinterInput struct {
	Name    string
	BaseURL string

	// NodeID attaches the printer to an existing node when it resolves.
	NodeID string

	// NodeName names a node to create when NodeID is absent or stale.
	NodeName string
}

// Store owns the on-disk snapshot file.
//
// Reads are served from a short-lived in-memory cache to absorb bursty
// dashboard refreshes; any read failure degrades to an empty snapshot
// rather than propagating an error. Mutations are serialized in-process
// and always rewrite the whole file (pretty-printed JSON, for manual
// inspectability).
//
// All public methods are thread-safe. Returned snapshots are deep copies;
// callers can safely modify them.
type Store struct {
	path   string
	ttl    time.Duration
	logger Logger

	// now is the clock source, injectable for deterministic tests.
	now func() time.Time

	// mu serializes mutations (read-modify-write of the whole file).
	mu sync.Mutex

	cacheMu  sync.RWMutex
	cached   *Snapshot
	cachedAt time.Time
}

// NewStore creates a snapshot store backed by the given file path.
//
// Parameters:
//   - path: Filesystem path of the snapshot JSON file
//   - ttl: How long a read is served from memory before re-reading the file
//
// Returns:
//   - *Store: Store ready for use (the file is created lazily on first write)
func NewStore(path string, ttl time.Duration) *Store {
	return &Store{
		path:   path,
		ttl:    ttl,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// SetClock replaces the store's clock source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.path
}

// GetSnapshot returns the current snapshot.
//
// A fresh cached copy (younger than the configured TTL) is returned without
// touching storage. Otherwise the file is read and sanitized; a missing file
// or an unreadable/corrupt one degrades to an empty snapshot. If the result
// has no nodes or no printers and defaults.BaseURL is supplied, the store
// seeds one default node and one default printer, persists the seeded
// snapshot, and returns it. Seeding persistence failures are logged and the
// seeded snapshot is returned anyway.
//
// Parameters:
//   - defaults: Optional seeding parameters (nil disables seeding)
//
// Returns:
//   - *Snapshot: Deep copy of the current snapshot, never nil
func (s *Store) GetSnapshot(defaults *Defaults) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.loadLocked()

	if defaults != nil && strings.TrimSpace(defaults.BaseURL) != "" &&
		(len(snap.Nodes) == 0 || len(snap.Printers) == 0) {
		seeded := s.seedSnapshot(snap, defaults)
		if err := s.persistLocked(seeded); err != nil {
			s.logger.Error("persisting seeded snapshot failed", "error", err)
		}
		return seeded.DeepCopy()
	}

	return snap.DeepCopy()
}

// RegisterPrinter adds a printer to the registry.
//
// Name and base URL must be non-blank after trimming. If NodeID resolves to
// an existing node the printer is attached there; otherwise a non-blank
// NodeName is required and a new node is created from it. A fresh unique id
// is allocated for the printer (and node, when created), and any stale state
// entry colliding with the new printer id is removed.
//
// Parameters:
//   - in: Registration fields
//
// Returns:
//   - *Snapshot: The updated snapshot on success
//   - error: Validation error (ErrInvalidName, ErrInvalidBaseURL,
//     ErrInvalidNodeName) or a persistence error
func (s *Store) RegisterPrinter(in RegisterPrinterInput) (*Snapshot, error) {
	name := strings.TrimSpace(in.Name)
	baseURL := strings.TrimSpace(in.BaseURL)
	if name == "" {
		return nil, ErrInvalidName
	}
	if baseURL == "" {
		return nil, ErrInvalidBaseURL
	}

	return s.mutate(func(snap *Snapshot) error {
		nodeID := strings.TrimSpace(in.NodeID)
		if nodeID == "" || snap.NodeByID(nodeID) == nil {
			nodeName := strings.TrimSpace(in.NodeName)
			if nodeName == "" {
				return ErrInvalidNodeName
			}
			node := Node{
				ID:        GenerateID(),
				Name:      nodeName,
				CreatedAt: s.now().UnixMilli(),
			}
			snap.Nodes = append(snap.Nodes, node)
			nodeID = node.ID
		}

		printer := Printer{
			ID:        GenerateID(),
			Name:      name,
			BaseURL:   baseURL,
			NodeID:    nodeID,
			CreatedAt: s.now().UnixMilli(),
		}
		snap.Printers = append(snap.Printers, printer)

		// A freshly allocated id must not inherit a leftover state entry.
		delete(snap.States, printer.ID)

		s.logger.Info("printer registered", "id", printer.ID, "name", printer.Name, "node_id", nodeID)
		return nil
	})
}

// RemovePrinter deletes a printer and its state entry. The owning node is
// left intact.
//
// Parameters:
//   - printerID: Id of the printer to remove
//
// Returns:
//   - *Snapshot: The updated snapshot on success
//   - error: ErrPrinterNotFound if no printer has that id, or a persistence error
func (s *Store) RemovePrinter(printerID string) (*Snapshot, error) {
	return s.mutate(func(snap *Snapshot) error {
		if snap.PrinterByID(printerID) == nil {
			return ErrPrinterNotFound
		}

		printers := snap.Printers[:0]
		for _, p := range snap.Printers {
			if p.ID != printerID {
				printers = append(printers, p)
			}
		}
		snap.Printers = printers
		delete(snap.States, printerID)

		s.logger.Info("printer removed", "id", printerID)
		return nil
	})
}

// RemoveNode deletes a node and cascades: all printers referencing it are
// removed, and state entries for the now-orphaned printers are pruned.
//
// Parameters:
//   - nodeID: Id of the node to remove
//
// Returns:
//   - *Snapshot: The updated snapshot on success
//   - error: ErrNodeNotFound if no node has that id, or a persistence error
func (s *Store) RemoveNode(nodeID string) (*Snapshot, error) {
	return s.mutate(func(snap *Snapshot) error {
		if snap.NodeByID(nodeID) == nil {
			return ErrNodeNotFound
		}

		nodes := snap.Nodes[:0]
		for _, n := range snap.Nodes {
			if n.ID != nodeID {
				nodes = append(nodes, n)
			}
		}
		snap.Nodes = nodes

		printers := snap.Printers[:0]
		for _, p := range snap.Printers {
			if p.NodeID == nodeID {
				delete(snap.States, p.ID)
				continue
			}
			printers = append(printers, p)
		}
		snap.Printers = printers

		s.logger.Info("node removed", "id", nodeID)
		return nil
	})
}

// UpsertPrinterStates merges derived display states into the snapshot.
//
// Entries whose printer id exists and whose value passes validation are
// merged; the rest are silently ignored. This is a best-effort telemetry
// sync, not a critical write, so there is no partial-failure signal.
//
// Parameters:
//   - states: Map of printer id to derived display state
//
// Returns:
//   - *Snapshot: The updated snapshot on success
//   - error: Persistence error only
func (s *Store) UpsertPrinterStates(states map[string]StoredPrinterState) (*Snapshot, error) {
	return s.mutate(func(snap *Snapshot) error {
		accepted := 0
		for id, st := range states {
			if snap.PrinterByID(id) == nil {
				continue
			}
			if err := ValidateState(st); err != nil {
				continue
			}
			snap.States[id] = st.DeepCopy()
			accepted++
		}
		s.logger.Debug("printer states merged", "offered", len(states), "accepted", accepted)
		return nil
	})
}

// mutate runs the shared mutation protocol: read-current, apply the mutator,
// re-sanitize, stamp updatedAt, persist, refresh the cache.
func (s *Store) mutate(apply func(*Snapshot) error) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.loadLocked().DeepCopy()
	if err := apply(snap); err != nil {
		return nil, err
	}

	Sanitize(snap)
	snap.UpdatedAt = s.now().UnixMilli()

	if err := s.persistLocked(snap); err != nil {
		return nil, err
	}

	return snap.DeepCopy(), nil
}

// loadLocked returns the current snapshot, serving from cache when fresh.
// Callers must hold s.mu. The returned value is the cached instance; copy
// before handing it out.
func (s *Store) loadLocked() *Snapshot {
	s.cacheMu.RLock()
	cached, cachedAt := s.cached, s.cachedAt
	s.cacheMu.RUnlock()

	if cached != nil && s.now().Sub(cachedAt) < s.ttl {
		return cached
	}

	snap := s.readFile()
	Sanitize(snap)

	s.cacheMu.Lock()
	s.cached = snap
	s.cachedAt = s.now()
	s.cacheMu.Unlock()

	return snap
}

// readFile reads and parses the snapshot file. A missing file is treated
// identically to an empty snapshot; any other failure is logged and also
// degrades to an empty snapshot.
func (s *Store) readFile() *Snapshot {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("reading snapshot file failed", "path", s.path, "error", err)
		}
		return EmptySnapshot()
	}

	snap := EmptySnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		s.logger.Error("parsing snapshot file failed", "path", s.path, "error", err)
		return EmptySnapshot()
	}
	return snap
}

// persistLocked rewrites the whole snapshot file and refreshes the cache.
// The write goes through a temp file and rename so a crash mid-write never
// leaves a truncated snapshot behind. Callers must hold s.mu.
func (s *Store) persistLocked(snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding: %w", ErrPersist, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("%w: creating directory: %w", ErrPersist, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, filePermissions); err != nil {
		return fmt.Errorf("%w: writing temp file: %w", ErrPersist, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: replacing snapshot file: %w", ErrPersist, err)
	}

	s.cacheMu.Lock()
	s.cached = snap.DeepCopy()
	s.cachedAt = s.now()
	s.cacheMu.Unlock()

	return nil
}

// seedSnapshot adds the default printer to the given snapshot, creating the
// default node only when no node survived sanitization. Surviving nodes are
// kept, and the seeded printer attaches to the first of them.
func (s *Store) seedSnapshot(snap *Snapshot, defaults *Defaults) *Snapshot {
	printerName := strings.TrimSpace(defaults.PrinterName)
	if printerName == "" {
		printerName = DefaultPrinterName
	}

	now := s.now().UnixMilli()
	seeded := snap.DeepCopy()

	var nodeID, nodeName string
	if len(seeded.Nodes) > 0 {
		nodeID = seeded.Nodes[0].ID
		nodeName = seeded.Nodes[0].Name
	} else {
		node := Node{
			ID:        GenerateID(),
			Name:      DefaultNodeName,
			CreatedAt: now,
		}
		seeded.Nodes = append(seeded.Nodes, node)
		nodeID = node.ID
		nodeName = node.Name
	}

	printer := Printer{
		ID:        GenerateID(),
		Name:      printerName,
		BaseURL:   strings.TrimSpace(defaults.BaseURL),
		NodeID:    nodeID,
		CreatedAt: now,
	}
	seeded.Printers = append(seeded.Printers, printer)
	seeded.UpdatedAt = now

	s.logger.Info("registry seeded", "node", nodeName, "printer", printer.Name, "base_url", printer.BaseURL)
	return seeded
}
