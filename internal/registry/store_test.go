package registry

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeClock is a deterministic clock for cache-expiry tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := NewStore(filepath.Join(t.TempDir(), "registry.json"), 5*time.Second)
	store.SetClock(clock.Now)
	return store, clock
}

// registerTestPrinter registers a printer under a fresh node and returns
// the resulting snapshot.
func registerTestPrinter(t *testing.T, store *Store, name, nodeName string) *Snapshot {
	t.Helper()
	snap, err := store.RegisterPrinter(RegisterPrinterInput{
		Name:     name,
		BaseURL:  "http://10.0.0.5:7125",
		NodeName: nodeName,
	})
	if err != nil {
		t.Fatalf("RegisterPrinter() error = %v", err)
	}
	return snap
}

func TestGetSnapshot_MissingFile(t *testing.T) {
	store, _ := newTestStore(t)

	snap := store.GetSnapshot(nil)

	if len(snap.Nodes) != 0 || len(snap.Printers) != 0 {
		t.Errorf("expected empty snapshot, got %d nodes, %d printers", len(snap.Nodes), len(snap.Printers))
	}
}

func TestGetSnapshot_CorruptFile(t *testing.T) {
	store, _ := newTestStore(t)
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0600); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	snap := store.GetSnapshot(nil)

	if len(snap.Nodes) != 0 || len(snap.Printers) != 0 {
		t.Error("corrupt file should degrade to empty snapshot")
	}
}

func TestGetSnapshot_Seeding(t *testing.T) {
	store, _ := newTestStore(t)

	snap := store.GetSnapshot(&Defaults{BaseURL: "http://10.0.0.5", PrinterName: "Voron"})

	if len(snap.Nodes) != 1 {
		t.Fatalf("expected 1 seeded node, got %d", len(snap.Nodes))
	}
	if snap.Nodes[0].Name != DefaultNodeName {
		t.Errorf("node name = %q, want %q", snap.Nodes[0].Name, DefaultNodeName)
	}
	if len(snap.Printers) != 1 {
		t.Fatalf("expected 1 seeded printer, got %d", len(snap.Printers))
	}
	if snap.Printers[0].Name != "Voron" {
		t.Errorf("printer name = %q, want %q", snap.Printers[0].Name, "Voron")
	}
	if snap.Printers[0].BaseURL != "http://10.0.0.5" {
		t.Errorf("printer baseUrl = %q, want %q", snap.Printers[0].BaseURL, "http://10.0.0.5")
	}
	if snap.Printers[0].NodeID != snap.Nodes[0].ID {
		t.Error("seeded printer must reference the seeded node")
	}

	// Seeding persists: the file must now exist on disk.
	if _, err := os.Stat(store.Path()); err != nil {
		t.Errorf("expected seeded snapshot on disk: %v", err)
	}
}

func TestGetSnapshot_SeedingKeepsSurvivingNodes(t *testing.T) {
	store, _ := newTestStore(t)

	// A registry can legitimately hold nodes without printers, for example
	// after its last printer was removed.
	snap := registerTestPrinter(t, store, "Voron", "Taller")
	if _, err := store.RemovePrinter(snap.Printers[0].ID); err != nil {
		t.Fatalf("RemovePrinter() error = %v", err)
	}
	existingNodeID := snap.Nodes[0].ID

	seeded := store.GetSnapshot(&Defaults{BaseURL: "http://10.0.0.9", PrinterName: "Ender"})

	if len(seeded.Nodes) != 1 {
		t.Fatalf("expected the surviving node only, got %d nodes", len(seeded.Nodes))
	}
	if seeded.Nodes[0].ID != existingNodeID || seeded.Nodes[0].Name != "Taller" {
		t.Errorf("node = %+v, want the pre-existing %q node kept", seeded.Nodes[0], "Taller")
	}
	if len(seeded.Printers) != 1 {
		t.Fatalf("expected 1 seeded printer, got %d", len(seeded.Printers))
	}
	if seeded.Printers[0].NodeID != existingNodeID {
		t.Error("seeded printer must attach to the surviving node")
	}
	if seeded.Printers[0].Name != "Ender" {
		t.Errorf("printer name = %q, want %q", seeded.Printers[0].Name, "Ender")
	}
}

func TestGetSnapshot_SeedingDefaultPrinterName(t *testing.T) {
	store, _ := newTestStore(t)

	snap := store.GetSnapshot(&Defaults{BaseURL: "http://10.0.0.5", PrinterName: "   "})

	if snap.Printers[0].Name != DefaultPrinterName {
		t.Errorf("printer name = %q, want fallback %q", snap.Printers[0].Name, DefaultPrinterName)
	}
}

func TestGetSnapshot_NoSeedingWithoutBaseURL(t *testing.T) {
	store, _ := newTestStore(t)

	snap := store.GetSnapshot(&Defaults{PrinterName: "Voron"})

	if len(snap.Nodes) != 0 {
		t.Error("seeding must not run without a base URL")
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("no file should be written without seeding")
	}
}

func TestRegisterPrinter_BlankName(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.RegisterPrinter(RegisterPrinterInput{Name: "  ", BaseURL: "http://x"})

	if !errors.Is(err, ErrInvalidName) {
		t.Errorf("error = %v, want ErrInvalidName", err)
	}
	if _, statErr := os.Stat(store.Path()); !os.IsNotExist(statErr) {
		t.Error("validation failure must not write the snapshot file")
	}
}

func TestRegisterPrinter_BlankBaseURL(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.RegisterPrinter(RegisterPrinterInput{Name: "Voron", BaseURL: ""})

	if !errors.Is(err, ErrInvalidBaseURL) {
		t.Errorf("error = %v, want ErrInvalidBaseURL", err)
	}
}

func TestRegisterPrinter_NewNode(t *testing.T) {
	store, _ := newTestStore(t)

	snap := registerTestPrinter(t, store, "Voron", "Taller")

	if len(snap.Nodes) != 1 || snap.Nodes[0].Name != "Taller" {
		t.Fatalf("expected new node 'Taller', got %+v", snap.Nodes)
	}
	if len(snap.Printers) != 1 || snap.Printers[0].NodeID != snap.Nodes[0].ID {
		t.Errorf("printer must reference the created node")
	}
	if snap.Printers[0].ID == "" {
		t.Error("printer id must be allocated")
	}
}

func TestRegisterPrinter_ExistingNode(t *testing.T) {
	store, _ := newTestStore(t)
	first := registerTestPrinter(t, store, "Voron", "Taller")
	nodeID := first.Nodes[0].ID

	snap, err := store.RegisterPrinter(RegisterPrinterInput{
		Name:    "Ender",
		BaseURL: "http://10.0.0.6",
		NodeID:  nodeID,
	})
	if err != nil {
		t.Fatalf("RegisterPrinter() error = %v", err)
	}

	if len(snap.Nodes) != 1 {
		t.Errorf("expected no new node, got %d nodes", len(snap.Nodes))
	}
	if len(snap.Printers) != 2 {
		t.Errorf("expected 2 printers, got %d", len(snap.Printers))
	}
}

func TestRegisterPrinter_StaleNodeIDWithoutName(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.RegisterPrinter(RegisterPrinterInput{
		Name:    "Voron",
		BaseURL: "http://10.0.0.5",
		NodeID:  "does-not-exist",
	})

	if !errors.Is(err, ErrInvalidNodeName) {
		t.Errorf("error = %v, want ErrInvalidNodeName", err)
	}
}

func TestRemovePrinter(t *testing.T) {
	store, _ := newTestStore(t)
	snap := registerTestPrinter(t, store, "Voron", "Taller")
	printerID := snap.Printers[0].ID

	// Give the printer a state entry so removal must prune it.
	progress := 42.0
	if _, err := store.UpsertPrinterStates(map[string]StoredPrinterState{
		printerID: {Label: "Printing", Variant: VariantPrinting, Progress: &progress},
	}); err != nil {
		t.Fatalf("UpsertPrinterStates() error = %v", err)
	}

	updated, err := store.RemovePrinter(printerID)
	if err != nil {
		t.Fatalf("RemovePrinter() error = %v", err)
	}

	if len(updated.Printers) != 0 {
		t.Errorf("expected 0 printers, got %d", len(updated.Printers))
	}
	if len(updated.Nodes) != 1 {
		t.Error("removing a printer must leave its node intact")
	}
	if _, ok := updated.States[printerID]; ok {
		t.Error("state entry must be pruned with its printer")
	}
}

func TestRemovePrinter_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.RemovePrinter("missing")

	if !errors.Is(err, ErrPrinterNotFound) {
		t.Errorf("error = %v, want ErrPrinterNotFound", err)
	}
}

func TestRemoveNode_Cascades(t *testing.T) {
	store, _ := newTestStore(t)
	snap := registerTestPrinter(t, store, "Voron", "Taller")
	nodeID := snap.Nodes[0].ID
	printerID := snap.Printers[0].ID

	progress := 10.0
	if _, err := store.UpsertPrinterStates(map[string]StoredPrinterState{
		printerID: {Label: "Printing", Variant: VariantPrinting, Progress: &progress},
	}); err != nil {
		t.Fatalf("UpsertPrinterStates() error = %v", err)
	}

	updated, err := store.RemoveNode(nodeID)
	if err != nil {
		t.Fatalf("RemoveNode() error = %v", err)
	}

	if len(updated.Nodes) != 0 {
		t.Errorf("expected 0 nodes, got %d", len(updated.Nodes))
	}
	if len(updated.Printers) != 0 {
		t.Errorf("node removal must cascade to printers, got %d", len(updated.Printers))
	}
	if len(updated.States) != 0 {
		t.Errorf("node removal must prune orphaned states, got %d", len(updated.States))
	}
}

func TestRemoveNode_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.RemoveNode("missing")

	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("error = %v, want ErrNodeNotFound", err)
	}
}

func TestUpsertPrinterStates_IgnoresUnknownAndInvalid(t *testing.T) {
	store, _ := newTestStore(t)
	snap := registerTestPrinter(t, store, "Voron", "Taller")
	printerID := snap.Printers[0].ID

	bad := 150.0
	updated, err := store.UpsertPrinterStates(map[string]StoredPrinterState{
		printerID:  {Label: "Ready", Variant: VariantIdle},
		"unknown":  {Label: "Ready", Variant: VariantIdle},
		printerID + "-invalid": {Label: "", Variant: VariantIdle},
		printerID + "-range":   {Label: "x", Variant: VariantPrinting, Progress: &bad},
	})
	if err != nil {
		t.Fatalf("UpsertPrinterStates() error = %v", err)
	}

	if len(updated.States) != 1 {
		t.Fatalf("expected exactly 1 merged state, got %d", len(updated.States))
	}
	if updated.States[printerID].Variant != VariantIdle {
		t.Errorf("merged variant = %q, want idle", updated.States[printerID].Variant)
	}
}

func TestCacheHit_BeforeExpiry(t *testing.T) {
	store, clock := newTestStore(t)
	registerTestPrinter(t, store, "Voron", "Taller")

	// Remove the backing file: a cache hit must not notice.
	if err := os.Remove(store.Path()); err != nil {
		t.Fatalf("removing snapshot file: %v", err)
	}

	clock.Advance(4 * time.Second)
	snap := store.GetSnapshot(nil)

	if len(snap.Printers) != 1 {
		t.Error("read within TTL must be served from cache without touching disk")
	}
}

func TestCacheExpiry_RereadsDisk(t *testing.T) {
	store, clock := newTestStore(t)
	registerTestPrinter(t, store, "Voron", "Taller")

	if err := os.Remove(store.Path()); err != nil {
		t.Fatalf("removing snapshot file: %v", err)
	}

	clock.Advance(6 * time.Second)
	snap := store.GetSnapshot(nil)

	if len(snap.Printers) != 0 {
		t.Error("read after TTL must re-read the (now missing) file")
	}
}

func TestRoundTrip_AfterExpiry(t *testing.T) {
	store, clock := newTestStore(t)
	written := registerTestPrinter(t, store, "Voron", "Taller")

	clock.Advance(6 * time.Second)
	read := store.GetSnapshot(nil)

	if len(read.Printers) != 1 || read.Printers[0].ID != written.Printers[0].ID {
		t.Errorf("disk round-trip lost the printer: %+v", read.Printers)
	}
	if read.UpdatedAt != written.UpdatedAt {
		t.Errorf("updatedAt = %d, want %d", read.UpdatedAt, written.UpdatedAt)
	}
}

func TestMutation_ReturnsDeepCopy(t *testing.T) {
	store, _ := newTestStore(t)
	snap := registerTestPrinter(t, store, "Voron", "Taller")

	snap.Printers[0].Name = "mutated"

	again := store.GetSnapshot(nil)
	if again.Printers[0].Name != "Voron" {
		t.Error("caller mutation leaked into the store's cache")
	}
}
