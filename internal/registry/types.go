package registry

// StateVariant is the coarse print-job state shown on the dashboard.
type StateVariant string

// All recognised state variants.
const (
	VariantPrinting StateVariant = "printing"
	VariantIdle     StateVariant = "idle"
	VariantPaused   StateVariant = "paused"
	VariantComplete StateVariant = "complete"
	VariantError    StateVariant = "error"
	VariantUnknown  StateVariant = "unknown"
)

// AllVariants returns every recognised state variant.
func AllVariants() []StateVariant {
	return []StateVariant{
		VariantPrinting,
		VariantIdle,
		VariantPaused,
		VariantComplete,
		VariantError,
		VariantUnknown,
	}
}

// Valid reports whether the variant is one of the recognised values.
func (v StateVariant) Valid() bool {
	switch v {
	case VariantPrinting, VariantIdle, VariantPaused, VariantComplete, VariantError, VariantUnknown:
		return true
	default:
		return false
	}
}

// Node is a logical grouping of printers, typically a physical location
// or controller host.
type Node struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// CreatedAt is the creation timestamp in epoch milliseconds.
	CreatedAt int64 `json:"createdAt"`
}

// Printer is a registered controller endpoint.
type Printer struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// BaseURL is the printer's Moonraker origin (http/https).
	BaseURL string `json:"baseUrl"`

	// NodeID references the owning Node within the same snapshot.
	NodeID string `json:"nodeId"`

	// CreatedAt is the registration timestamp in epoch milliseconds.
	CreatedAt int64 `json:"createdAt"`
}

// StoredPrinterState is the last-known derived display state for a printer,
// persisted so other dashboard sessions see it without polling the device.
type StoredPrinterState struct {
	// Label is the human-readable state text (e.g. "Printing layer 12").
	Label string `json:"label"`

	// Variant is the coarse categorisation of Label.
	Variant StateVariant `json:"variant"`

	// Progress is the job progress in percent (0-100), or nil if unknown.
	Progress *float64 `json:"progress"`

	// Error holds the last poll failure reason, or nil after a success.
	Error *string `json:"error"`

	// UpdatedAt is the epoch-millisecond timestamp of the last successful
	// poll, or nil if the printer has never been reached.
	UpdatedAt *int64 `json:"updatedAt"`

	// Message is the upstream display message, or nil when absent.
	Message *string `json:"message"`
}

// Snapshot is the complete persisted registry.
type Snapshot struct {
	Nodes    []Node    `json:"nodes"`
	Printers []Printer `json:"printers"`

	// States maps printer id to its last-known display state.
	States map[string]StoredPrinterState `json:"states,omitempty"`

	// UpdatedAt is the epoch-millisecond timestamp of the last write.
	UpdatedAt int64 `json:"updatedAt"`
}

// EmptySnapshot returns a snapshot with no nodes, printers, or states.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Nodes:    []Node{},
		Printers: []Printer{},
		States:   map[string]StoredPrinterState{},
	}
}

// NodeByID returns the node with the given id, or nil if absent.
func (s *Snapshot) NodeByID(id string) *Node {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i]
		}
	}
	return nil
}

// PrinterByID returns the printer with the given id, or nil if absent.
func (s *Snapshot) PrinterByID(id string) *Printer {
	for i := range s.Printers {
		if s.Printers[i].ID == id {
			return &s.Printers[i]
		}
	}
	return nil
}

// DeepCopy returns an independent copy of the snapshot.
// Callers can safely modify the copy without affecting the original.
func (s *Snapshot) DeepCopy() *Snapshot {
	if s == nil {
		return nil
	}

	out := &Snapshot{
		Nodes:     make([]Node, len(s.Nodes)),
		Printers:  make([]Printer, len(s.Printers)),
		States:    make(map[string]StoredPrinterState, len(s.States)),
		UpdatedAt: s.UpdatedAt,
	}
	copy(out.Nodes, s.Nodes)
	copy(out.Printers, s.Printers)
	for id, st := range s.States {
		out.States[id] = st.DeepCopy()
	}
	return out
}

// DeepCopy returns an independent copy of the state, including its
// pointer-valued optional fields.
func (st StoredPrinterState) DeepCopy() StoredPrinterState {
	out := st
	if st.Progress != nil {
		v := *st.Progress
		out.Progress = &v
	}
	if st.Error != nil {
		v := *st.Error
		out.Error = &v
	}
	if st.UpdatedAt != nil {
		v := *st.UpdatedAt
		out.UpdatedAt = &v
	}
	if st.Message != nil {
		v := *st.Message
		out.Message = &v
	}
	return out
}
