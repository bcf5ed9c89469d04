package api

import (
	"encoding/json"
	"net/http"

	"github.com/printdeck/printdeck/internal/registry"
)

// Registry mutation actions.
const (
	actionAddPrinter    = "add-printer"
	actionRemovePrinter = "remove-printer"
	actionRemoveNode    = "remove-node"
	actionSyncStates    = "sync-states"
)

// registryMutation is the request body of POST /registry. Action selects
// which of the remaining fields are read.
type registryMutation struct {
	Action    string                                 `json:"action"`
	Name      string                                 `json:"name"`
	BaseURL   string                                 `json:"baseUrl"`
	NodeID    string                                 `json:"nodeId"`
	NodeName  string                                 `json:"nodeName"`
	PrinterID string                                 `json:"printerId"`
	States    map[string]registry.StoredPrinterState `json:"states"`
}

// handleGetRegistry returns the current snapshot. The optional baseUrl and
// printerName query parameters are only used to seed a default node and
// printer when the registry is empty.
func (s *Server) handleGetRegistry(w http.ResponseWriter, r *http.Request) {
	var defaults *registry.Defaults
	if baseURL := r.URL.Query().Get("baseUrl"); baseURL != "" {
		defaults = &registry.Defaults{
			BaseURL:     baseURL,
			PrinterName: r.URL.Query().Get("printerName"),
		}
	}

	snap := s.store.GetSnapshot(defaults)
	writeOK(w, map[string]any{"snapshot": snap})
}

// handlePostRegistry dispatches a registry mutation. Every successful
// mutation returns the full resulting snapshot, broadcasts it to WebSocket
// subscribers, and requests an immediate poll sweep.
func (s *Server) handlePostRegistry(w http.ResponseWriter, r *http.Request) {
	var req registryMutation
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var (
		snap    *registry.Snapshot
		err     error
		removed []string
	)
	switch req.Action {
	case actionAddPrinter:
		snap, err = s.store.RegisterPrinter(registry.RegisterPrinterInput{
			Name:     req.Name,
			BaseURL:  req.BaseURL,
			NodeID:   req.NodeID,
			NodeName: req.NodeName,
		})
	case actionRemovePrinter:
		snap, err = s.store.RemovePrinter(req.PrinterID)
		removed = []string{req.PrinterID}
	case actionRemoveNode:
		// Capture the node's printers before the cascade deletes them.
		for _, p := range s.store.GetSnapshot(nil).Printers {
			if p.NodeID == req.NodeID {
				removed = append(removed, p.ID)
			}
		}
		snap, err = s.store.RemoveNode(req.NodeID)
	case actionSyncStates:
		snap, err = s.store.UpsertPrinterStates(req.States)
	default:
		writeFail(w, http.StatusBadRequest, "unsupported action: "+req.Action)
		return
	}
	if err != nil {
		writeFailErr(w, err)
		return
	}

	// A removed id must not inherit the old transition trail if it is
	// ever registered again.
	if s.forgetter != nil {
		for _, id := range removed {
			s.forgetter.Forget(id)
		}
	}

	s.afterRegistryChange(snap)
	writeOK(w, map[string]any{"snapshot": snap})
}

// afterRegistryChange fans a successful mutation out to live consumers:
// dashboard sessions get the new snapshot, the poller sweeps immediately so
// new printers show a real state before the next interval.
func (s *Server) afterRegistryChange(snap *registry.Snapshot) {
	if s.hub != nil {
		s.hub.Broadcast(ChannelRegistryUpdated, map[string]any{"snapshot": snap})
	}
	if s.notifier != nil {
		s.notifier.Notify()
	}
}
