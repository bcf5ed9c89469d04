package registry

// Sanitize enforces the snapshot invariants by dropping violating entries
// rather than failing the whole read or write.
//
// It removes, in order:
//   - nodes with a blank id or name, or a duplicate id (first occurrence wins)
//   - printers with a blank id/name/baseUrl, a duplicate id, or a nodeId
//     that does not resolve to a surviving node
//   - state entries keyed by an unknown printer id or carrying an invalid
//     payload
//
// Parameters:
//   - s: Snapshot to sanitize in place (nil is a no-op)
func Sanitize(s *Snapshot) {
	if s == nil {
		return
	}

	nodeIDs := make(map[string]struct{}, len(s.Nodes))
	nodes := s.Nodes[:0]
	for _, n := range s.Nodes {
		if !validNode(n) {
			continue
		}
		if _, dup := nodeIDs[n.ID]; dup {
			continue
		}
		nodeIDs[n.ID] = struct{}{}
		nodes = append(nodes, n)
	}
	s.Nodes = nodes

	printerIDs := make(map[string]struct{}, len(s.Printers))
	printers := s.Printers[:0]
	for _, p := range s.Printers {
		if !validPrinter(p) {
			continue
		}
		if _, dup := printerIDs[p.ID]; dup {
			continue
		}
		if _, ok := nodeIDs[p.NodeID]; !ok {
			continue
		}
		printerIDs[p.ID] = struct{}{}
		printers = append(printers, p)
	}
	s.Printers = printers

	if s.States == nil {
		s.States = map[string]StoredPrinterState{}
		return
	}
	for id, st := range s.States {
		if _, ok := printerIDs[id]; !ok {
			delete(s.States, id)
			continue
		}
		if err := ValidateState(st); err != nil {
			delete(s.States, id)
		}
	}
}
