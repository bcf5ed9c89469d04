package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleHistory returns recent state transitions for a printer, newest
// first. The limit parameter is optional; the repository applies its own
// default and ceiling.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeFail(w, http.StatusServiceUnavailable, "state history is not configured")
		return
	}

	printerID := chi.URLParam(r, "id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeFail(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = parsed
	}

	entries, err := s.history.GetHistory(r.Context(), printerID, limit)
	if err != nil {
		writeFailErr(w, err)
		return
	}

	writeOK(w, map[string]any{"entries": entries})
}
