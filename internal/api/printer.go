package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/printdeck/printdeck/internal/moonraker"
)

// The printer endpoints are thin proxies over the Moonraker client. Each
// accepts an optional baseUrl parameter selecting the target printer; blank
// falls back to the configured default origin.

// handleTelemetry returns the normalized telemetry overview for one printer.
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	baseURL, err := s.upstream.ResolveBaseURL(r.URL.Query().Get("baseUrl"))
	if err != nil {
		writeFailErr(w, err)
		return
	}

	overview, err := s.upstream.FetchOverview(r.Context(), baseURL)
	if err != nil {
		writeFailErr(w, err)
		return
	}

	writeOK(w, map[string]any{
		"data":    overview,
		"baseUrl": baseURL,
	})
}

// controlRequest is the request body of POST /printer/control.
type controlRequest struct {
	Action  string   `json:"action"`
	BaseURL string   `json:"baseUrl"`
	Value   *float64 `json:"value"`
	Script  string   `json:"script"`
}

// handleControl dispatches a control action to the printer.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.upstream.Dispatch(r.Context(), moonraker.ControlRequest{
		Action:  req.Action,
		BaseURL: req.BaseURL,
		Value:   req.Value,
		Script:  req.Script,
	})
	if err != nil {
		writeFailErr(w, err)
		return
	}

	fields := map[string]any{"message": result.Message}
	if result.Status != "" {
		fields["status"] = result.Status
	}
	// Dispatch succeeded, so the base URL resolves.
	if upstream, resolveErr := s.upstream.ResolveBaseURL(req.BaseURL); resolveErr == nil {
		fields["upstream"] = upstream
	}
	writeOK(w, fields)
}

// handleConsole returns recent console history for one printer. The count
// parameter is clamped into the supported window; a missing or malformed
// count selects the default.
func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	baseURL, err := s.upstream.ResolveBaseURL(r.URL.Query().Get("baseUrl"))
	if err != nil {
		writeFailErr(w, err)
		return
	}

	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		// A malformed count falls back to the default rather than erroring.
		count, _ = strconv.Atoi(raw)
	}

	entries, err := s.upstream.FetchConsole(r.Context(), baseURL, count)
	if err != nil {
		writeFailErr(w, err)
		return
	}

	writeOK(w, map[string]any{
		"entries": entries,
		"baseUrl": baseURL,
	})
}

// handleMacros returns the printer's user-facing macro names, deduplicated
// and locale-sorted.
func (s *Server) handleMacros(w http.ResponseWriter, r *http.Request) {
	baseURL, err := s.upstream.ResolveBaseURL(r.URL.Query().Get("baseUrl"))
	if err != nil {
		writeFailErr(w, err)
		return
	}

	macros, err := s.upstream.ListMacros(r.Context(), baseURL)
	if err != nil {
		writeFailErr(w, err)
		return
	}

	writeOK(w, map[string]any{
		"baseUrl": baseURL,
		"macros":  macros,
	})
}
