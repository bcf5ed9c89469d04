package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/printdeck/printdeck/internal/moonraker"
	"github.com/printdeck/printdeck/internal/registry"
)

// Every endpoint answers with one of two envelope shapes:
//
//	{"ok": true, ...payload fields...}
//	{"ok": false, "error": "message"}
//
// The dashboard only ever branches on the ok flag.

// writeOK writes a success envelope, merging the given fields next to ok.
func writeOK(w http.ResponseWriter, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["ok"] = true
	writeJSON(w, http.StatusOK, body)
}

// writeFail writes a failure envelope with the given HTTP status.
func writeFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"ok":    false,
		"error": message,
	})
}

// writeFailErr translates a domain error into a failure envelope, mapping
// the error class onto an HTTP status.
func writeFailErr(w http.ResponseWriter, err error) {
	writeFail(w, failStatus(err), err.Error())
}

// failStatus maps domain errors onto HTTP status codes. Validation errors
// are the caller's fault, upstream and transport failures are relayed as
// gateway errors, everything else is internal.
func failStatus(err error) int {
	switch {
	case moonraker.IsValidationError(err), registry.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, registry.ErrPrinterNotFound), errors.Is(err, registry.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, moonraker.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, moonraker.ErrUnreachable), errors.Is(err, moonraker.ErrMalformedResponse):
		return http.StatusBadGateway
	}

	var upstream *moonraker.UpstreamError
	if errors.As(err, &upstream) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}
