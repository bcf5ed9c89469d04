package moonraker

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Console count bounds. A zero or negative requested count selects the
// default; anything above the maximum is clamped.
const (
	DefaultConsoleCount = 200
	MaxConsoleCount     = 500
)

// millisecondThreshold disambiguates second- from millisecond-resolution
// source timestamps by magnitude. Anything below it is treated as seconds.
const millisecondThreshold = 1e12

// Console entry directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// ConsoleEntry is one normalized G-code console line.
type ConsoleEntry struct {
	// Direction is "outbound" for operator commands, "inbound" for
	// controller responses.
	Direction string `json:"direction"`

	// Command is the dispatched command text for outbound entries, nil
	// for inbound ones.
	Command *string `json:"command"`

	// Message is the raw console text.
	Message string `json:"message"`

	// Status is "error" when the controller flagged the line, else "success".
	Status string `json:"status"`

	// Origin tags where the entry came from upstream.
	Origin string `json:"origin"`

	// Timestamp is the entry time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// gcodeStoreResponse is the wire shape of /server/gcode_store. Entries are
// kept raw because upstreams emit either keyed objects or positional tuples.
type gcodeStoreResponse struct {
	Result struct {
		Store []json.RawMessage `json:"gcode_store"`
	} `json:"result"`
}

// FetchConsole retrieves and normalizes recent console history. Malformed
// individual entries are skipped rather than failing the whole batch.
//
// Parameters:
//   - ctx: context for cancellation
//   - baseURL: caller-supplied origin, or blank for the default
//   - count: requested entry count; clamped to [1, 500], 0 means default
//
// Returns:
//   - []ConsoleEntry: normalized entries in upstream order
//   - error: validation, transport, or upstream error
func (c *Client) FetchConsole(ctx context.Context, baseURL string, count int) ([]ConsoleEntry, error) {
	base, err := c.ResolveBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	query := url.Values{"count": []string{strconv.Itoa(ClampConsoleCount(count))}}

	var resp gcodeStoreResponse
	if err := c.getJSON(ctx, base, "/server/gcode_store", query, &resp); err != nil {
		return nil, err
	}

	entries := make([]ConsoleEntry, 0, len(resp.Result.Store))
	for _, raw := range resp.Result.Store {
		if entry, ok := parseConsoleEntry(raw); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// ClampConsoleCount bounds a requested console count. Zero and negative
// values select the default.
func ClampConsoleCount(count int) int {
	if count <= 0 {
		return DefaultConsoleCount
	}
	if count > MaxConsoleCount {
		return MaxConsoleCount
	}
	return count
}

// keyedConsoleEntry is the object-shaped upstream entry.
type keyedConsoleEntry struct {
	Message string          `json:"message"`
	Time    json.RawMessage `json:"time"`
	Type    string          `json:"type"`
	Source  string          `json:"source"`
}

// parseConsoleEntry normalizes one upstream entry. Upstreams emit either a
// keyed object {message, time, type} or a positional tuple
// [message, time, type]; anything else is dropped.
func parseConsoleEntry(raw json.RawMessage) (ConsoleEntry, bool) {
	var keyed keyedConsoleEntry
	if err := json.Unmarshal(raw, &keyed); err == nil && keyed.Message != "" {
		return buildConsoleEntry(keyed.Message, keyed.Time, keyed.Type, keyed.Source), true
	}

	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil || len(tuple) < 2 {
		return ConsoleEntry{}, false
	}

	var message string
	if err := json.Unmarshal(tuple[0], &message); err != nil || message == "" {
		return ConsoleEntry{}, false
	}
	var entryType string
	if len(tuple) >= 3 {
		_ = json.Unmarshal(tuple[2], &entryType)
	}
	return buildConsoleEntry(message, tuple[1], entryType, ""), true
}

// buildConsoleEntry assembles the normalized entry from extracted parts.
func buildConsoleEntry(message string, rawTime json.RawMessage, entryType, source string) ConsoleEntry {
	entry := ConsoleEntry{
		Direction: DirectionInbound,
		Message:   message,
		Status:    consoleStatus(message),
		Origin:    "gcode_store",
		Timestamp: normalizeTimestamp(rawTime),
	}
	if source != "" {
		entry.Origin = source
	}
	if entryType == "command" {
		entry.Direction = DirectionOutbound
		cmd := message
		entry.Command = &cmd
	}
	return entry
}

// consoleStatus classifies a console line. Klipper prefixes errors with
// "!!" and warnings with "//".
func consoleStatus(message string) string {
	trimmed := strings.TrimSpace(message)
	if strings.HasPrefix(trimmed, "!!") || strings.Contains(strings.ToLower(trimmed), "error") {
		return "error"
	}
	return "success"
}

// normalizeTimestamp coerces a raw time value to epoch milliseconds,
// accepting either second- or millisecond-resolution sources.
func normalizeTimestamp(raw json.RawMessage) int64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		f = parsed
	}
	if f <= 0 {
		return 0
	}
	if f < millisecondThreshold {
		f *= 1000
	}
	return int64(f)
}
