package moonraker

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Overview is the normalized telemetry snapshot shown on a printer card.
// Optional fields are nil when the upstream omits them or reports an
// unparseable value.
type Overview struct {
	Bed    HeaterStatus `json:"bed"`
	Hotend HeaterStatus `json:"hotend"`
	Motion MotionStatus `json:"motion"`
	Print  PrintStatus  `json:"print"`
}

// HeaterStatus is the current and target temperature of one heater.
type HeaterStatus struct {
	Temperature *float64 `json:"temperature"`
	Target      *float64 `json:"target"`
}

// MotionStatus carries the requested movement speed in mm/s.
type MotionStatus struct {
	Speed *float64 `json:"speed"`
}

// PrintStatus describes the active (or last) print job.
type PrintStatus struct {
	State          string   `json:"state"`
	Message        string   `json:"message"`
	Progress       *float64 `json:"progress"`
	ElapsedSeconds *float64 `json:"elapsedSeconds"`
	TotalSeconds   *float64 `json:"totalSeconds"`
}

// objectsQueryResponse is the wire shape of /printer/objects/query. Each
// status object is kept raw so missing objects simply yield empty maps.
type objectsQueryResponse struct {
	Result struct {
		Status map[string]map[string]json.RawMessage `json:"status"`
	} `json:"result"`
}

// FetchOverview pulls the telemetry overview from one batched objects
// query. Fields the upstream omits or reports with a non-numeric value are
// left nil rather than failing the whole fetch.
//
// Parameters:
//   - ctx: context for cancellation
//   - baseURL: caller-supplied origin, or blank for the default
//
// Returns:
//   - Overview: normalized telemetry, progress on the 0-100 scale
//   - error: validation, transport, or upstream error
func (c *Client) FetchOverview(ctx context.Context, baseURL string) (Overview, error) {
	base, err := c.ResolveBaseURL(baseURL)
	if err != nil {
		return Overview{}, err
	}

	query := url.Values{}
	for _, obj := range []string{"heater_bed", "extruder", "gcode_move", "print_stats", "display_status"} {
		query.Set(obj, "")
	}

	var resp objectsQueryResponse
	if err := c.getJSON(ctx, base, "/printer/objects/query", query, &resp); err != nil {
		return Overview{}, err
	}

	status := resp.Result.Status
	bed := status["heater_bed"]
	hotend := status["extruder"]
	move := status["gcode_move"]
	stats := status["print_stats"]
	display := status["display_status"]

	ov := Overview{
		Bed: HeaterStatus{
			Temperature: numberField(bed, "temperature"),
			Target:      numberField(bed, "target"),
		},
		Hotend: HeaterStatus{
			Temperature: numberField(hotend, "temperature"),
			Target:      numberField(hotend, "target"),
		},
		Motion: MotionStatus{
			Speed: numberField(move, "speed"),
		},
		Print: PrintStatus{
			State:          stringField(stats, "state"),
			Message:        stringField(display, "message"),
			ElapsedSeconds: numberField(stats, "print_duration"),
			TotalSeconds:   numberField(stats, "total_duration"),
		},
	}

	if raw := numberField(display, "progress"); raw != nil {
		p := NormalizeProgress(*raw)
		ov.Print.Progress = &p
	}
	return ov, nil
}

// NormalizeProgress maps a raw progress value onto the 0-100 scale. Values
// at or below 1 are treated as fractions; the result is clamped to [0, 100].
func NormalizeProgress(raw float64) float64 {
	if raw <= 1 {
		raw *= 100
	}
	if raw < 0 {
		return 0
	}
	if raw > 100 {
		return 100
	}
	return raw
}

// numberField coerces one named field into a finite float64. Numeric
// strings are accepted; NaN, infinities, and anything else yield nil.
func numberField(obj map[string]json.RawMessage, key string) *float64 {
	raw, ok := obj[key]
	if !ok {
		return nil
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		f = parsed
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// stringField extracts one named field as a string, or "" when absent.
func stringField(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
