package moonraker

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Control actions accepted by Dispatch.
const (
	ActionPause               = "pause"
	ActionHomeXY              = "home-xy"
	ActionHomeXYZ             = "home-xyz"
	ActionBedMeshCalibrate    = "bed-mesh-calibrate"
	ActionScrewsTiltCalibrate = "screws-tilt-calibrate"
	ActionSetBedTemperature   = "set-bed-temperature"
	ActionSetHotendTemp       = "set-hotend-temperature"
	ActionRunScript           = "run-arbitrary-script"
)

// ControlRequest is one dashboard control intent.
type ControlRequest struct {
	// Action is one of the Action* constants.
	Action string

	// BaseURL optionally overrides the default target origin.
	BaseURL string

	// Value carries the numeric argument for temperature actions.
	Value *float64

	// Script carries the G-code body for ActionRunScript.
	Script string
}

// ControlResult describes a dispatched control action.
type ControlResult struct {
	// Message is a short human-readable confirmation.
	Message string `json:"message"`

	// Status echoes the upstream result string when one was returned.
	Status string `json:"status,omitempty"`
}

// dispatchResponse is the wire shape shared by Moonraker action endpoints.
type dispatchResponse struct {
	Result string `json:"result"`
}

// Dispatch maps an abstract control action onto the corresponding upstream
// call. Numeric actions validate the value is finite, and script actions
// reject blank scripts, before any network call is made.
//
// Returns:
//   - ControlResult: confirmation for the success envelope
//   - error: validation, transport, or upstream error
func (c *Client) Dispatch(ctx context.Context, req ControlRequest) (ControlResult, error) {
	base, err := c.ResolveBaseURL(req.BaseURL)
	if err != nil {
		return ControlResult{}, err
	}

	var (
		path    string
		query   url.Values
		message string
	)

	switch req.Action {
	case ActionPause:
		path = "/printer/print/pause"
		message = "pause requested"

	case ActionHomeXY:
		path, query = gcodeCall("G28 X Y")
		message = "homing X/Y"

	case ActionHomeXYZ:
		path, query = gcodeCall("G28")
		message = "homing all axes"

	case ActionBedMeshCalibrate:
		path, query = gcodeCall("BED_MESH_CALIBRATE")
		message = "bed mesh calibration started"

	case ActionScrewsTiltCalibrate:
		path, query = gcodeCall("SCREWS_TILT_CALCULATE")
		message = "screws tilt calculation started"

	case ActionSetBedTemperature:
		v, err := finiteValue(req.Value)
		if err != nil {
			return ControlResult{}, err
		}
		path, query = gcodeCall("M140 S" + formatTemp(v))
		message = fmt.Sprintf("bed target set to %s", formatTemp(v))

	case ActionSetHotendTemp:
		v, err := finiteValue(req.Value)
		if err != nil {
			return ControlResult{}, err
		}
		path, query = gcodeCall("M104 S" + formatTemp(v))
		message = fmt.Sprintf("hotend target set to %s", formatTemp(v))

	case ActionRunScript:
		script := strings.TrimSpace(req.Script)
		if script == "" {
			return ControlResult{}, ErrBlankScript
		}
		path, query = gcodeCall(script)
		message = "script dispatched"

	default:
		return ControlResult{}, fmt.Errorf("%w: %q", ErrUnsupportedAction, req.Action)
	}

	var resp dispatchResponse
	if err := c.postJSON(ctx, base, path, query, &resp); err != nil {
		return ControlResult{}, err
	}
	return ControlResult{Message: message, Status: resp.Result}, nil
}

// gcodeCall builds the script endpoint call for one G-code line.
func gcodeCall(script string) (string, url.Values) {
	return "/printer/gcode/script", url.Values{"script": []string{script}}
}

// finiteValue validates the numeric argument of a temperature action.
func finiteValue(v *float64) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing", ErrInvalidValue)
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, fmt.Errorf("%w: not finite", ErrInvalidValue)
	}
	return *v, nil
}

// formatTemp renders a temperature without a trailing decimal when whole.
func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
