package moonraker

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDispatch_ActionMapping(t *testing.T) {
	value := 60.0
	tests := []struct {
		name       string
		req        ControlRequest
		wantPath   string
		wantScript string
	}{
		{"pause", ControlRequest{Action: ActionPause}, "/printer/print/pause", ""},
		{"home xy", ControlRequest{Action: ActionHomeXY}, "/printer/gcode/script", "G28 X Y"},
		{"home xyz", ControlRequest{Action: ActionHomeXYZ}, "/printer/gcode/script", "G28"},
		{"bed mesh", ControlRequest{Action: ActionBedMeshCalibrate}, "/printer/gcode/script", "BED_MESH_CALIBRATE"},
		{"screws tilt", ControlRequest{Action: ActionScrewsTiltCalibrate}, "/printer/gcode/script", "SCREWS_TILT_CALCULATE"},
		{"bed temperature", ControlRequest{Action: ActionSetBedTemperature, Value: &value}, "/printer/gcode/script", "M140 S60"},
		{"hotend temperature", ControlRequest{Action: ActionSetHotendTemp, Value: &value}, "/printer/gcode/script", "M104 S60"},
		{"arbitrary script", ControlRequest{Action: ActionRunScript, Script: "SET_LED LED=case RED=1"}, "/printer/gcode/script", "SET_LED LED=case RED=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotScript, gotMethod string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotMethod = r.Method
				gotPath = r.URL.Path
				gotScript = r.URL.Query().Get("script")
				_, _ = w.Write([]byte(`{"result":"ok"}`))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, time.Second)
			result, err := c.Dispatch(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}

			if gotMethod != http.MethodPost {
				t.Errorf("method = %s, want POST", gotMethod)
			}
			if gotPath != tt.wantPath {
				t.Errorf("path = %s, want %s", gotPath, tt.wantPath)
			}
			if gotScript != tt.wantScript {
				t.Errorf("script = %q, want %q", gotScript, tt.wantScript)
			}
			if result.Status != "ok" {
				t.Errorf("status = %q, want ok", result.Status)
			}
			if result.Message == "" {
				t.Error("result must carry a confirmation message")
			}
		})
	}
}

func TestDispatch_Validation(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)
	tests := []struct {
		name    string
		req     ControlRequest
		wantErr error
	}{
		{"unknown action", ControlRequest{Action: "self-destruct"}, ErrUnsupportedAction},
		{"missing value", ControlRequest{Action: ActionSetBedTemperature}, ErrInvalidValue},
		{"nan value", ControlRequest{Action: ActionSetBedTemperature, Value: &nan}, ErrInvalidValue},
		{"infinite value", ControlRequest{Action: ActionSetHotendTemp, Value: &inf}, ErrInvalidValue},
		{"blank script", ControlRequest{Action: ActionRunScript, Script: "   "}, ErrBlankScript},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))
			defer srv.Close()

			c := NewClient(srv.URL, time.Second)
			_, err := c.Dispatch(context.Background(), tt.req)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if called {
				t.Error("validation failures must not reach the upstream")
			}
		})
	}
}

func TestDispatch_FractionalTemperature(t *testing.T) {
	var gotScript string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotScript = r.URL.Query().Get("script")
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}))
	defer srv.Close()

	value := 60.5
	c := NewClient(srv.URL, time.Second)
	if _, err := c.Dispatch(context.Background(), ControlRequest{Action: ActionSetBedTemperature, Value: &value}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if gotScript != "M140 S60.5" {
		t.Errorf("script = %q, want M140 S60.5", gotScript)
	}
}
