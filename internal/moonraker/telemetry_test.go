package moonraker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const overviewBody = `{
	"result": {
		"status": {
			"heater_bed": {"temperature": 60.2, "target": "60"},
			"extruder": {"temperature": 215.7, "target": 215},
			"gcode_move": {"speed": 1500},
			"print_stats": {"state": "printing", "print_duration": 120.5, "total_duration": 130.1},
			"display_status": {"progress": 0.42, "message": "layer 12"}
		}
	}
}`

func newOverviewServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/printer/objects/query" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(body))
	}))
}

func TestFetchOverview(t *testing.T) {
	srv := newOverviewServer(t, overviewBody)
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ov, err := c.FetchOverview(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchOverview() error = %v", err)
	}

	if ov.Bed.Temperature == nil || *ov.Bed.Temperature != 60.2 {
		t.Errorf("bed temperature = %v, want 60.2", ov.Bed.Temperature)
	}
	// Numeric-as-string coercion.
	if ov.Bed.Target == nil || *ov.Bed.Target != 60 {
		t.Errorf("bed target = %v, want 60 (from string)", ov.Bed.Target)
	}
	if ov.Hotend.Temperature == nil || *ov.Hotend.Temperature != 215.7 {
		t.Errorf("hotend temperature = %v, want 215.7", ov.Hotend.Temperature)
	}
	if ov.Motion.Speed == nil || *ov.Motion.Speed != 1500 {
		t.Errorf("motion speed = %v, want 1500", ov.Motion.Speed)
	}
	if ov.Print.State != "printing" {
		t.Errorf("print state = %q, want printing", ov.Print.State)
	}
	if ov.Print.Message != "layer 12" {
		t.Errorf("print message = %q, want 'layer 12'", ov.Print.Message)
	}
	// Fractional progress scaled to percent.
	if ov.Print.Progress == nil || *ov.Print.Progress != 42 {
		t.Errorf("progress = %v, want 42", ov.Print.Progress)
	}
	if ov.Print.ElapsedSeconds == nil || *ov.Print.ElapsedSeconds != 120.5 {
		t.Errorf("elapsed = %v, want 120.5", ov.Print.ElapsedSeconds)
	}
}

func TestFetchOverview_MissingObjects(t *testing.T) {
	srv := newOverviewServer(t, `{"result":{"status":{}}}`)
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ov, err := c.FetchOverview(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchOverview() error = %v", err)
	}

	if ov.Bed.Temperature != nil || ov.Print.Progress != nil {
		t.Error("missing upstream objects must yield nil fields, not zero values")
	}
	if ov.Print.State != "" {
		t.Errorf("print state = %q, want empty", ov.Print.State)
	}
}

func TestFetchOverview_RejectsNonFinite(t *testing.T) {
	srv := newOverviewServer(t, `{
		"result": {"status": {
			"heater_bed": {"temperature": "NaN", "target": "not a number"}
		}}
	}`)
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ov, err := c.FetchOverview(context.Background(), "")
	if err != nil {
		t.Fatalf("FetchOverview() error = %v", err)
	}
	if ov.Bed.Temperature != nil || ov.Bed.Target != nil {
		t.Error("non-finite and non-numeric values must yield nil")
	}
}

func TestNormalizeProgress(t *testing.T) {
	tests := []struct {
		raw  float64
		want float64
	}{
		{0, 0},
		{0.42, 42},
		{1, 100},
		{57, 57},
		{100, 100},
		{142, 100},
		{-5, 0},
		{-0.1, 0},
	}

	for _, tt := range tests {
		if got := NormalizeProgress(tt.raw); got != tt.want {
			t.Errorf("NormalizeProgress(%v) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
