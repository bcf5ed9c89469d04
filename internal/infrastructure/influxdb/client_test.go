package influxdb

import (
	"context"
	"errors"
	"testing"

	"github.com/printdeck/printdeck/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1", // nothing listens here
		Token:   "test-token",
		Org:     "printdeck",
		Bucket:  "telemetry",
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("error = %v, want ErrConnectionFailed", err)
	}
}

func TestDisconnectedClient_IsInert(t *testing.T) {
	c := &Client{}

	if c.IsConnected() {
		t.Error("zero-value client must report disconnected")
	}

	// Writes on a disconnected client must be silent no-ops, not panics.
	c.WritePrinterMetric("p1", "bed_temperature", 60.0)
	c.WriteStateVariant("p1", "printing", 42)
	c.WritePoint("custom", nil, map[string]interface{}{"v": 1})
	c.Flush()

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}
