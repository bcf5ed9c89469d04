package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePrinterMetric writes a single printer measurement.
//
// This is the primary method for recording poll telemetry. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - printerID: Registry id of the printer
//   - measurement: The metric name (e.g., "bed_temperature", "progress")
//   - value: The numeric value to record
//
// Example:
//
//	client.WritePrinterMetric("5f1c9a", "hotend_temperature", 215.7)
//	client.WritePrinterMetric("5f1c9a", "progress", 42.0)
func (c *Client) WritePrinterMetric(printerID string, measurement string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"printer_metrics",
		map[string]string{
			"printer_id":  printerID,
			"measurement": measurement,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteStateVariant records the printer's coarse state as a point, tagging
// the variant so dashboards can count time-in-state.
//
// Parameters:
//   - printerID: Registry id of the printer
//   - variant: Derived state variant (printing, idle, paused, ...)
//   - progress: Job progress percent, or negative if unknown
func (c *Client) WriteStateVariant(printerID string, variant string, progress float64) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"active": 1,
	}
	if progress >= 0 {
		fields["progress"] = progress
	}

	point := write.NewPoint(
		"printer_state",
		map[string]string{
			"printer_id": printerID,
			"variant":    variant,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
