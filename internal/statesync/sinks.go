package statesync

import (
	"encoding/json"

	"github.com/printdeck/printdeck/internal/moonraker"
	"github.com/printdeck/printdeck/internal/registry"
)

// StatePublisher publishes retained state messages, typically the MQTT
// client. The interface keeps this package free of broker imports.
type StatePublisher interface {
	PublishRetained(topic string, payload []byte) error
}

// MQTTSink mirrors derived printer states onto retained broker topics so
// external consumers see the current state without polling PrintDeck.
type MQTTSink struct {
	pub    StatePublisher
	topic  func(printerID string) string
	logger Logger
}

// NewMQTTSink creates a sink publishing to the topic built by topicFn.
func NewMQTTSink(pub StatePublisher, topicFn func(printerID string) string, logger Logger) *MQTTSink {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTTSink{pub: pub, topic: topicFn, logger: logger}
}

// StateChanged publishes the state as retained JSON. Publish failures are
// logged and dropped; the broker mirror is best-effort.
func (s *MQTTSink) StateChanged(printerID string, state registry.StoredPrinterState) {
	payload, err := json.Marshal(state)
	if err != nil {
		s.logger.Error("encoding state for broker failed", "printer_id", printerID, "error", err)
		return
	}
	if err := s.pub.PublishRetained(s.topic(printerID), payload); err != nil {
		s.logger.Warn("publishing state to broker failed", "printer_id", printerID, "error", err)
	}
}

// MetricsWriter records telemetry points, typically the InfluxDB client.
type MetricsWriter interface {
	WritePrinterMetric(printerID string, measurement string, value float64)
	WriteStateVariant(printerID string, variant string, progress float64)
}

// MetricsSink turns poll results into time-series points.
type MetricsSink struct {
	writer MetricsWriter
}

// NewMetricsSink creates a sink writing to the given metrics backend.
func NewMetricsSink(writer MetricsWriter) *MetricsSink {
	return &MetricsSink{writer: writer}
}

// TelemetryPolled records the numeric overview fields present in the poll.
func (s *MetricsSink) TelemetryPolled(printerID string, overview moonraker.Overview) {
	write := func(measurement string, value *float64) {
		if value != nil {
			s.writer.WritePrinterMetric(printerID, measurement, *value)
		}
	}
	write("bed_temperature", overview.Bed.Temperature)
	write("bed_target", overview.Bed.Target)
	write("hotend_temperature", overview.Hotend.Temperature)
	write("hotend_target", overview.Hotend.Target)
	write("speed", overview.Motion.Speed)
	write("progress", overview.Print.Progress)
}

// StateChanged records the derived variant so dashboards can chart
// time-in-state.
func (s *MetricsSink) StateChanged(printerID string, state registry.StoredPrinterState) {
	progress := -1.0
	if state.Progress != nil {
		progress = *state.Progress
	}
	s.writer.WriteStateVariant(printerID, string(state.Variant), progress)
}
