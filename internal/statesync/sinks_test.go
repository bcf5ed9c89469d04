package statesync

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/printdeck/printdeck/internal/moonraker"
	"github.com/printdeck/printdeck/internal/registry"
)

type fakePublisher struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) PublishRetained(topic string, payload []byte) error {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return f.err
}

func TestMQTTSink_PublishesRetainedState(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewMQTTSink(pub, func(id string) string { return "printdeck/state/" + id }, nil)

	progress := 42.0
	sink.StateChanged("p1", registry.StoredPrinterState{
		Label:    "Printing",
		Variant:  registry.VariantPrinting,
		Progress: &progress,
	})

	if len(pub.topics) != 1 || pub.topics[0] != "printdeck/state/p1" {
		t.Fatalf("topics = %v", pub.topics)
	}

	var decoded registry.StoredPrinterState
	if err := json.Unmarshal(pub.payloads[0], &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if decoded.Variant != registry.VariantPrinting || *decoded.Progress != 42 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestMQTTSink_PublishFailureIsDropped(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	sink := NewMQTTSink(pub, func(id string) string { return id }, nil)

	// Must not panic or propagate.
	sink.StateChanged("p1", registry.StoredPrinterState{Label: "Ready", Variant: registry.VariantIdle})
}

type fakeMetricsWriter struct {
	metrics  map[string]float64
	variants []string
}

func (f *fakeMetricsWriter) WritePrinterMetric(printerID, measurement string, value float64) {
	if f.metrics == nil {
		f.metrics = map[string]float64{}
	}
	f.metrics[printerID+"/"+measurement] = value
}

func (f *fakeMetricsWriter) WriteStateVariant(printerID, variant string, progress float64) {
	f.variants = append(f.variants, printerID+":"+variant)
}

func TestMetricsSink_WritesPresentFieldsOnly(t *testing.T) {
	w := &fakeMetricsWriter{}
	sink := NewMetricsSink(w)

	bedTemp := 60.2
	progress := 42.0
	ov := moonraker.Overview{}
	ov.Bed.Temperature = &bedTemp
	ov.Print.Progress = &progress

	sink.TelemetryPolled("p1", ov)

	if got := w.metrics["p1/bed_temperature"]; got != 60.2 {
		t.Errorf("bed_temperature = %v, want 60.2", got)
	}
	if got := w.metrics["p1/progress"]; got != 42 {
		t.Errorf("progress = %v, want 42", got)
	}
	if _, ok := w.metrics["p1/hotend_temperature"]; ok {
		t.Error("absent fields must not be written")
	}
}

func TestMetricsSink_RecordsVariant(t *testing.T) {
	w := &fakeMetricsWriter{}
	sink := NewMetricsSink(w)

	sink.StateChanged("p1", registry.StoredPrinterState{Label: "Ready", Variant: registry.VariantIdle})

	if len(w.variants) != 1 || w.variants[0] != "p1:idle" {
		t.Errorf("variants = %v", w.variants)
	}
}
