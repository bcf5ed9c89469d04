package statesync

import (
	"testing"

	"github.com/printdeck/printdeck/internal/registry"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		raw         string
		wantLabel   string
		wantVariant registry.StateVariant
	}{
		{"printing", "printing", registry.VariantPrinting},
		{"Printing layer 12", "Printing layer 12", registry.VariantPrinting},
		{"PRINT RESUMED", "PRINT RESUMED", registry.VariantPrinting},
		{"complete", "complete", registry.VariantComplete},
		{"Job done", "Job done", registry.VariantComplete},
		{"Finished", "Finished", registry.VariantComplete},
		{"paused", "paused", registry.VariantPaused},
		{"standby", "standby", registry.VariantIdle},
		{"idle", "idle", registry.VariantIdle},
		{"Ready", "Ready", registry.VariantIdle},
		{"error", "error", registry.VariantError},
		{"MCU fault", "MCU fault", registry.VariantError},
		{"Halted by operator", "Halted by operator", registry.VariantError},
		// First match wins: "print" is checked before "pause".
		{"print paused", "print paused", registry.VariantPrinting},
		// Unrecognised statuses keep the raw text.
		{"warming up", "warming up", registry.VariantUnknown},
		{"", "Unknown", registry.VariantUnknown},
		{"   ", "Unknown", registry.VariantUnknown},
		{"  Ready  ", "Ready", registry.VariantIdle},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			label, variant := Derive(tt.raw)
			if label != tt.wantLabel {
				t.Errorf("label = %q, want %q", label, tt.wantLabel)
			}
			if variant != tt.wantVariant {
				t.Errorf("variant = %q, want %q", variant, tt.wantVariant)
			}
		})
	}
}
