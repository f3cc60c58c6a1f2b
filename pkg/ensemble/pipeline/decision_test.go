package pipeline

import (
	"strings"
	"testing"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name             string
		aFailed, bFailed bool
		want             Decision
	}{
		{"both healthy", false, false, SynthesizeBoth},
		{"a failed", true, false, RefineB},
		{"b failed", false, true, RefineA},
		{"both failed", true, true, AbortDualFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.aFailed, tt.bFailed); got != tt.want {
				t.Errorf("Decide(%v, %v) = %v, want %v", tt.aFailed, tt.bFailed, got, tt.want)
			}
		})
	}
}

func TestFallbackLog(t *testing.T) {
	cfg := validConfig()

	if log := SynthesizeBoth.FallbackLog(cfg); log != "" {
		t.Errorf("Healthy branch should not log, got %q", log)
	}

	log := RefineB.FallbackLog(cfg)
	if !strings.Contains(log, cfg.BaseA.String()) {
		t.Errorf("RefineB log should name the failed model %s, got %q", cfg.BaseA, log)
	}
	if !strings.Contains(log, cfg.BaseB.String()) {
		t.Errorf("RefineB log should name the surviving model %s, got %q", cfg.BaseB, log)
	}

	log = AbortDualFailure.FallbackLog(cfg)
	if !strings.Contains(log, "no synthesis") {
		t.Errorf("Dual-failure log should state no synthesis happened, got %q", log)
	}
}
