package monitor

import (
	"errors"
	"testing"

	"go.uber.org/multierr"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	c := Config{FailuresBeforeReset: 0, HeartbeatInterval: 0, MaxResetsPerOutage: -1}
	err := c.Validate()
	if err == nil {
		t.Fatal("want error")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
	// four durations plus three counters
	if n := len(multierr.Errors(err)); n != 7 {
		t.Fatalf("want 7 violations, got %d: %v", n, err)
	}
}
