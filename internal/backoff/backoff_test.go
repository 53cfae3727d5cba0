package backoff

import (
	"testing"
	"time"
)

func TestDelayGrowsExponentially(t *testing.T) {
	cfg := Config{Initial: 100 * time.Millisecond, Max: time.Minute, Multiplier: 2.0}

	for attempt, want := range []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
	} {
		if got := cfg.Delay(attempt); got != want {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestDelayCappedAtMax(t *testing.T) {
	cfg := Config{Initial: time.Second, Max: 5 * time.Second, Multiplier: 10.0}

	if got := cfg.Delay(3); got != 5*time.Second {
		t.Errorf("Delay(3) = %v, want max cap", got)
	}
	// Huge attempt counts must not overflow into negative durations.
	if got := cfg.Delay(1000); got != 5*time.Second {
		t.Errorf("Delay(1000) = %v, want max cap", got)
	}
}

func TestDelayNegativeAttempt(t *testing.T) {
	cfg := Config{Initial: 100 * time.Millisecond, Max: time.Minute, Multiplier: 2.0}
	if got := cfg.Delay(-3); got != 100*time.Millisecond {
		t.Errorf("Delay(-3) = %v, want initial delay", got)
	}
}

func TestDelayJitterBounds(t *testing.T) {
	cfg := Config{Initial: 100 * time.Millisecond, Max: time.Minute, Multiplier: 2.0, Jitter: 0.5}

	for i := 0; i < 100; i++ {
		got := cfg.Delay(1)
		if got < 200*time.Millisecond || got > 300*time.Millisecond {
			t.Fatalf("Delay(1) = %v, want within [200ms, 300ms]", got)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	if Default.Initial <= 0 || Default.Max <= Default.Initial || Default.Multiplier <= 1 {
		t.Errorf("Default config is not a growing bounded curve: %+v", Default)
	}
}
