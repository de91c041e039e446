package auth

import (
	"testing"
	"time"
)

func TestTimingDelay_WaitOnFailure(t *testing.T) {
	td := NewTimingDelay(TimingConfig{BaseDelayMs: 20, RandomDelayMs: 10})

	start := time.Now()
	td.WaitOnFailure()
	elapsed := time.Since(start)

	if elapsed < 20*time.Millisecond {
		t.Errorf("expected at least 20ms delay, got %v", elapsed)
	}
	if elapsed > 200*time.Millisecond {
		t.Errorf("delay unexpectedly long: %v", elapsed)
	}
}

func TestTimingDelay_ZeroConfig(t *testing.T) {
	td := NewTimingDelay(TimingConfig{})

	start := time.Now()
	td.WaitOnFailure()
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("zero config should not delay, got %v", elapsed)
	}
}

func TestCryptoRandIntn_Bounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		v := cryptoRandIntn(10)
		if v < 0 || v >= 10 {
			t.Fatalf("value %d out of [0,10)", v)
		}
	}
	if cryptoRandIntn(0) != 0 {
		t.Error("expected 0 for non-positive max")
	}
}
