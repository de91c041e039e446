package auth

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// TimingConfig configures the failure-path delay.
type TimingConfig struct {
	BaseDelayMs   int // Fixed delay applied to every failed attempt
	RandomDelayMs int // Additional random jitter range
}

// TimingDelay pads failed authentication attempts with a fixed-plus-jitter
// delay so the different failure paths are not distinguishable by response
// time. Successful attempts are never delayed.
type TimingDelay struct {
	config TimingConfig
}

// NewTimingDelay creates a TimingDelay.
func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{config: config}
}

// cryptoRandIntn returns a random int in [0, max) from crypto/rand.
func cryptoRandIntn(max int) int {
	if max <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return int(binary.BigEndian.Uint64(buf[:]) % uint64(max))
}

// WaitOnFailure sleeps for the configured base delay plus jitter.
func (td *TimingDelay) WaitOnFailure() {
	delay := time.Duration(td.config.BaseDelayMs) * time.Millisecond
	if td.config.RandomDelayMs > 0 {
		delay += time.Duration(cryptoRandIntn(td.config.RandomDelayMs)) * time.Millisecond
	}
	time.Sleep(delay)
}
