package controller

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/calvinmclean/pulse"
)

func TestTimingAdjust(t *testing.T) {
	tests := []struct {
		name     string
		adjust   func(*Timing, time.Duration) time.Duration
		field    func(*Timing) *atomic.Int64
		start    time.Duration
		delta    time.Duration
		times    int
		expected time.Duration
	}{
		{"OnUp", (*Timing).AdjustOn, onField, 500 * time.Millisecond, pulse.DurationStep, 3, 800 * time.Millisecond},
		{"OnClampedHigh", (*Timing).AdjustOn, onField, 2900 * time.Millisecond, pulse.DurationStep, 5, 3 * time.Second},
		{"OnClampedLow", (*Timing).AdjustOn, onField, 300 * time.Millisecond, -pulse.DurationStep, 5, 100 * time.Millisecond},
		{"OffUp", (*Timing).AdjustOff, offField, 500 * time.Millisecond, pulse.DurationStep, 1, 600 * time.Millisecond},
		{"OffClampedLow", (*Timing).AdjustOff, offField, 100 * time.Millisecond, -pulse.DurationStep, 1, 100 * time.Millisecond},
		{"RampDownToZero", (*Timing).AdjustRamp, rampField, 300 * time.Millisecond, -pulse.DurationStep, 4, 0},
		{"RampClampedHigh", (*Timing).AdjustRamp, rampField, 4900 * time.Millisecond, pulse.DurationStep, 3, 5 * time.Second},
		{"RampClampedLow", (*Timing).AdjustRamp, rampField, 0, -pulse.DurationStep, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timing, err := NewTiming(500*time.Millisecond, 500*time.Millisecond, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.field(timing).Store(int64(tt.start))

			var got time.Duration
			for range tt.times {
				got = tt.adjust(timing, tt.delta)
			}

			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func onField(t *Timing) *atomic.Int64   { return &t.on }
func offField(t *Timing) *atomic.Int64  { return &t.off }
func rampField(t *Timing) *atomic.Int64 { return &t.ramp }

func TestTimingAdjustConcurrent(t *testing.T) {
	timing, err := NewTiming(100*time.Millisecond, 100*time.Millisecond, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			timing.AdjustOn(pulse.DurationStep)
		}()
	}
	wg.Wait()

	if got := timing.Get().On; got != 1100*time.Millisecond {
		t.Errorf("expected 1.1s, got %s", got)
	}
}

func TestNewTimingInvalid(t *testing.T) {
	tests := []struct {
		name          string
		on, off, ramp time.Duration
	}{
		{"On", 0, time.Second, 0},
		{"Off", time.Second, 4 * time.Second, 0},
		{"Ramp", time.Second, time.Second, -time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTiming(tt.on, tt.off, tt.ramp)
			var rangeErr *pulse.InvalidRangeError
			if !errors.As(err, &rangeErr) {
				t.Errorf("expected InvalidRangeError, got %v", err)
			}
		})
	}
}
