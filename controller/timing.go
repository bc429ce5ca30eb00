package controller

import (
	"sync/atomic"
	"time"

	"github.com/calvinmclean/pulse"
)

// Timing holds the duty cycle shared by every motor. Workers read it at the start of each
// cycle, so changes apply from the next cycle
type Timing struct {
	on   atomic.Int64
	off  atomic.Int64
	ramp atomic.Int64
}

// NewTiming validates and stores the initial durations
func NewTiming(on, off, ramp time.Duration) (*Timing, error) {
	err := pulse.CheckDuration("on duration", on)
	if err != nil {
		return nil, err
	}
	err = pulse.CheckDuration("off duration", off)
	if err != nil {
		return nil, err
	}
	err = pulse.CheckRamp(ramp)
	if err != nil {
		return nil, err
	}

	t := &Timing{}
	t.on.Store(int64(on))
	t.off.Store(int64(off))
	t.ramp.Store(int64(ramp))
	return t, nil
}

// Get returns a snapshot of all three durations
func (t *Timing) Get() pulse.Timing {
	return pulse.Timing{
		On:   time.Duration(t.on.Load()),
		Off:  time.Duration(t.off.Load()),
		Ramp: time.Duration(t.ramp.Load()),
	}
}

// AdjustOn moves the on duration by delta, clamped to the allowed range, and returns the result
func (t *Timing) AdjustOn(delta time.Duration) time.Duration {
	return adjust(&t.on, delta, pulse.MinDuration, pulse.MaxDuration)
}

// AdjustOff moves the off duration by delta, clamped to the allowed range, and returns the result
func (t *Timing) AdjustOff(delta time.Duration) time.Duration {
	return adjust(&t.off, delta, pulse.MinDuration, pulse.MaxDuration)
}

// AdjustRamp moves the ramp-up duration by delta, clamped to the allowed range, and returns the result
func (t *Timing) AdjustRamp(delta time.Duration) time.Duration {
	return adjust(&t.ramp, delta, pulse.MinRamp, pulse.MaxRamp)
}

// SetRamp sets the ramp-up duration
func (t *Timing) SetRamp(d time.Duration) error {
	err := pulse.CheckRamp(d)
	if err != nil {
		return err
	}
	t.ramp.Store(int64(d))
	return nil
}

func adjust(v *atomic.Int64, delta, lower, upper time.Duration) time.Duration {
	for {
		old := v.Load()
		next := min(max(time.Duration(old)+delta, lower), upper)
		if v.CompareAndSwap(old, int64(next)) {
			return next
		}
	}
}
