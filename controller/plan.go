package controller

import (
	"time"

	"github.com/calvinmclean/pulse"
)

// Pulse is a single step pulse. The step pin is held high for High and then low for Low
type Pulse struct {
	High time.Duration
	Low  time.Duration
}

// Plan is one full duty cycle of a motor: the step pulses of the on-phase followed by the
// idle off-phase
type Plan struct {
	Pulses []Pulse
	Off    time.Duration
}

// NewPlan calculates the pulses for one duty cycle. The pulse rate starts near zero and
// increases linearly to rate over the first ramp of the cycle, then holds at rate until
// the on duration is used up. A zero ramp starts directly at rate.
//
// Step counts are truncated: on*rate and ramp*rate are never rounded up.
func NewPlan(rate int, on, ramp, off time.Duration) (Plan, error) {
	err := pulse.CheckSpeed(rate)
	if err != nil {
		return Plan{}, err
	}
	err = pulse.CheckDuration("on duration", on)
	if err != nil {
		return Plan{}, err
	}
	err = pulse.CheckDuration("off duration", off)
	if err != nil {
		return Plan{}, err
	}
	err = pulse.CheckRamp(ramp)
	if err != nil {
		return Plan{}, err
	}

	totalSteps := steps(on, rate)
	rampSteps := steps(ramp, rate)

	currentRate := float64(rate)
	increment := 0.0
	if rampSteps > 0 {
		currentRate = 1
		increment = float64(rate-1) / float64(rampSteps)
	}

	pulses := make([]Pulse, totalSteps)
	for i := range pulses {
		if i < rampSteps {
			currentRate += increment
		}
		half := halfPeriod(currentRate)
		pulses[i] = Pulse{High: half, Low: half}
	}

	return Plan{Pulses: pulses, Off: off}, nil
}

// Rate returns the rate, in steps per second, of pulse i
func (p Plan) Rate(i int) float64 {
	period := p.Pulses[i].High + p.Pulses[i].Low
	if period <= 0 {
		return 0
	}
	return float64(time.Second) / float64(period)
}

// Duration returns the length of the whole cycle
func (p Plan) Duration() time.Duration {
	d := p.Off
	for _, pl := range p.Pulses {
		d += pl.High + pl.Low
	}
	return d
}

// steps returns the whole number of steps taken in d at rate steps per second. It uses
// integer nanoseconds so 300ms at 100 steps/s is exactly 30
func steps(d time.Duration, rate int) int {
	return int(int64(d) * int64(rate) / int64(time.Second))
}

// halfPeriod is the length of each of the high and low phases of a pulse at rate
func halfPeriod(rate float64) time.Duration {
	return time.Duration(float64(time.Second) / rate / 2)
}
