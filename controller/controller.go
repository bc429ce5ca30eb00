package controller

import (
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/calvinmclean/pulse"
)

// Controller controls the PULSE board. It owns every motor and the shared duty cycle and has
// one method per action of the control panel
type Controller struct {
	motors []*Motor
	timing *Timing
	logger *log.Logger

	verbose atomic.Bool
	faults  chan error

	startTime time.Time
}

// New creates a Controller for the motors wired to pins. All motors start idle
func New(cfg Config, pins []MotorPins) (*Controller, error) {
	if len(pins) != pulse.NumMotors {
		return nil, fmt.Errorf("expected pins for %d motors, got %d", pulse.NumMotors, len(pins))
	}

	err := pulse.CheckSpeed(cfg.Speed)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	timing, err := NewTiming(cfg.OnDuration, cfg.OffDuration, cfg.RampDuration)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	c := &Controller{
		timing:    timing,
		logger:    logger,
		faults:    make(chan error, pulse.NumMotors),
		startTime: time.Now(),
	}

	for i, mp := range pins {
		if mp.Step == nil || mp.Direction == nil || mp.Enable == nil {
			return nil, fmt.Errorf("motor %d: %w", i, errMissingPin)
		}

		m, err := newMotor(i, mp, timing, cfg.Speed, logger, &c.verbose, c.faults)
		if err != nil {
			return nil, fmt.Errorf("error creating motor %d: %w", i, err)
		}
		c.motors = append(c.motors, m)
	}

	return c, nil
}

var errMissingPin = errors.New("missing pin")

// NewFromEnv creates a Controller from the environment. See Config for the variables used
func NewFromEnv() (*Controller, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg)
}

// NewFromConfig loads the pin map named by cfg, or the default one, resolves its pins and
// creates a Controller
func NewFromConfig(cfg Config) (*Controller, error) {
	var err error
	pm := DefaultPinMap
	if cfg.PinMapFile != "" {
		pm, err = LoadPinMap(cfg.PinMapFile)
		if err != nil {
			return nil, err
		}
	}

	pins, err := pm.Resolve(cfg.Simulated)
	if err != nil {
		return nil, err
	}

	return New(cfg, pins)
}

// Motor returns motor i
func (c *Controller) Motor(i int) (*Motor, error) {
	err := pulse.CheckMotor(i)
	if err != nil {
		return nil, err
	}
	return c.motors[i], nil
}

// Start starts motor i. Starting a running motor does nothing
func (c *Controller) Start(i int) error {
	m, err := c.Motor(i)
	if err != nil {
		return err
	}
	m.Start()
	return nil
}

// Stop stops motor i and waits for its worker to exit. Stopping an idle motor does nothing
func (c *Controller) Stop(i int) error {
	m, err := c.Motor(i)
	if err != nil {
		return err
	}
	m.Stop()
	return nil
}

// StopAll disables every driver at once and then waits for each worker, so stopping takes
// at most one cycle
func (c *Controller) StopAll() {
	done := make([]chan struct{}, len(c.motors))
	for i, m := range c.motors {
		m.lifecycle.Lock()
		defer m.lifecycle.Unlock()
		done[i] = m.halt()
	}

	for i, m := range c.motors {
		m.wait(done[i])
	}
}

// ToggleDirection flips the direction of motor i
func (c *Controller) ToggleDirection(i int) error {
	m, err := c.Motor(i)
	if err != nil {
		return err
	}

	d := m.ToggleDirection()
	if c.verbose.Load() {
		c.logger.Printf("motor %d: direction %s", i, d)
	}
	return nil
}

// SetSpeed sets the steady-state rate of motor i in steps per second
func (c *Controller) SetSpeed(i, rate int) error {
	m, err := c.Motor(i)
	if err != nil {
		return err
	}
	return m.SetSpeed(rate)
}

// IncreaseOnDuration lengthens the on-phase by one step
func (c *Controller) IncreaseOnDuration() time.Duration {
	return c.timing.AdjustOn(pulse.DurationStep)
}

// DecreaseOnDuration shortens the on-phase by one step
func (c *Controller) DecreaseOnDuration() time.Duration {
	return c.timing.AdjustOn(-pulse.DurationStep)
}

// IncreaseOffDuration lengthens the off-phase by one step
func (c *Controller) IncreaseOffDuration() time.Duration {
	return c.timing.AdjustOff(pulse.DurationStep)
}

// DecreaseOffDuration shortens the off-phase by one step
func (c *Controller) DecreaseOffDuration() time.Duration {
	return c.timing.AdjustOff(-pulse.DurationStep)
}

// IncreaseRampDuration lengthens the ramp-up by one step
func (c *Controller) IncreaseRampDuration() time.Duration {
	return c.timing.AdjustRamp(pulse.DurationStep)
}

// DecreaseRampDuration shortens the ramp-up by one step
func (c *Controller) DecreaseRampDuration() time.Duration {
	return c.timing.AdjustRamp(-pulse.DurationStep)
}

// SetRampDuration sets the ramp-up duration. Zero disables the ramp
func (c *Controller) SetRampDuration(d time.Duration) error {
	return c.timing.SetRamp(d)
}

// Timing returns the current duty cycle
func (c *Controller) Timing() pulse.Timing {
	return c.timing.Get()
}

// Status returns a snapshot of motor i
func (c *Controller) Status(i int) (pulse.MotorStatus, error) {
	m, err := c.Motor(i)
	if err != nil {
		return pulse.MotorStatus{}, err
	}
	return m.Status(), nil
}

// Statuses returns a snapshot of every motor
func (c *Controller) Statuses() []pulse.MotorStatus {
	result := make([]pulse.MotorStatus, 0, len(c.motors))
	for _, m := range c.motors {
		result = append(result, m.Status())
	}
	return result
}

// Verbose enables logging of every duty cycle
func (c *Controller) Verbose() {
	c.verbose.Store(true)
	c.logger.Printf("[%s] verbose mode", c.uptime())
}

// Faults receives pin failures from motor workers. A motor stops after a fault
func (c *Controller) Faults() <-chan error {
	return c.faults
}

// Close stops every motor
func (c *Controller) Close() error {
	c.StopAll()
	return nil
}

// uptime returns how long the controller has been running, for logging
func (c *Controller) uptime() time.Duration {
	return time.Since(c.startTime).Truncate(time.Millisecond)
}
