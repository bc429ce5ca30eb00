package controller

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calvinmclean/pulse"
	"periph.io/x/conn/v3/gpio"
)

// Motor is one stepper motor and its driver pins. It runs at most one worker goroutine which
// repeats the duty cycle until the motor is stopped
type Motor struct {
	index  int
	pins   MotorPins
	timing *Timing
	logger *log.Logger
	faults chan<- error

	speed     atomic.Int32
	direction atomic.Int32
	verbose   *atomic.Bool

	// run is cleared by Stop. The worker checks it once per duty cycle
	run atomic.Bool

	// lifecycle serializes Start and Stop. It is held while Stop waits for the worker
	lifecycle sync.Mutex

	// mtx guards done, which is non-nil while a worker is active. It is never held while
	// waiting for the worker
	mtx  sync.Mutex
	done chan struct{}
}

func newMotor(index int, pins MotorPins, timing *Timing, speed int, logger *log.Logger, verbose *atomic.Bool, faults chan<- error) (*Motor, error) {
	m := &Motor{
		index:   index,
		pins:    pins,
		timing:  timing,
		logger:  logger,
		verbose: verbose,
		faults:  faults,
	}
	m.speed.Store(int32(speed))
	m.direction.Store(int32(pulse.Forward))

	// Idle: step low, enable high so the driver is disabled
	err := m.pins.Step.Out(gpio.Low)
	if err != nil {
		return nil, fmt.Errorf("error setting up step pin: %w", err)
	}
	err = m.pins.Direction.Out(directionLevel(pulse.Forward))
	if err != nil {
		return nil, fmt.Errorf("error setting up direction pin: %w", err)
	}
	err = m.pins.Enable.Out(gpio.High)
	if err != nil {
		return nil, fmt.Errorf("error setting up enable pin: %w", err)
	}

	return m, nil
}

// Index returns the motor's position on the board, 0 to NumMotors-1
func (m *Motor) Index() int {
	return m.index
}

// Speed returns the steady-state rate in steps per second
func (m *Motor) Speed() int {
	return int(m.speed.Load())
}

// Direction returns the selected rotation direction
func (m *Motor) Direction() pulse.Direction {
	return pulse.Direction(m.direction.Load())
}

// Running reports whether a worker is active
func (m *Motor) Running() bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.active()
}

// active reports whether the worker is still running. A worker exits on its own only after
// a fault. mtx must be held
func (m *Motor) active() bool {
	if m.done == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

// Status returns a snapshot of the motor
func (m *Motor) Status() pulse.MotorStatus {
	return pulse.MotorStatus{
		Index:     m.index,
		Running:   m.Running(),
		Direction: m.Direction(),
		Speed:     m.Speed(),
	}
}

// Start enables the driver and spawns the worker. It does nothing if the motor is already
// running
func (m *Motor) Start() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.active() {
		return
	}

	err := m.pins.Direction.Out(directionLevel(m.Direction()))
	if err != nil {
		m.fault(fmt.Errorf("motor %d: error setting direction: %w", m.index, err))
		return
	}
	err = m.pins.Enable.Out(gpio.Low)
	if err != nil {
		m.fault(fmt.Errorf("motor %d: error enabling driver: %w", m.index, err))
		return
	}

	m.run.Store(true)
	done := make(chan struct{})
	m.done = done
	go m.work(done)

	m.logger.Printf("motor %d: started at %d steps/s %s", m.index, m.Speed(), m.Direction())
}

// Stop disables the driver and waits for the worker to finish its current duty cycle. It
// does nothing if the motor is idle
func (m *Motor) Stop() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.wait(m.halt())
}

// halt clears the run flag and disables the driver without waiting. It returns the worker's
// done channel, or nil if there is no worker. lifecycle must be held
func (m *Motor) halt() chan struct{} {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.run.Store(false)
	err := m.pins.Enable.Out(gpio.High)
	if err != nil {
		m.fault(fmt.Errorf("motor %d: error disabling driver: %w", m.index, err))
	}

	return m.done
}

// wait blocks until the worker behind done exits and then marks the motor idle. lifecycle
// must be held
func (m *Motor) wait(done chan struct{}) {
	if done == nil {
		return
	}

	<-done

	m.mtx.Lock()
	m.done = nil
	m.mtx.Unlock()

	m.logger.Printf("motor %d: stopped", m.index)
}

// ToggleDirection flips the direction. The direction pin is only written while running; a
// stopped motor picks up the new direction when it starts
func (m *Motor) ToggleDirection() pulse.Direction {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	d := m.Direction().Toggle()
	m.direction.Store(int32(d))

	if m.active() {
		err := m.pins.Direction.Out(directionLevel(d))
		if err != nil {
			m.fault(fmt.Errorf("motor %d: error setting direction: %w", m.index, err))
		}
	}

	return d
}

// SetSpeed sets the steady-state rate. A running motor is restarted so the new rate applies
func (m *Motor) SetSpeed(rate int) error {
	err := pulse.CheckSpeed(rate)
	if err != nil {
		return err
	}

	m.speed.Store(int32(rate))

	if m.Running() {
		m.Stop()
		m.Start()
	}

	return nil
}

func (m *Motor) work(done chan struct{}) {
	defer close(done)

	for m.run.Load() {
		err := m.cycle()
		if err != nil {
			m.fault(fmt.Errorf("motor %d: %w", m.index, err))
			return
		}
	}
}

// cycle runs one duty cycle with the current speed and timing
func (m *Motor) cycle() error {
	t := m.timing.Get()
	plan, err := NewPlan(m.Speed(), t.On, t.Ramp, t.Off)
	if err != nil {
		return err
	}

	if m.verbose.Load() {
		m.logger.Printf("motor %d: %d pulses over %s, %s", m.index, len(plan.Pulses), plan.Duration(), t)
	}

	for _, p := range plan.Pulses {
		err = m.pins.Step.Out(gpio.High)
		if err != nil {
			return fmt.Errorf("error setting step pin: %w", err)
		}
		time.Sleep(p.High)

		err = m.pins.Step.Out(gpio.Low)
		if err != nil {
			return fmt.Errorf("error clearing step pin: %w", err)
		}
		time.Sleep(p.Low)
	}

	time.Sleep(plan.Off)

	return nil
}

// fault reports a pin failure. Hardware faults are not recoverable, so it is up to the
// receiver of Faults to shut down
func (m *Motor) fault(err error) {
	m.logger.Printf("fault: %v", err)
	select {
	case m.faults <- err:
	default:
	}
}

func directionLevel(d pulse.Direction) gpio.Level {
	if d == pulse.Reverse {
		return gpio.Low
	}
	return gpio.High
}
