package pulse

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NumMotors is the number of motor drivers wired to the board
const NumMotors = 6

// Ranges accepted by the panel controls and enforced by the controller
const (
	MinSpeed = 1
	MaxSpeed = 255

	MinDuration = 100 * time.Millisecond
	MaxDuration = 3 * time.Second

	MinRamp = 0
	MaxRamp = 5 * time.Second

	// DurationStep is the increment used by the Up/Down controls
	DurationStep = 100 * time.Millisecond
)

// Direction is the rotation direction selected by the direction pin
type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	switch d {
	case Reverse:
		return "reverse"
	default:
		fallthrough
	case Forward:
		return "forward"
	}
}

// Toggle returns the opposite direction
func (d Direction) Toggle() Direction {
	if d == Forward {
		return Reverse
	}
	return Forward
}

// ParseDirection parses the output of Direction.String
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "forward":
		return Forward, nil
	case "reverse":
		return Reverse, nil
	}
	return Forward, fmt.Errorf("invalid direction: %q", s)
}

// InvalidRangeError is returned when a motor index, speed or duration is outside of the
// range the controls allow
type InvalidRangeError struct {
	Name  string
	Value any
	Min   any
	Max   any
}

func (err *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid %s %v: must be between %v and %v", err.Name, err.Value, err.Min, err.Max)
}

// CheckMotor returns an InvalidRangeError if i is not a valid motor index
func CheckMotor(i int) error {
	if i < 0 || i >= NumMotors {
		return &InvalidRangeError{Name: "motor", Value: i, Min: 0, Max: NumMotors - 1}
	}
	return nil
}

// CheckSpeed returns an InvalidRangeError if rate is not a valid speed in steps per second
func CheckSpeed(rate int) error {
	if rate < MinSpeed || rate > MaxSpeed {
		return &InvalidRangeError{Name: "speed", Value: rate, Min: MinSpeed, Max: MaxSpeed}
	}
	return nil
}

// CheckDuration returns an InvalidRangeError if d is not a valid on or off duration
func CheckDuration(name string, d time.Duration) error {
	if d < MinDuration || d > MaxDuration {
		return &InvalidRangeError{Name: name, Value: d, Min: MinDuration, Max: MaxDuration}
	}
	return nil
}

// CheckRamp returns an InvalidRangeError if d is not a valid ramp-up duration
func CheckRamp(d time.Duration) error {
	if d < MinRamp || d > MaxRamp {
		return &InvalidRangeError{Name: "ramp duration", Value: d, Min: time.Duration(MinRamp), Max: MaxRamp}
	}
	return nil
}

// FormatSeconds formats a duration the way the panel displays it, like 0.5
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 1, 64)
}

// ParseSeconds parses a decimal number of seconds like 1.5 and rounds it to the nearest
// DurationStep. Values outside of 0 to MaxRamp, the longest duration any control accepts,
// return an InvalidRangeError
func ParseSeconds(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("invalid seconds %q: %w", s, err)
	}
	if math.IsNaN(f) || f < 0 || f > MaxRamp.Seconds() {
		return 0, &InvalidRangeError{Name: "seconds", Value: f, Min: 0, Max: MaxRamp.Seconds()}
	}
	steps := int64(math.Round(f * float64(time.Second/DurationStep)))
	return time.Duration(steps) * DurationStep, nil
}

// MotorStatus is a snapshot of one motor. Its String form is the status line written by the
// command console, like "M0 running forward 100"
type MotorStatus struct {
	Index     int
	Running   bool
	Direction Direction
	Speed     int
}

func (s MotorStatus) String() string {
	state := "idle"
	if s.Running {
		state = "running"
	}
	return fmt.Sprintf("M%d %s %s %d", s.Index, state, s.Direction, s.Speed)
}

// ParseMotorStatus parses a status line written by MotorStatus.String
func ParseMotorStatus(line string) (MotorStatus, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 || !strings.HasPrefix(fields[0], "M") {
		return MotorStatus{}, fmt.Errorf("invalid motor status: %q", line)
	}

	var s MotorStatus
	var err error
	s.Index, err = strconv.Atoi(fields[0][1:])
	if err != nil {
		return MotorStatus{}, fmt.Errorf("invalid motor index: %w", err)
	}

	switch fields[1] {
	case "running":
		s.Running = true
	case "idle":
	default:
		return MotorStatus{}, fmt.Errorf("invalid motor state: %q", fields[1])
	}

	s.Direction, err = ParseDirection(fields[2])
	if err != nil {
		return MotorStatus{}, err
	}

	s.Speed, err = strconv.Atoi(fields[3])
	if err != nil {
		return MotorStatus{}, fmt.Errorf("invalid motor speed: %w", err)
	}

	return s, nil
}

// Timing is a snapshot of the duty cycle shared by all motors. Its String form is the status
// line written by the command console, like "T on=0.5 off=0.5 ramp=0.3"
type Timing struct {
	On   time.Duration
	Off  time.Duration
	Ramp time.Duration
}

func (t Timing) String() string {
	return fmt.Sprintf("T on=%s off=%s ramp=%s", FormatSeconds(t.On), FormatSeconds(t.Off), FormatSeconds(t.Ramp))
}

// ParseTiming parses a status line written by Timing.String
func ParseTiming(line string) (Timing, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 || fields[0] != "T" {
		return Timing{}, fmt.Errorf("invalid timing status: %q", line)
	}

	var t Timing
	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return Timing{}, fmt.Errorf("invalid timing field: %q", field)
		}

		d, err := ParseSeconds(value)
		if err != nil {
			return Timing{}, err
		}

		switch key {
		case "on":
			t.On = d
		case "off":
			t.Off = d
		case "ramp":
			t.Ramp = d
		default:
			return Timing{}, fmt.Errorf("unknown timing field: %q", key)
		}
	}

	return t, nil
}
