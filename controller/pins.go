package controller

import (
	"errors"
	"fmt"
	"os"

	"github.com/calvinmclean/pulse"
	"gopkg.in/yaml.v2"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/host/v3"
)

// ErrUnknownPin is returned when a pin name in the pin map is not registered with periph
var ErrUnknownPin = errors.New("unknown pin")

// Pin is an output pin on a motor driver. gpio.PinIO implements it
type Pin interface {
	Name() string
	Out(gpio.Level) error
	Read() gpio.Level
}

// MotorPins holds the three driver pins of one motor
type MotorPins struct {
	Step      Pin
	Direction Pin
	Enable    Pin
}

// PinNames names the driver pins of one motor as understood by gpioreg.ByName, like "27" or "GPIO27"
type PinNames struct {
	Step      string `yaml:"step"`
	Direction string `yaml:"direction"`
	Enable    string `yaml:"enable"`
}

// PinMap assigns driver pins to each motor
type PinMap struct {
	Motors []PinNames `yaml:"motors"`
}

// DefaultPinMap is the BCM wiring of the PULSE board
var DefaultPinMap = PinMap{
	Motors: []PinNames{
		{Step: "27", Direction: "21", Enable: "4"},
		{Step: "26", Direction: "23", Enable: "13"},
		{Step: "12", Direction: "20", Enable: "22"},
		{Step: "24", Direction: "25", Enable: "19"},
		{Step: "16", Direction: "6", Enable: "5"},
		{Step: "17", Direction: "18", Enable: "10"},
	},
}

// LoadPinMap reads a YAML pin map file
func LoadPinMap(filename string) (PinMap, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return PinMap{}, fmt.Errorf("error reading pin map: %w", err)
	}

	return ParsePinMap(data)
}

// ParsePinMap parses a YAML pin map and checks that it has a pin triple for each motor
func ParsePinMap(data []byte) (PinMap, error) {
	var pm PinMap
	err := yaml.Unmarshal(data, &pm)
	if err != nil {
		return PinMap{}, fmt.Errorf("error parsing pin map: %w", err)
	}

	if len(pm.Motors) != pulse.NumMotors {
		return PinMap{}, fmt.Errorf("pin map has %d motors, expected %d", len(pm.Motors), pulse.NumMotors)
	}

	for i, m := range pm.Motors {
		if m.Step == "" || m.Direction == "" || m.Enable == "" {
			return PinMap{}, fmt.Errorf("motor %d is missing a pin", i)
		}
	}

	return pm, nil
}

// Resolve looks up every pin of the map. It initializes the host drivers first unless
// simulated is set, in which case in-memory pins are used instead of hardware
func (pm PinMap) Resolve(simulated bool) ([]MotorPins, error) {
	lookup := simulatedPin
	if !simulated {
		_, err := host.Init()
		if err != nil {
			return nil, fmt.Errorf("error initializing host drivers: %w", err)
		}
		lookup = hostPin
	}

	result := make([]MotorPins, 0, len(pm.Motors))
	for i, names := range pm.Motors {
		var mp MotorPins
		var err error

		mp.Step, err = lookup(names.Step)
		if err != nil {
			return nil, fmt.Errorf("motor %d step: %w", i, err)
		}
		mp.Direction, err = lookup(names.Direction)
		if err != nil {
			return nil, fmt.Errorf("motor %d direction: %w", i, err)
		}
		mp.Enable, err = lookup(names.Enable)
		if err != nil {
			return nil, fmt.Errorf("motor %d enable: %w", i, err)
		}

		result = append(result, mp)
	}

	return result, nil
}

func hostPin(name string) (Pin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPin, name)
	}
	return p, nil
}

func simulatedPin(name string) (Pin, error) {
	return &gpiotest.Pin{N: name, L: gpio.Low}, nil
}
