package controller

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config has the settings for the board and the initial motor and duty cycle values
type Config struct {
	// PinMapFile is a YAML pin map. The PULSE board wiring is used when it is empty
	PinMapFile string `env:"PULSE_PIN_MAP"`
	// Simulated uses in-memory pins instead of the host's GPIO
	Simulated bool `env:"PULSE_SIMULATED" envDefault:"false"`

	// SerialPort runs the command console on a serial port in addition to the front end
	SerialPort string `env:"PULSE_SERIAL_PORT"`
	BaudRate   int    `env:"PULSE_BAUD_RATE" envDefault:"115200"`

	Speed        int           `env:"PULSE_SPEED" envDefault:"100"`
	OnDuration   time.Duration `env:"PULSE_ON_DURATION" envDefault:"500ms"`
	OffDuration  time.Duration `env:"PULSE_OFF_DURATION" envDefault:"500ms"`
	RampDuration time.Duration `env:"PULSE_RAMP_DURATION" envDefault:"300ms"`

	Logger *log.Logger
}

// DefaultConfig returns the settings used when no environment variables are set
func DefaultConfig() Config {
	return Config{
		BaudRate:     115200,
		Speed:        100,
		OnDuration:   500 * time.Millisecond,
		OffDuration:  500 * time.Millisecond,
		RampDuration: 300 * time.Millisecond,
	}
}

// ConfigFromEnv parses the Config from environment variables
func ConfigFromEnv() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("error parsing environment: %w", err)
	}
	return cfg, nil
}
