package main_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"go.bug.st/serial"
)

// portFromEnv returns the serial port of a running panel. These tests drive real hardware so
// they are skipped unless PULSE_TEST_SERIAL_PORT is set
func portFromEnv(t *testing.T) string {
	t.Helper()
	port := os.Getenv("PULSE_TEST_SERIAL_PORT")
	if port == "" {
		t.Skip("PULSE_TEST_SERIAL_PORT is not set")
	}
	return port
}

func sendSerial(t *testing.T, portName, in string, expectedLen int) string {
	t.Helper()
	mode := &serial.Mode{
		BaudRate: 115200,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		t.Errorf("unexpected error opening serial connection: %v", err)
		return ""
	}
	defer port.Close()

	_, err = port.Write([]byte(in))
	if err != nil {
		t.Errorf("unexpected error writing serial: %v", err)
		return ""
	}
	time.Sleep(100 * time.Millisecond)

	buf := make([]byte, expectedLen)
	total := 0
	port.SetReadTimeout(1 * time.Second)
	deadline := time.Now().Add(5 * time.Second)
	for total < expectedLen && time.Now().Before(deadline) {
		n, err := port.Read(buf[total:])
		if err != nil {
			t.Errorf("unexpected error reading serial: %v", err)
			return ""
		}
		total += n
	}
	return string(buf[:total])
}

func TestSerial(t *testing.T) {
	port := portFromEnv(t)

	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{
			"SetSpeed",
			"V0 50\n",
			"M0 idle forward 50\n",
		},
		{
			"ToggleDirection",
			"D0\nD0\n",
			"M0 idle reverse 50\nM0 idle forward 50\n",
		},
		{
			"StartAndStop",
			"S0\nX0\n",
			"M0 running forward 50\nM0 idle forward 50\n",
		},
		{
			"InvalidMotor",
			"S9\n",
			"error: invalid motor 9: must be between 0 and 5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := sendSerial(t, port, tt.in, len(tt.expected))
			clean := strings.Trim(out, "\x00")
			if clean != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, clean)
			}
		})
	}
}
