package ui

import (
	"bufio"
	"context"
	"io"
	"testing"
	"time"

	"github.com/calvinmclean/pulse"
)

func TestPanelWrite(t *testing.T) {
	ui := NewPanelUI(nil)

	// console output arrives in arbitrary chunks
	chunks := []string{
		"M2 running rev",
		"erse 120\nT on=1.0 off=0.5 ",
		"ramp=0.0\nerror: invalid speed 300: must be between 1 and 255\n",
		"M9 running forward 1\nM3 idle forward 7",
	}
	for _, chunk := range chunks {
		n, err := ui.Write([]byte(chunk))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != len(chunk) {
			t.Errorf("expected %d bytes written, got %d", len(chunk), n)
		}
	}

	expected := pulse.MotorStatus{Index: 2, Running: true, Direction: pulse.Reverse, Speed: 120}
	if got := ui.status(2); got != expected {
		t.Errorf("expected %v, got %v", expected, got)
	}

	// the last line is incomplete so it is not applied yet
	if got := ui.status(3); got.Speed != pulse.MinSpeed {
		t.Errorf("expected motor 3 to be unchanged, got %v", got)
	}

	expectedTiming := pulse.Timing{On: time.Second, Off: 500 * time.Millisecond}
	if got := ui.currentTiming(); got != expectedTiming {
		t.Errorf("expected %v, got %v", expectedTiming, got)
	}

	_, err := ui.Write([]byte("\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ui.status(3); got.Speed != 7 {
		t.Errorf("expected motor 3 speed 7, got %v", got)
	}
}

func TestControllerWrapper(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, w := io.Pipe()
	defer w.Close()

	c := newControllerWrapper(ctx, w)

	actions := []struct {
		action   func()
		expected string
	}{
		{func() { c.Start(0) }, "S0"},
		{func() { c.Stop(5) }, "X5"},
		{c.StopAll, "A"},
		{func() { c.ToggleDirection(3) }, "D3"},
		{func() { c.SetSpeed(1, 149.6) }, "V1 150"},
		{func() { c.AdjustOn(+1) }, "O+"},
		{func() { c.AdjustOn(-1) }, "O-"},
		{func() { c.AdjustOff(+1) }, "F+"},
		{func() { c.SetRamp(0.3) }, "R0.3"},
		{func() { c.SetRamp(5) }, "R5.0"},
		{c.Refresh, "P"},
	}

	go func() {
		for _, a := range actions {
			a.action()
		}
	}()

	scanner := bufio.NewScanner(r)
	for _, a := range actions {
		if !scanner.Scan() {
			t.Fatalf("expected line %q, got error: %v", a.expected, scanner.Err())
		}
		if scanner.Text() != a.expected {
			t.Errorf("expected=%q, got=%q", a.expected, scanner.Text())
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in       time.Duration
		expected string
	}{
		{0, "00:00"},
		{59 * time.Second, "00:59"},
		{61 * time.Second, "01:01"},
		{12*time.Minute + 5*time.Second + 900*time.Millisecond, "12:05"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := formatElapsed(tt.in); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestTimerSet(t *testing.T) {
	tm := newTimer()
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tm.Set(true, start)
	tm.Set(true, start.Add(time.Minute))
	if !tm.startTime.Equal(start) {
		t.Errorf("expected running timer to keep start %s, got %s", start, tm.startTime)
	}

	tm.Set(false, start.Add(2*time.Minute))
	if tm.running {
		t.Error("expected timer to be stopped")
	}

	restart := start.Add(3 * time.Minute)
	tm.Set(true, restart)
	if !tm.startTime.Equal(restart) {
		t.Errorf("expected restarted timer to start at %s, got %s", restart, tm.startTime)
	}
}

func TestState(t *testing.T) {
	if stateOf(true).String() != "Running" {
		t.Errorf("unexpected running state: %s", stateOf(true))
	}
	if stateOf(false).String() != "Idle" {
		t.Errorf("unexpected idle state: %s", stateOf(false))
	}
}
