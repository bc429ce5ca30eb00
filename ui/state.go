package ui

import "image/color"

type state int

const (
	stateIdle state = iota
	stateRunning
)

func stateOf(running bool) state {
	if running {
		return stateRunning
	}
	return stateIdle
}

func (s state) String() string {
	switch s {
	case stateRunning:
		return "Running"
	default:
		return "Idle"
	}
}

func (s state) color() color.Color {
	switch s {
	case stateRunning:
		return color.RGBA{R: 0, G: 200, B: 0, A: 255}
	default:
		return color.RGBA{R: 200, G: 200, B: 200, A: 255}
	}
}
