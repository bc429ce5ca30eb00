package ui

import (
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

// timer shows how long a motor has been running. It is reset each time the motor starts
type timer struct {
	startTime time.Time
	running   bool
	mtx       *sync.Mutex
	text      *canvas.Text
	stop      chan struct{}
}

func newTimer() *timer {
	return &timer{
		startTime: time.Time{},
		mtx:       &sync.Mutex{},
		text:      canvas.NewText(formatElapsed(0), nil),
		stop:      make(chan struct{}),
	}
}

// Set starts or stops the timer. Starting an already running timer keeps its start time
func (t *timer) Set(running bool, now time.Time) {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if running && !t.running {
		t.startTime = now
	}
	t.running = running
}

func (t *timer) Stop() {
	close(t.stop)
}

func (t *timer) Go() {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
			}
			fyne.Do(func() {
				t.mtx.Lock()
				defer t.mtx.Unlock()
				if !t.running {
					return
				}
				t.text.Text = formatElapsed(time.Since(t.startTime))
				t.text.Refresh()
			})
		}
	}()
}

func formatElapsed(elapsed time.Duration) string {
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
