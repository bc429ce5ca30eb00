package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/calvinmclean/pulse"
)

// controllerWrapper turns panel actions into console command lines. Lines are queued so a
// slow command, like stopping a motor mid-cycle, does not block the panel
type controllerWrapper struct {
	queue chan string
}

func newControllerWrapper(ctx context.Context, w io.Writer) *controllerWrapper {
	c := &controllerWrapper{queue: make(chan string, 64)}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case line := <-c.queue:
				_, err := io.WriteString(w, line)
				if err != nil {
					fmt.Println("error sending command:", err)
				}
			}
		}
	}()

	return c
}

func (c *controllerWrapper) send(format string, args ...any) {
	c.queue <- fmt.Sprintf(format, args...)
}

func (c *controllerWrapper) Start(i int) {
	c.send("S%d\n", i)
}

func (c *controllerWrapper) Stop(i int) {
	c.send("X%d\n", i)
}

func (c *controllerWrapper) StopAll() {
	c.send("A\n")
}

func (c *controllerWrapper) ToggleDirection(i int) {
	c.send("D%d\n", i)
}

func (c *controllerWrapper) SetSpeed(i int, value float64) {
	c.send("V%d %.0f\n", i, value)
}

func (c *controllerWrapper) AdjustOn(delta int) {
	c.send("O%s\n", sign(delta))
}

func (c *controllerWrapper) AdjustOff(delta int) {
	c.send("F%s\n", sign(delta))
}

func (c *controllerWrapper) SetRamp(value float64) {
	d := time.Duration(value * float64(time.Second))
	c.send("R%s\n", pulse.FormatSeconds(d))
}

func (c *controllerWrapper) Refresh() {
	c.send("P\n")
}

func sign(delta int) string {
	if delta < 0 {
		return "-"
	}
	return "+"
}
