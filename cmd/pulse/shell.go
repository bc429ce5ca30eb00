package main

import (
	"strconv"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/calvinmclean/pulse"
	"github.com/calvinmclean/pulse/controller"
)

func motorNames([]string) []string {
	names := make([]string, 0, pulse.NumMotors)
	for i := range pulse.NumMotors {
		names = append(names, strconv.Itoa(i))
	}
	return names
}

// motorArg parses the motor index from the first argument
func motorArg(c *ishell.Context) (int, bool) {
	if len(c.Args) < 1 {
		c.Println("missing motor")
		return 0, false
	}
	i, err := strconv.Atoi(c.Args[0])
	if err != nil {
		c.Err(err)
		return 0, false
	}
	return i, true
}

func printStatus(c *ishell.Context, ctrl *controller.Controller, i int) {
	s, err := ctrl.Status(i)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(s)
}

// adjustCmd creates a command for the Up/Down duration controls
func adjustCmd(name string, ctrl *controller.Controller, inc, dec func() time.Duration) *ishell.Cmd {
	return &ishell.Cmd{
		Name: name,
		Help: name + " <up|down>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Println("usage: " + name + " <up|down>")
				return
			}
			switch c.Args[0] {
			case "up", "+":
				inc()
			case "down", "-":
				dec()
			default:
				c.Println("usage: " + name + " <up|down>")
				return
			}
			c.Println(ctrl.Timing())
		},
	}
}

func newShell(ctrl *controller.Controller) *ishell.Shell {
	shell := ishell.New()
	shell.Println("PULSE stepper motor shell")
	shell.ShowPrompt(true)

	shell.AddCmd(&ishell.Cmd{
		Name:      "start",
		Completer: motorNames,
		Help:      "start <motor>",
		Func: func(c *ishell.Context) {
			i, ok := motorArg(c)
			if !ok {
				return
			}
			err := ctrl.Start(i)
			if err != nil {
				c.Err(err)
				return
			}
			printStatus(c, ctrl, i)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "stop",
		Completer: motorNames,
		Help:      "stop <motor>",
		Func: func(c *ishell.Context) {
			i, ok := motorArg(c)
			if !ok {
				return
			}
			c.Printf("Stopping motor %d at the end of its cycle\n", i)
			err := ctrl.Stop(i)
			if err != nil {
				c.Err(err)
				return
			}
			printStatus(c, ctrl, i)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "stopall",
		Help: "stop all motors",
		Func: func(c *ishell.Context) {
			ctrl.StopAll()
			c.Println("All motors stopped")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "dir",
		Completer: motorNames,
		Help:      "dir <motor>",
		Func: func(c *ishell.Context) {
			i, ok := motorArg(c)
			if !ok {
				return
			}
			err := ctrl.ToggleDirection(i)
			if err != nil {
				c.Err(err)
				return
			}
			printStatus(c, ctrl, i)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "speed",
		Completer: motorNames,
		Help:      "speed <motor> <steps/s>",
		Func: func(c *ishell.Context) {
			i, ok := motorArg(c)
			if !ok {
				return
			}
			if len(c.Args) != 2 {
				c.Println("usage: speed <motor> <steps/s>")
				return
			}
			rate, err := strconv.Atoi(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			err = ctrl.SetSpeed(i, rate)
			if err != nil {
				c.Err(err)
				return
			}
			printStatus(c, ctrl, i)
		},
	})

	shell.AddCmd(adjustCmd("on", ctrl, ctrl.IncreaseOnDuration, ctrl.DecreaseOnDuration))
	shell.AddCmd(adjustCmd("off", ctrl, ctrl.IncreaseOffDuration, ctrl.DecreaseOffDuration))

	shell.AddCmd(&ishell.Cmd{
		Name: "ramp",
		Help: "ramp <up|down|seconds>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Println("usage: ramp <up|down|seconds>")
				return
			}
			switch c.Args[0] {
			case "up", "+":
				ctrl.IncreaseRampDuration()
			case "down", "-":
				ctrl.DecreaseRampDuration()
			default:
				d, err := pulse.ParseSeconds(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				err = ctrl.SetRampDuration(d)
				if err != nil {
					c.Err(err)
					return
				}
			}
			c.Println(ctrl.Timing())
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "status",
		Help: "print the state of every motor and the duty cycle",
		Func: func(c *ishell.Context) {
			for _, s := range ctrl.Statuses() {
				c.Println(s)
			}
			c.Println(ctrl.Timing())
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "verbose",
		Help: "log every duty cycle",
		Func: func(c *ishell.Context) {
			ctrl.Verbose()
		},
	})

	return shell
}
