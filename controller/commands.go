package controller

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/calvinmclean/pulse"
)

// Command is a single console command. A command line is the Flag followed by its input,
// like "S0" or "V2 150"
type Command struct {
	Flag        byte
	Run         func(c *Controller, input string, w io.Writer) error
	Description string
}

var errInvalidInput = errors.New("invalid input")

var (
	StartCommand = &Command{
		Flag: 'S',
		Run: motorCommand(func(c *Controller, i int) error {
			return c.Start(i)
		}),
		Description: "Start a motor. Input: motor 0-5.",
	}
	StopCommand = &Command{
		Flag: 'X',
		Run: motorCommand(func(c *Controller, i int) error {
			return c.Stop(i)
		}),
		Description: "Stop a motor and wait for its cycle to end. Input: motor 0-5.",
	}
	StopAllCommand = &Command{
		Flag: 'A',
		Run: func(c *Controller, _ string, w io.Writer) error {
			c.StopAll()
			return writeStatuses(c, w)
		},
		Description: "Stop all motors.",
	}
	DirectionCommand = &Command{
		Flag: 'D',
		Run: motorCommand(func(c *Controller, i int) error {
			return c.ToggleDirection(i)
		}),
		Description: "Toggle the direction of a motor. Input: motor 0-5.",
	}
	SpeedCommand = &Command{
		Flag: 'V',
		Run: func(c *Controller, input string, w io.Writer) error {
			fields := strings.Fields(input)
			if len(fields) != 2 {
				return fmt.Errorf("%w: %q", errInvalidInput, input)
			}

			i, err := strconv.Atoi(fields[0])
			if err != nil {
				return fmt.Errorf("%w: %q", errInvalidInput, input)
			}
			rate, err := strconv.Atoi(fields[1])
			if err != nil {
				return fmt.Errorf("%w: %q", errInvalidInput, input)
			}

			err = c.SetSpeed(i, rate)
			if err != nil {
				return err
			}
			return writeStatus(c, i, w)
		},
		Description: "Set the speed of a motor in steps/s. Input: motor 0-5, space, speed 1-255.",
	}
	OnDurationCommand = &Command{
		Flag: 'O',
		Run: adjustCommand(
			(*Controller).IncreaseOnDuration,
			(*Controller).DecreaseOnDuration,
		),
		Description: "Adjust the on duration by 0.1s. Input: '+' or '-'.",
	}
	OffDurationCommand = &Command{
		Flag: 'F',
		Run: adjustCommand(
			(*Controller).IncreaseOffDuration,
			(*Controller).DecreaseOffDuration,
		),
		Description: "Adjust the off duration by 0.1s. Input: '+' or '-'.",
	}
	RampCommand = &Command{
		Flag: 'R',
		Run: func(c *Controller, input string, w io.Writer) error {
			switch input {
			case "+":
				c.IncreaseRampDuration()
			case "-":
				c.DecreaseRampDuration()
			default:
				d, err := pulse.ParseSeconds(input)
				if err != nil {
					return err
				}
				err = c.SetRampDuration(d)
				if err != nil {
					return err
				}
			}
			return writeLine(w, c.Timing())
		},
		Description: "Adjust or set the ramp-up duration. Input: '+', '-' or seconds 0-5.",
	}
	PrintCommand = &Command{
		Flag: 'P',
		Run: func(c *Controller, _ string, w io.Writer) error {
			err := writeStatuses(c, w)
			if err != nil {
				return err
			}
			return writeLine(w, c.Timing())
		},
		Description: "Print the state of every motor and the duty cycle.",
	}
	VerboseCommand = &Command{
		Flag: 'v',
		Run: func(c *Controller, _ string, _ io.Writer) error {
			c.Verbose()
			return nil
		},
		Description: "Enable verbose logging.",
	}
	HelpCommand = &Command{
		Flag: 'H',
		Run: func(_ *Controller, _ string, w io.Writer) error {
			err := writeLine(w, "Available Commands:")
			if err != nil {
				return err
			}
			for _, cmd := range commands {
				err = writeLine(w, string(cmd.Flag)+": "+cmd.Description)
				if err != nil {
					return err
				}
			}
			return nil
		},
		Description: "Show all available commands and their descriptions.",
	}
)

var commands = []*Command{
	StartCommand,
	StopCommand,
	StopAllCommand,
	DirectionCommand,
	SpeedCommand,
	OnDurationCommand,
	OffDurationCommand,
	RampCommand,
	PrintCommand,
	VerboseCommand,
}

func commandMap() map[byte]*Command {
	cmdMap := map[byte]*Command{
		HelpCommand.Flag: HelpCommand,
	}
	for _, cmd := range commands {
		cmdMap[cmd.Flag] = cmd
	}
	return cmdMap
}

// Run reads command lines from r until it is exhausted or ctx is done. Status lines and
// errors are written to w. A failed command does not stop the console
func (c *Controller) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	cmdMap := commandMap()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			select {
			case err := <-scanErr:
				if err != nil {
					return fmt.Errorf("error reading commands: %w", err)
				}
			default:
			}
			return nil
		}

		err := c.exec(cmdMap, line, w)
		if err != nil {
			err = writeLine(w, "error: "+err.Error())
			if err != nil {
				return fmt.Errorf("error writing output: %w", err)
			}
		}
	}
}

// Exec runs a single command line and writes its output to w
func (c *Controller) Exec(line string, w io.Writer) error {
	return c.exec(commandMap(), line, w)
}

func (c *Controller) exec(cmdMap map[byte]*Command, line string, w io.Writer) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	cmd, ok := cmdMap[line[0]]
	if !ok {
		return fmt.Errorf("unknown command: %q", line)
	}

	return cmd.Run(c, strings.TrimSpace(line[1:]), w)
}

// motorCommand creates a Command.Run for actions that take a motor index and reports the
// motor's status afterwards
func motorCommand(f func(*Controller, int) error) func(*Controller, string, io.Writer) error {
	return func(c *Controller, input string, w io.Writer) error {
		i, err := strconv.Atoi(input)
		if err != nil {
			return fmt.Errorf("%w: %q", errInvalidInput, input)
		}

		err = f(c, i)
		if err != nil {
			return err
		}
		return writeStatus(c, i, w)
	}
}

// adjustCommand creates a Command.Run for the '+'/'-' duration controls
func adjustCommand(inc, dec func(*Controller) time.Duration) func(*Controller, string, io.Writer) error {
	return func(c *Controller, input string, w io.Writer) error {
		switch input {
		case "+":
			inc(c)
		case "-":
			dec(c)
		default:
			return fmt.Errorf("%w: %q", errInvalidInput, input)
		}
		return writeLine(w, c.Timing())
	}
}

func writeStatus(c *Controller, i int, w io.Writer) error {
	s, err := c.Status(i)
	if err != nil {
		return err
	}
	return writeLine(w, s)
}

func writeStatuses(c *Controller, w io.Writer) error {
	for _, s := range c.Statuses() {
		err := writeLine(w, s)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w io.Writer, v any) error {
	_, err := fmt.Fprintln(w, v)
	return err
}
