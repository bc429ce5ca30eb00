package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// SerialPortNone is listed by the config window to run without a serial console
const SerialPortNone = "None"

// ErrNoUSBSerial is returned when no USB serial ports are attached
var ErrNoUSBSerial = errors.New("no USB serial ports found")

// GetSerialPorts lists the USB serial ports that a remote panel can be attached to
func GetSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}

	var result []string
	for _, p := range ports {
		if strings.Contains(p, "usb") || strings.Contains(p, "USB") || strings.Contains(p, "ACM") {
			result = append(result, p)
		}
	}

	if len(result) == 0 {
		return nil, ErrNoUSBSerial
	}

	return result, nil
}

// RunSerial runs the command console on a serial port until ctx is done or the port is closed
func (c *Controller) RunSerial(ctx context.Context, portName string, baudRate int) error {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return fmt.Errorf("error opening serial port %q: %w", portName, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-runCtx.Done()
		port.Close()
	}()

	c.logger.Printf("command console on %s at %d baud", portName, baudRate)

	err = c.Run(runCtx, port, port)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
