package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"github.com/calvinmclean/pulse/controller"
	"github.com/calvinmclean/pulse/ui"
)

func main() {
	var pinMap string
	var simulated bool
	flag.StringVar(&pinMap, "pins", "", "YAML pin map file. Default is the PULSE board wiring")
	flag.BoolVar(&simulated, "sim", false, "Use simulated pins instead of the host's GPIO")
	flag.Parse()

	cfg, err := controller.ConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	if pinMap != "" {
		cfg.PinMapFile = pinMap
	}
	if simulated {
		cfg.Simulated = true
	}

	if os.Getenv("ENABLE_UI") == "true" {
		runUI(cfg)
		return
	}

	runCLI(cfg)
}

// runBackground starts the optional serial console and watches for hardware faults, which
// are fatal
func runBackground(ctx context.Context, c *controller.Controller, cfg controller.Config) {
	go func() {
		select {
		case <-ctx.Done():
		case err := <-c.Faults():
			c.Close()
			log.Fatalf("hardware fault: %v", err)
		}
	}()

	if cfg.SerialPort == "" {
		return
	}

	go func() {
		err := c.RunSerial(ctx, cfg.SerialPort, cfg.BaudRate)
		if err != nil {
			log.Printf("serial console stopped: %v", err)
		}
	}()
}

func runUI(cfg controller.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application := ui.NewApp()
	panel := ui.NewPanelUI(application)

	var c *controller.Controller
	defer func() {
		if c != nil {
			c.Close()
		}
	}()

	configWindow := ui.NewConfigWindow(application)
	configWindow.OnSubmit = func() {
		var err error
		c, err = controller.NewFromConfig(cfg)
		if err != nil {
			log.Fatalf("error creating controller: %v", err)
		}

		runBackground(ctx, c, cfg)

		r, w := io.Pipe()
		go func() {
			err := c.Run(ctx, r, io.MultiWriter(os.Stdout, panel))
			if err != nil {
				log.Printf("command console stopped: %v", err)
			}
		}()

		panel.Show(ctx, w)
	}
	configWindow.Show(&cfg)

	application.Run()
	cancel()
}

func runCLI(cfg controller.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := controller.NewFromConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	runBackground(ctx, c, cfg)

	newShell(c).Run()
}
