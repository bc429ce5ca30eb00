package ui

import (
	"errors"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/calvinmclean/pulse/controller"
)

// ConfigWindow asks for the board settings before the panel opens
type ConfigWindow struct {
	app      fyne.App
	OnSubmit func()
}

func NewConfigWindow(app fyne.App) *ConfigWindow {
	return &ConfigWindow{
		app: app,
	}
}

func (cw *ConfigWindow) loadConfigFromPreferences(cfg *controller.Config) {
	prefs := cw.app.Preferences()
	cfg.SerialPort = prefs.StringWithFallback("serialPort", cfg.SerialPort)
	cfg.BaudRate = prefs.IntWithFallback("baudRate", cfg.BaudRate)
	cfg.PinMapFile = prefs.StringWithFallback("pinMapFile", cfg.PinMapFile)
	cfg.Simulated = prefs.BoolWithFallback("simulated", cfg.Simulated)
}

func (cw *ConfigWindow) saveConfigToPreferences(cfg *controller.Config) {
	prefs := cw.app.Preferences()
	prefs.SetString("serialPort", cfg.SerialPort)
	prefs.SetInt("baudRate", cfg.BaudRate)
	prefs.SetString("pinMapFile", cfg.PinMapFile)
	prefs.SetBool("simulated", cfg.Simulated)
}

func (cw *ConfigWindow) Show(cfg *controller.Config) {
	window := cw.app.NewWindow("PULSE - Configuration")
	window.Resize(fyne.NewSize(400, 250))
	window.SetCloseIntercept(func() {
		// Treat window close as cancel
		window.Close()
		cw.app.Quit()
	})
	window.Show()

	// Load config from preferences
	cw.loadConfigFromPreferences(cfg)

	serialPorts, err := controller.GetSerialPorts()
	if err != nil && !errors.Is(err, controller.ErrNoUSBSerial) {
		ShowError(cw.app, window, fmt.Errorf("error getting serial ports: %w", err))
		return
	}

	serialPorts = append(serialPorts, controller.SerialPortNone)

	serialEntry := widget.NewSelect(serialPorts, nil)
	if cfg.SerialPort == "" {
		cfg.SerialPort = controller.SerialPortNone
	}
	serialEntry.Bind(binding.BindString(&cfg.SerialPort))

	baudRateEntry := widget.NewEntry()
	baudRateEntry.Bind(binding.IntToString(binding.BindInt(&cfg.BaudRate)))

	pinMapEntry := widget.NewEntry()
	pinMapEntry.SetPlaceHolder("built-in PULSE wiring")
	pinMapEntry.Bind(binding.BindString(&cfg.PinMapFile))

	simulatedCheck := widget.NewCheckWithData("Simulated pins", binding.BindBool(&cfg.Simulated))

	submitButton := widget.NewButton("Submit", func() {
		cw.saveConfigToPreferences(cfg)
		if cfg.SerialPort == controller.SerialPortNone {
			cfg.SerialPort = ""
		}
		cw.OnSubmit()
		window.Close()
	})

	validateForm := func() {
		if cfg.SerialPort != "" && cfg.BaudRate > 0 {
			submitButton.Enable()
			return
		}
		submitButton.Disable()
	}

	// Add listeners to field changes
	serialEntry.OnChanged = func(_ string) { validateForm() }
	baudRateEntry.OnChanged = func(_ string) { validateForm() }

	// Initial validation
	validateForm()

	form := container.NewVBox(
		widget.NewCard("Configuration", "", container.NewVBox(
			container.NewGridWithColumns(2,
				widget.NewLabel("Serial Port:"),
				serialEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Baud Rate:"),
				baudRateEntry,
			),
			container.NewGridWithColumns(2,
				widget.NewLabel("Pin Map File:"),
				pinMapEntry,
			),
			simulatedCheck,
		)),
		container.NewHBox(
			widget.NewButton("Cancel", func() {
				window.Close()
				cw.app.Quit()
			}),
			submitButton,
		),
	)

	window.SetContent(form)
}

// ShowError shows err in a dialog and quits once it is dismissed
func ShowError(app fyne.App, window fyne.Window, err error) {
	d := dialog.NewError(err, window)
	d.SetOnClosed(func() {
		app.Quit()
	})
	d.Show()
}
