package ui

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/calvinmclean/pulse"
)

// AppID identifies the application for fyne preferences
const AppID = "com.github.calvinmclean.pulse"

// NewApp creates the fyne application shared by the config window and the panel
func NewApp() fyne.App {
	return app.NewWithID(AppID)
}

type motorRow struct {
	state       *canvas.Text
	direction   *widget.Label
	speedLabel  *widget.Label
	speedSlider *widget.Slider
	timer       *timer
}

// PanelUI is the PULSE control panel. It sends console commands for every action and is an
// io.Writer for the console output, which it uses to refresh the motor and duty cycle labels
type PanelUI struct {
	app fyne.App

	mtx      sync.Mutex
	partial  []byte
	statuses [pulse.NumMotors]pulse.MotorStatus
	timing   pulse.Timing

	// widgets are nil until Show
	rows      [pulse.NumMotors]*motorRow
	onLabel   *widget.Label
	offLabel  *widget.Label
	rampLabel *widget.Label
}

func NewPanelUI(app fyne.App) *PanelUI {
	ui := &PanelUI{app: app}
	for i := range ui.statuses {
		ui.statuses[i] = pulse.MotorStatus{Index: i, Direction: pulse.Forward, Speed: pulse.MinSpeed}
	}
	return ui
}

// Write consumes console output. Complete status lines update the panel; other lines are ignored
func (ui *PanelUI) Write(p []byte) (int, error) {
	ui.mtx.Lock()
	ui.partial = append(ui.partial, p...)
	var lines []string
	for {
		i := bytes.IndexByte(ui.partial, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, strings.TrimSpace(string(ui.partial[:i])))
		ui.partial = ui.partial[i+1:]
	}
	ui.mtx.Unlock()

	for _, line := range lines {
		ui.handleLine(line)
	}

	return len(p), nil
}

func (ui *PanelUI) handleLine(line string) {
	switch {
	case strings.HasPrefix(line, "M"):
		s, err := pulse.ParseMotorStatus(line)
		if err != nil || pulse.CheckMotor(s.Index) != nil {
			return
		}
		ui.mtx.Lock()
		ui.statuses[s.Index] = s
		ui.mtx.Unlock()
		ui.refreshMotor(s.Index)
	case strings.HasPrefix(line, "T "):
		t, err := pulse.ParseTiming(line)
		if err != nil {
			return
		}
		ui.mtx.Lock()
		ui.timing = t
		ui.mtx.Unlock()
		ui.refreshTiming()
	}
}

func (ui *PanelUI) status(i int) pulse.MotorStatus {
	ui.mtx.Lock()
	defer ui.mtx.Unlock()
	return ui.statuses[i]
}

func (ui *PanelUI) currentTiming() pulse.Timing {
	ui.mtx.Lock()
	defer ui.mtx.Unlock()
	return ui.timing
}

func (ui *PanelUI) refreshMotor(i int) {
	ui.mtx.Lock()
	row := ui.rows[i]
	s := ui.statuses[i]
	ui.mtx.Unlock()
	if row == nil {
		return
	}

	row.timer.Set(s.Running, time.Now())

	fyne.Do(func() {
		st := stateOf(s.Running)
		row.state.Text = st.String()
		row.state.Color = st.color()
		row.state.Refresh()
		row.direction.SetText(s.Direction.String())
		row.speedLabel.SetText(fmt.Sprintf("%d", s.Speed))
		row.speedSlider.SetValue(float64(s.Speed))
	})
}

func (ui *PanelUI) refreshTiming() {
	ui.mtx.Lock()
	onLabel, offLabel, rampLabel := ui.onLabel, ui.offLabel, ui.rampLabel
	t := ui.timing
	ui.mtx.Unlock()
	if onLabel == nil {
		return
	}

	fyne.Do(func() {
		onLabel.SetText(pulse.FormatSeconds(t.On))
		offLabel.SetText(pulse.FormatSeconds(t.Off))
		rampLabel.SetText(pulse.FormatSeconds(t.Ramp))
	})
}

func (ui *PanelUI) createMotorRow(i int, c *controllerWrapper) (*fyne.Container, *motorRow) {
	s := ui.status(i)

	row := &motorRow{
		state:       canvas.NewText(stateOf(s.Running).String(), stateOf(s.Running).color()),
		direction:   widget.NewLabel(s.Direction.String()),
		speedLabel:  widget.NewLabel(fmt.Sprintf("%d", s.Speed)),
		speedSlider: widget.NewSlider(pulse.MinSpeed, pulse.MaxSpeed),
		timer:       newTimer(),
	}

	row.speedSlider.Step = 1
	row.speedSlider.SetValue(float64(s.Speed))
	row.speedSlider.OnChanged = func(value float64) {
		row.speedLabel.SetText(fmt.Sprintf("%.0f", value))
	}
	row.speedSlider.OnChangeEnded = func(value float64) {
		c.SetSpeed(i, value)
	}

	startButton := widget.NewButton(fmt.Sprintf("Start %d", i+1), func() { c.Start(i) })
	startButton.Importance = widget.SuccessImportance

	stopButton := widget.NewButton(fmt.Sprintf("Stop %d", i+1), func() { c.Stop(i) })
	stopButton.Importance = widget.DangerImportance

	directionButton := widget.NewButton(fmt.Sprintf("Direction %d", i+1), func() { c.ToggleDirection(i) })
	directionButton.Importance = widget.HighImportance

	content := container.NewVBox(
		container.NewGridWithColumns(6,
			startButton,
			stopButton,
			directionButton,
			container.NewPadded(row.state),
			row.direction,
			container.NewPadded(row.timer.text),
		),
		container.NewBorder(nil, nil, nil, row.speedLabel, row.speedSlider),
	)

	return content, row
}

func createDurationControl(labelText string, valueLabel *widget.Label, onUp, onDown func()) *fyne.Container {
	upButton := widget.NewButton("Up", onUp)
	upButton.Importance = widget.SuccessImportance

	downButton := widget.NewButton("Down", onDown)
	downButton.Importance = widget.DangerImportance

	return container.NewVBox(
		widget.NewLabelWithStyle(labelText, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		valueLabel,
		upButton,
		downButton,
	)
}

// Show opens the panel window. Commands are written to w. The application quits when ctx is
// done or the window is closed
func (ui *PanelUI) Show(ctx context.Context, w io.Writer) {
	c := newControllerWrapper(ctx, w)
	t := ui.currentTiming()

	window := ui.app.NewWindow("PULSE Stepper Motor Control")

	title := canvas.NewText("PULSE Stepper Motor Control", color.RGBA{R: 200, G: 0, B: 0, A: 255})
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.TextSize = 18

	motors := container.NewVBox()
	var rows [pulse.NumMotors]*motorRow
	for i := range pulse.NumMotors {
		content, row := ui.createMotorRow(i, c)
		rows[i] = row
		row.timer.Go()
		motors.Add(content)
	}

	onLabel := widget.NewLabelWithStyle(pulse.FormatSeconds(t.On), fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	offLabel := widget.NewLabelWithStyle(pulse.FormatSeconds(t.Off), fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	rampLabel := widget.NewLabelWithStyle(pulse.FormatSeconds(t.Ramp), fyne.TextAlignCenter, fyne.TextStyle{Bold: true})

	ui.mtx.Lock()
	ui.rows = rows
	ui.onLabel, ui.offLabel, ui.rampLabel = onLabel, offLabel, rampLabel
	ui.mtx.Unlock()

	rampSlider := widget.NewSlider(0, pulse.MaxRamp.Seconds())
	rampSlider.Step = pulse.DurationStep.Seconds()
	rampSlider.SetValue(t.Ramp.Seconds())
	rampSlider.OnChanged = func(value float64) {
		rampLabel.SetText(fmt.Sprintf("%.1f", value))
	}
	rampSlider.OnChangeEnded = c.SetRamp

	stopAllButton := widget.NewButton("Stop All Motors", c.StopAll)
	stopAllButton.Importance = widget.HighImportance

	quitButton := widget.NewButton("Quit Program", func() {
		c.StopAll()
		ui.app.Quit()
	})
	quitButton.Importance = widget.WarningImportance

	timingContainer := container.NewGridWithColumns(3,
		createDurationControl("On", onLabel, func() { c.AdjustOn(+1) }, func() { c.AdjustOn(-1) }),
		createDurationControl("Off", offLabel, func() { c.AdjustOff(+1) }, func() { c.AdjustOff(-1) }),
		container.NewVBox(
			widget.NewLabelWithStyle("Ramp", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
			rampLabel,
			rampSlider,
		),
	)

	contentContainer := container.NewVBox(
		container.NewHBox(layout.NewSpacer(), title, layout.NewSpacer()),
		motors,
		timingContainer,
		container.NewGridWithColumns(2, stopAllButton, quitButton),
	)

	go func() {
		<-ctx.Done()
		for _, row := range rows {
			row.timer.Stop()
		}
		fyne.Do(func() {
			ui.app.Quit()
		})
	}()

	window.SetCloseIntercept(func() {
		c.StopAll()
		ui.app.Quit()
	})
	window.SetContent(container.NewVScroll(contentContainer))
	window.Resize(fyne.NewSize(800, 450))
	window.Show()

	// ask for the current state of every motor and the duty cycle
	c.Refresh()
}
