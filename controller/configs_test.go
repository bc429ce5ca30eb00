package controller

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"periph.io/x/conn/v3/gpio"
)

const testPinMap = `
motors:
  - {step: "GPIO27", direction: "GPIO21", enable: "GPIO4"}
  - {step: "26", direction: "23", enable: "13"}
  - {step: "12", direction: "20", enable: "22"}
  - {step: "24", direction: "25", enable: "19"}
  - {step: "16", direction: "6", enable: "5"}
  - {step: "17", direction: "18", enable: "10"}
`

func TestPinMapParsing(t *testing.T) {
	Convey("parsing a complete pin map", t, func() {
		pm, err := ParsePinMap([]byte(testPinMap))
		So(err, ShouldBeNil)

		Convey("every motor has its pins", func() {
			So(pm.Motors, ShouldHaveLength, 6)
			So(pm.Motors[0], ShouldResemble, PinNames{Step: "GPIO27", Direction: "GPIO21", Enable: "GPIO4"})
			So(pm.Motors[5].Enable, ShouldEqual, "10")
		})

		Convey("simulated pins resolve by name", func() {
			pins, err := pm.Resolve(true)
			So(err, ShouldBeNil)
			So(pins, ShouldHaveLength, 6)
			So(pins[0].Step.Name(), ShouldEqual, "GPIO27")
			So(pins[4].Direction.Name(), ShouldEqual, "6")
			So(pins[0].Enable.Read(), ShouldEqual, gpio.Low)
		})
	})

	Convey("parsing an incomplete pin map fails", t, func() {
		_, err := ParsePinMap([]byte("motors:\n  - {step: \"1\", direction: \"2\", enable: \"3\"}\n"))
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "expected 6")
	})

	Convey("parsing a pin map with a missing pin fails", t, func() {
		data := strings.Replace(testPinMap, `enable: "22"`, `enable: ""`, 1)
		_, err := ParsePinMap([]byte(data))
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "motor 2 is missing a pin")
	})

	Convey("parsing invalid YAML fails", t, func() {
		_, err := ParsePinMap([]byte("motors: ["))
		So(err, ShouldNotBeNil)
	})

	Convey("the default pin map is the PULSE wiring", t, func() {
		So(DefaultPinMap.Motors, ShouldHaveLength, 6)
		So(DefaultPinMap.Motors[0], ShouldResemble, PinNames{Step: "27", Direction: "21", Enable: "4"})
		So(DefaultPinMap.Motors[5], ShouldResemble, PinNames{Step: "17", Direction: "18", Enable: "10"})
	})
}

func TestLoadPinMap(t *testing.T) {
	Convey("loading a pin map file", t, func() {
		filename := filepath.Join(t.TempDir(), "pins.yaml")
		err := os.WriteFile(filename, []byte(testPinMap), 0o600)
		So(err, ShouldBeNil)

		pm, err := LoadPinMap(filename)
		So(err, ShouldBeNil)
		So(pm.Motors[1].Step, ShouldEqual, "26")
	})

	Convey("loading a missing file fails", t, func() {
		_, err := LoadPinMap(filepath.Join(t.TempDir(), "missing.yaml"))
		So(err, ShouldNotBeNil)
	})
}

func TestConfigFromEnv(t *testing.T) {
	Convey("without environment variables", t, func() {
		cfg, err := ConfigFromEnv()
		So(err, ShouldBeNil)

		Convey("the defaults are used", func() {
			expected := DefaultConfig()
			So(cfg.Speed, ShouldEqual, expected.Speed)
			So(cfg.BaudRate, ShouldEqual, expected.BaudRate)
			So(cfg.OnDuration, ShouldEqual, expected.OnDuration)
			So(cfg.OffDuration, ShouldEqual, expected.OffDuration)
			So(cfg.RampDuration, ShouldEqual, expected.RampDuration)
			So(cfg.Simulated, ShouldBeFalse)
			So(cfg.PinMapFile, ShouldBeEmpty)
		})
	})

	Convey("with environment variables", t, func() {
		t.Setenv("PULSE_SIMULATED", "true")
		t.Setenv("PULSE_SPEED", "42")
		t.Setenv("PULSE_ON_DURATION", "1.5s")
		t.Setenv("PULSE_RAMP_DURATION", "0s")
		t.Setenv("PULSE_SERIAL_PORT", "/dev/ttyACM0")

		cfg, err := ConfigFromEnv()
		So(err, ShouldBeNil)
		So(cfg.Simulated, ShouldBeTrue)
		So(cfg.Speed, ShouldEqual, 42)
		So(cfg.OnDuration, ShouldEqual, 1500*time.Millisecond)
		So(cfg.RampDuration, ShouldEqual, time.Duration(0))
		So(cfg.SerialPort, ShouldEqual, "/dev/ttyACM0")

		Convey("a simulated controller can be created", func() {
			c, err := NewFromEnv()
			So(err, ShouldBeNil)
			defer c.Close()

			So(c.Timing().On, ShouldEqual, 1500*time.Millisecond)
			s, err := c.Status(0)
			So(err, ShouldBeNil)
			So(s.Speed, ShouldEqual, 42)
			So(s.Running, ShouldBeFalse)
		})
	})

	Convey("with an invalid value", t, func() {
		t.Setenv("PULSE_SPEED", "fast")

		_, err := ConfigFromEnv()
		So(err, ShouldNotBeNil)
	})

	Convey("with an out of range speed", t, func() {
		t.Setenv("PULSE_SIMULATED", "true")
		t.Setenv("PULSE_SPEED", "300")

		_, err := NewFromEnv()
		So(err, ShouldNotBeNil)
	})
}
