// Package joystick reads gamepads through the operating system joystick API
// (Linux /dev/input/js*, Windows winmm).
package joystick

import (
	"github.com/0xcafed00d/joystick"

	"github.com/Alia5/padlink/internal/input"
	"github.com/Alia5/padlink/pkg/controller"
)

// Name is the backend name used for registration.
const Name = "joystick"

// hatAxis is the first of the two axes the joystick API uses to report the
// dpad hat on XInput-style pads (after the six analog axes).
const hatAxis = 6

var axisRange = controller.AxisRange{Min: -32767, Max: 32767}

func init() {
	input.RegisterBackend(Name, Open)
}

// Device adapts a joystick.Joystick to input.HumanInputDevice.
type Device struct {
	js    joystick.Joystick
	state joystick.State
}

// Open opens joystick id.
func Open(id int) (input.HumanInputDevice, error) {
	js, err := joystick.Open(id)
	if err != nil {
		return nil, err
	}
	return &Device{js: js}, nil
}

func (d *Device) Name() string { return d.js.Name() }

func (d *Device) Poll() error {
	st, err := d.js.Read()
	if err != nil {
		return err
	}
	d.state = st
	return nil
}

func (d *Device) AxisCount() int { return len(d.state.AxisData) }

func (d *Device) Axis(i int) float64 {
	if i < 0 || i >= len(d.state.AxisData) {
		return 0
	}
	return float64(d.state.AxisData[i])
}

func (d *Device) AxisRange() controller.AxisRange { return axisRange }

func (d *Device) Button(i int) bool {
	if i < 0 || i >= 32 {
		return false
	}
	return d.state.Buttons&(1<<uint(i)) != 0
}

// Hat decodes the hat from its two axes. Only hat 0 exists.
func (d *Device) Hat(i int) (int, int) {
	if i != 0 || len(d.state.AxisData) < hatAxis+2 {
		return 0, 0
	}
	return sign(d.state.AxisData[hatAxis]), sign(d.state.AxisData[hatAxis+1])
}

func (d *Device) Close() error {
	d.js.Close()
	return nil
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}
