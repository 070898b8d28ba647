// Package sdl reads gamepads through SDL2's joystick API.
package sdl

import (
	"fmt"
	"sync"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Alia5/padlink/internal/input"
	"github.com/Alia5/padlink/pkg/controller"
)

// Name is the backend name used for registration.
const Name = "sdl"

var axisRange = controller.AxisRange{Min: -32768, Max: 32767}

func init() {
	input.RegisterBackend(Name, Open)
}

// Device adapts an SDL joystick to input.HumanInputDevice.
//
// Every SDL call runs on the device's own locked OS thread. Poll refreshes
// the cached state there; accessors read the cache.
type Device struct {
	thread    *osThread
	closeOnce sync.Once

	mu      sync.Mutex
	name    string
	joy     *sdl.Joystick
	axes    []int16
	buttons []bool
	hats    []byte
}

// Open initializes the SDL joystick subsystem and opens joystick index.
func Open(index int) (input.HumanInputDevice, error) {
	d := &Device{thread: startOSThread()}
	var err error
	if derr := d.thread.do(func() { err = d.open(index) }); derr != nil {
		err = derr
	}
	if err != nil {
		d.thread.stop()
		return nil, err
	}
	return d, nil
}

func (d *Device) open(index int) error {
	if err := sdl.Init(sdl.INIT_JOYSTICK); err != nil {
		return fmt.Errorf("sdl: %w", err)
	}
	if n := sdl.NumJoysticks(); index >= n {
		sdl.QuitSubSystem(sdl.INIT_JOYSTICK)
		return fmt.Errorf("sdl: joystick %d not found (%d attached)", index, n)
	}
	joy := sdl.JoystickOpen(index)
	if joy == nil || !joy.Attached() {
		sdl.QuitSubSystem(sdl.INIT_JOYSTICK)
		return fmt.Errorf("sdl: %w", sdl.GetError())
	}
	d.joy = joy
	d.name = joy.Name()
	d.axes = make([]int16, joy.NumAxes())
	d.buttons = make([]bool, joy.NumButtons())
	d.hats = make([]byte, joy.NumHats())
	return nil
}

func (d *Device) Name() string { return d.name }

func (d *Device) Poll() error {
	var err error
	if derr := d.thread.do(func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		sdl.JoystickUpdate()
		if !d.joy.Attached() {
			err = fmt.Errorf("sdl: joystick detached")
			return
		}
		for i := range d.axes {
			d.axes[i] = d.joy.Axis(i)
		}
		for i := range d.buttons {
			d.buttons[i] = d.joy.Button(i) != 0
		}
		for i := range d.hats {
			d.hats[i] = d.joy.Hat(i)
		}
	}); derr != nil {
		return derr
	}
	return err
}

func (d *Device) AxisCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.axes)
}

func (d *Device) Axis(i int) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.axes) {
		return 0
	}
	return float64(d.axes[i])
}

func (d *Device) AxisRange() controller.AxisRange { return axisRange }

func (d *Device) Button(i int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.buttons) {
		return false
	}
	return d.buttons[i]
}

// Hat converts the SDL hat bitmask (up is positive in SDL) to the
// x < 0 left, y < 0 up convention.
func (d *Device) Hat(i int) (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.hats) {
		return 0, 0
	}
	return hatDirection(d.hats[i])
}

func hatDirection(v byte) (x, y int) {
	if v&sdl.HAT_LEFT != 0 {
		x = -1
	} else if v&sdl.HAT_RIGHT != 0 {
		x = 1
	}
	if v&sdl.HAT_UP != 0 {
		y = -1
	} else if v&sdl.HAT_DOWN != 0 {
		y = 1
	}
	return x, y
}

func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		_ = d.thread.do(func() {
			d.joy.Close()
			sdl.QuitSubSystem(sdl.INIT_JOYSTICK)
		})
		d.thread.stop()
	})
	return nil
}
