package joystick

import (
	"errors"
	"testing"

	"github.com/0xcafed00d/joystick"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJoystick struct {
	state  joystick.State
	err    error
	closed bool
}

func (f *fakeJoystick) AxisCount() int               { return len(f.state.AxisData) }
func (f *fakeJoystick) ButtonCount() int             { return 11 }
func (f *fakeJoystick) Name() string                 { return "Xbox 360 Pad" }
func (f *fakeJoystick) Read() (joystick.State, error) { return f.state, f.err }
func (f *fakeJoystick) Close()                       { f.closed = true }

func TestDevice_ReadsStateAfterPoll(t *testing.T) {
	js := &fakeJoystick{state: joystick.State{
		AxisData: []int{100, -200, 0, 0, -32767, 32767, -32767, 32767},
		Buttons:  1<<0 | 1<<8,
	}}
	d := &Device{js: js}

	assert.Equal(t, 0, d.AxisCount(), "nothing before the first poll")
	require.NoError(t, d.Poll())

	assert.Equal(t, 8, d.AxisCount())
	assert.Equal(t, 100.0, d.Axis(0))
	assert.Equal(t, 32767.0, d.Axis(5))
	assert.Equal(t, 0.0, d.Axis(42))
	assert.True(t, d.Button(0))
	assert.False(t, d.Button(1))
	assert.True(t, d.Button(8))
	assert.False(t, d.Button(-1))

	x, y := d.Hat(0)
	assert.Equal(t, -1, x)
	assert.Equal(t, 1, y)
	x, y = d.Hat(1)
	assert.Zero(t, x)
	assert.Zero(t, y)
}

func TestDevice_HatMissingAxes(t *testing.T) {
	d := &Device{js: &fakeJoystick{state: joystick.State{AxisData: []int{0, 0, 0, 0, 0, 0}}}}
	require.NoError(t, d.Poll())
	x, y := d.Hat(0)
	assert.Zero(t, x)
	assert.Zero(t, y)
}

func TestDevice_PollErrorKeepsState(t *testing.T) {
	js := &fakeJoystick{state: joystick.State{AxisData: []int{5}}}
	d := &Device{js: js}
	require.NoError(t, d.Poll())

	js.err = errors.New("read /dev/input/js0: no such device")
	js.state = joystick.State{AxisData: []int{9}}
	assert.Error(t, d.Poll())
	assert.Equal(t, 5.0, d.Axis(0))

	require.NoError(t, d.Close())
	assert.True(t, js.closed)
}
