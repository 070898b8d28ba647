package actuator_test

import (
	"errors"
	"log/slog"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/padlink/internal/actuator"
	"github.com/Alia5/padlink/internal/actuator/sim"
	"github.com/Alia5/padlink/pkg/controller"
)

var pins = actuator.DefaultPins()

func newDriver(t *testing.T) (*actuator.Driver, *sim.GPIO) {
	t.Helper()
	g := sim.New(slog.Default())
	d := actuator.NewDriver(g, pins, 0, slog.Default())
	require.NoError(t, d.Setup())
	return d, g
}

func snapshot(x, left, right float64) controller.Snapshot {
	return controller.Snapshot{
		LeftStick: controller.Stick{X: x},
		Triggers:  controller.Triggers{Left: left, Right: right},
	}
}

func TestMix_TieBreaks(t *testing.T) {
	cmd := actuator.Mix(controller.Snapshot{})
	assert.Equal(t, actuator.Steering{Dir: actuator.SteerLeft, Magnitude: 0}, cmd.Steering)
	assert.Equal(t, actuator.Throttle{Dir: actuator.Backward, Magnitude: 0}, cmd.Throttle)
	assert.Equal(t, actuator.Side{Dir: actuator.Backward}, cmd.Left)
	assert.Equal(t, actuator.Side{Dir: actuator.Backward}, cmd.Right)
}

func TestMix(t *testing.T) {
	tests := []struct {
		name        string
		snap        controller.Snapshot
		left, right actuator.Side
	}{
		{
			name:  "forward",
			snap:  snapshot(0, 0, 0.6),
			left:  actuator.Side{Dir: actuator.Forward, Duty: 60},
			right: actuator.Side{Dir: actuator.Forward, Duty: 60},
		},
		{
			name:  "backward",
			snap:  snapshot(0, 0.4, 0),
			left:  actuator.Side{Dir: actuator.Backward, Duty: 40},
			right: actuator.Side{Dir: actuator.Backward, Duty: 40},
		},
		{
			name:  "pivot right",
			snap:  snapshot(0.5, 0, 0),
			left:  actuator.Side{Dir: actuator.Forward, Duty: 50},
			right: actuator.Side{Dir: actuator.Backward, Duty: 50},
		},
		{
			name:  "pivot left",
			snap:  snapshot(-0.25, 0, 0),
			left:  actuator.Side{Dir: actuator.Backward, Duty: 25},
			right: actuator.Side{Dir: actuator.Forward, Duty: 25},
		},
		{
			name:  "forward right clamps",
			snap:  snapshot(0.5, 0, 0.8),
			left:  actuator.Side{Dir: actuator.Forward, Duty: 100},
			right: actuator.Side{Dir: actuator.Forward, Duty: 30},
		},
		{
			name:  "right trigger wins",
			snap:  snapshot(0, 1, 0.2),
			left:  actuator.Side{Dir: actuator.Forward, Duty: 20},
			right: actuator.Side{Dir: actuator.Forward, Duty: 20},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := actuator.Mix(tt.snap)
			assert.Equal(t, tt.left, cmd.Left)
			assert.Equal(t, tt.right, cmd.Right)
		})
	}
}

func TestSetup_ConfiguresPinsAndStartsAtZero(t *testing.T) {
	d, g := newDriver(t)
	assert.Equal(t, actuator.StateReady, d.State())

	var setup []int
	for _, e := range g.Events() {
		if e.Op == sim.OpSetOutput {
			setup = append(setup, e.Pin)
		}
	}
	assert.ElementsMatch(t, []int{17, 27, 18, 16, 26, 19}, setup)
	assert.Contains(t, g.Events(), sim.Event{Op: sim.OpPWM, Pin: 18, Freq: 100})
	assert.Contains(t, g.Events(), sim.Event{Op: sim.OpStart, Pin: 19, Duty: 0})
}

func TestSetup_FailureReleasesPartialChannels(t *testing.T) {
	g := sim.New(slog.Default())
	g.FailOn(sim.OpPWM, pins.RightEnable, errors.New("pin busy"))
	d := actuator.NewDriver(g, pins, 100, slog.Default())

	err := d.Setup()
	require.ErrorIs(t, err, actuator.ErrDriverInitFailed)
	assert.ErrorContains(t, err, "pin busy")
	assert.Equal(t, actuator.StateCleanedUp, d.State())

	// The left PWM was acquired before the failure and must be stopped.
	assert.Contains(t, g.Events(), sim.Event{Op: sim.OpStop, Pin: pins.LeftEnable})
	assert.True(t, g.Closed())
	assert.NoError(t, d.Close())
}

func TestSetup_NoBackend(t *testing.T) {
	d := actuator.NewDriver(nil, pins, 100, slog.Default())
	assert.ErrorIs(t, d.Setup(), actuator.ErrDriverInitFailed)
	assert.NoError(t, d.Close())
}

func TestDrive_BeforeReadyIsNoop(t *testing.T) {
	g := sim.New(slog.Default())
	d := actuator.NewDriver(g, pins, 100, slog.Default())

	_, err := d.Drive(snapshot(0, 0, 1))
	assert.ErrorIs(t, err, actuator.ErrNotReady)
	d.Apply(snapshot(0, 0, 1))
	assert.Empty(t, g.Events())
	assert.Equal(t, actuator.StateUninitialized, d.State())
}

func TestDrive_PinsBeforeDuty(t *testing.T) {
	d, g := newDriver(t)
	before := len(g.Events())

	snap := snapshot(0.5, 0, 0.8)
	snap.Buttons.Set(controller.ButtonA, true)
	cmd, err := d.Drive(snap)
	require.NoError(t, err)

	assert.Equal(t, actuator.Steering{Dir: actuator.SteerRight, Magnitude: 50}, cmd.Steering)
	assert.Equal(t, actuator.Throttle{Dir: actuator.Forward, Magnitude: 80}, cmd.Throttle)
	assert.Equal(t, actuator.StateRunning, d.State())
	assert.Equal(t, cmd, d.Last())

	events := g.Events()[before:]
	for _, ch := range []struct{ bwd, fwd, en int }{
		{pins.LeftBackward, pins.LeftForward, pins.LeftEnable},
		{pins.RightBackward, pins.RightForward, pins.RightEnable},
	} {
		bwd := slices.Index(events, sim.Event{Op: sim.OpWrite, Pin: ch.bwd, Level: actuator.Low})
		fwd := slices.Index(events, sim.Event{Op: sim.OpWrite, Pin: ch.fwd, Level: actuator.High})
		duty := slices.IndexFunc(events, func(e sim.Event) bool {
			return e.Op == sim.OpDuty && e.Pin == ch.en && e.Duty > 0
		})
		require.NotEqual(t, -1, bwd)
		require.NotEqual(t, -1, fwd)
		require.NotEqual(t, -1, duty)
		assert.Less(t, bwd, duty)
		assert.Less(t, fwd, duty)
	}
	assert.Equal(t, 100.0, g.Duty(pins.LeftEnable))
	assert.Equal(t, 30.0, g.Duty(pins.RightEnable))
}

func TestDrive_DirectionFlipDropsDutyFirst(t *testing.T) {
	d, g := newDriver(t)
	_, err := d.Drive(snapshot(0, 0, 0.5))
	require.NoError(t, err)
	before := len(g.Events())

	_, err = d.Drive(snapshot(0, 0.5, 0))
	require.NoError(t, err)

	var left []string
	for _, e := range g.Events()[before:] {
		if e.Pin == pins.LeftBackward || e.Pin == pins.LeftForward || e.Pin == pins.LeftEnable {
			left = append(left, e.String())
		}
	}
	assert.Equal(t, []string{
		"duty 18 0.0",
		"write 17 high",
		"write 27 low",
		"duty 18 50.0",
	}, left)
}

func TestDrive_UnchangedCommandWritesNothing(t *testing.T) {
	d, g := newDriver(t)
	_, err := d.Drive(snapshot(0.1, 0, 0.5))
	require.NoError(t, err)
	n := len(g.Events())

	_, err = d.Drive(snapshot(0.1, 0, 0.5))
	require.NoError(t, err)
	assert.Len(t, g.Events(), n)
}

func TestStop_ForcesZeroDutyAndResumes(t *testing.T) {
	d, g := newDriver(t)
	_, err := d.Drive(snapshot(0, 0, 1))
	require.NoError(t, err)

	require.NoError(t, d.Stop())
	assert.Equal(t, actuator.StateStopped, d.State())
	assert.Zero(t, g.Duty(pins.LeftEnable))
	assert.Zero(t, g.Duty(pins.RightEnable))

	_, err = d.Drive(snapshot(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, actuator.StateRunning, d.State())
	assert.Equal(t, 100.0, g.Duty(pins.LeftEnable))
}

func TestClose_Idempotent(t *testing.T) {
	d, g := newDriver(t)
	_, err := d.Drive(snapshot(-1, 0, 1))
	require.NoError(t, err)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.Equal(t, actuator.StateCleanedUp, d.State())
	assert.Zero(t, g.Duty(pins.LeftEnable))
	assert.Zero(t, g.Duty(pins.RightEnable))
	assert.True(t, g.Closed())

	closes := 0
	for _, e := range g.Events() {
		if e.Op == sim.OpClose {
			closes++
		}
	}
	assert.Equal(t, 1, closes)

	_, err = d.Drive(snapshot(0, 0, 1))
	assert.ErrorIs(t, err, actuator.ErrNotReady)
	assert.ErrorIs(t, d.Stop(), actuator.ErrNotReady)
}

func TestClose_FromUninitialized(t *testing.T) {
	g := sim.New(slog.Default())
	d := actuator.NewDriver(g, pins, 100, slog.Default())
	assert.NoError(t, d.Close())
	assert.Equal(t, actuator.StateCleanedUp, d.State())
	assert.ErrorIs(t, d.Setup(), actuator.ErrDriverInitFailed)
}

func TestOpenBackend(t *testing.T) {
	assert.Contains(t, actuator.Backends(), sim.Name)

	g, err := actuator.OpenBackend("SIM", slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &sim.GPIO{}, g)

	_, err = actuator.OpenBackend("nope", slog.Default())
	assert.ErrorIs(t, err, actuator.ErrDriverInitFailed)
}
