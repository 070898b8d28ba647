package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/padlink/internal/actuator"
	"github.com/Alia5/padlink/internal/actuator/sim"
	"github.com/Alia5/padlink/pkg/controller"
)

func simDriver(t *testing.T) (*actuator.Driver, *sim.GPIO) {
	t.Helper()
	g := sim.New(slog.Default())
	d := actuator.NewDriver(g, actuator.DefaultPins(), 100, slog.Default())
	require.NoError(t, d.Setup())
	t.Cleanup(func() { _ = d.Close() })
	return d, g
}

func TestMotorTest_Sequence(t *testing.T) {
	d, g := simDriver(t)
	pins := actuator.DefaultPins()
	c := &MotorTest{Speed: 50, RunFor: time.Millisecond, Pause: time.Millisecond}

	require.NoError(t, runMotorSteps(context.Background(), d, c.steps(), slog.Default()))

	var dutyLog []float64
	for _, e := range g.Events() {
		if e.Op == sim.OpDuty && e.Pin == pins.LeftEnable {
			dutyLog = append(dutyLog, e.Duty)
		}
	}
	// forward 50, stop, backward 50, stop
	assert.Equal(t, []float64{50, 0, 50, 0}, dutyLog)
	assert.Equal(t, actuator.StateStopped, d.State())
	assert.Equal(t, actuator.High, g.Level(pins.LeftBackward))
	assert.Equal(t, actuator.Low, g.Level(pins.LeftForward))
}

func TestMotorTest_InterruptStops(t *testing.T) {
	d, g := simDriver(t)
	c := &MotorTest{Speed: 80, RunFor: time.Hour, Pause: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runMotorSteps(ctx, d, c.steps(), slog.Default()) }()

	require.Eventually(t, func() bool { return d.State() == actuator.StateRunning }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("motor test did not stop")
	}
	assert.Equal(t, actuator.StateStopped, d.State())
	assert.Zero(t, g.Duty(actuator.DefaultPins().RightEnable))
}

func TestMotorTest_SpeedClamped(t *testing.T) {
	c := &MotorTest{Speed: 250}
	steps := c.steps()
	assert.Equal(t, 1.0, steps[0].snap.Triggers.Right)
	assert.Equal(t, 1.0, steps[2].snap.Triggers.Left)
}

func TestSnapshotPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := &snapshotPrinter{w: &buf, logger: slog.Default()}
	s := controller.Snapshot{Triggers: controller.Triggers{Left: 0.25}}
	s.Buttons.Set(controller.ButtonStart, true)
	p.Write(s)

	assert.Contains(t, buf.String(), `"triggers":{"left":0.25,"right":0}`)
	assert.Contains(t, buf.String(), `"start":true`)
	assert.Equal(t, byte('\n'), buf.Bytes()[buf.Len()-1])
}
