package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/Alia5/padlink/internal/actuator"
	"github.com/Alia5/padlink/pkg/controller"
)

type MotorTest struct {
	Speed  float64       `help:"Duty cycle in percent" default:"50" env:"PADLINK_MOTOR_TEST_SPEED"`
	RunFor time.Duration `help:"How long each direction runs" default:"2s" env:"PADLINK_MOTOR_TEST_RUN_FOR"`
	Pause  time.Duration `help:"Pause between directions" default:"1s" env:"PADLINK_MOTOR_TEST_PAUSE"`
	GPIO   GPIOOptions   `embed:"" prefix:"gpio."`
}

type motorStep struct {
	name string
	snap controller.Snapshot
	stop bool
	hold time.Duration
}

func (c *MotorTest) steps() []motorStep {
	speed := controller.Clamp(c.Speed, 0, 100) / 100
	return []motorStep{
		{name: "forward", snap: controller.Snapshot{Triggers: controller.Triggers{Right: speed}}, hold: c.RunFor},
		{name: "stop", stop: true, hold: c.Pause},
		{name: "backward", snap: controller.Snapshot{Triggers: controller.Triggers{Left: speed}}, hold: c.RunFor},
		{name: "stop", stop: true},
	}
}

// Run is called by Kong when the motor-test command is executed.
func (c *MotorTest) Run(logger *slog.Logger) error {
	ctx, stop := signalContext()
	defer stop()

	gpio, err := actuator.OpenBackend(c.GPIO.Backend, logger)
	if err != nil {
		return err
	}
	driver := actuator.NewDriver(gpio, c.GPIO.Pins, c.GPIO.PWMFreq, logger)
	defer func() {
		if err := driver.Close(); err != nil {
			logger.Warn("motor cleanup reported errors", "error", err)
		}
	}()
	if err := driver.Setup(); err != nil {
		return err
	}
	return runMotorSteps(ctx, driver, c.steps(), logger)
}

type motorDriver interface {
	Drive(controller.Snapshot) (actuator.MotorCommand, error)
	Stop() error
}

func runMotorSteps(ctx context.Context, d motorDriver, steps []motorStep, logger *slog.Logger) error {
	for _, s := range steps {
		if s.stop {
			logger.Info("motor test", "step", s.name)
			if err := d.Stop(); err != nil {
				return err
			}
		} else {
			cmd, err := d.Drive(s.snap)
			if err != nil {
				return err
			}
			logger.Info("motor test", "step", s.name, "left", cmd.Left.String(), "right", cmd.Right.String())
		}
		if s.hold <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			logger.Info("motor test interrupted")
			return d.Stop()
		case <-time.After(s.hold):
		}
	}
	return nil
}
