// Package actuator turns controller snapshots into differential-drive motor
// output on two H-bridge channels.
package actuator

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Alia5/padlink/pkg/controller"
)

var (
	// ErrDriverInitFailed is returned when the motor outputs cannot be set up.
	ErrDriverInitFailed = errors.New("motor driver init failed")
	// ErrNotReady is returned by Drive before Setup or after Close.
	ErrNotReady = errors.New("motor driver not ready")
)

// DefaultPWMFrequency is the enable-pin PWM frequency in Hz.
const DefaultPWMFrequency = 100

// Pins holds the BCM pin numbers of both H-bridge channels.
type Pins struct {
	LeftBackward  int `help:"Left motor backward pin (BCM)" default:"17"`
	LeftForward   int `help:"Left motor forward pin (BCM)" default:"27"`
	LeftEnable    int `help:"Left motor enable/PWM pin (BCM)" default:"18"`
	RightBackward int `help:"Right motor backward pin (BCM)" default:"16"`
	RightForward  int `help:"Right motor forward pin (BCM)" default:"26"`
	RightEnable   int `help:"Right motor enable/PWM pin (BCM)" default:"19"`
}

// DefaultPins returns the wiring of the reference robot.
func DefaultPins() Pins {
	return Pins{
		LeftBackward:  17,
		LeftForward:   27,
		LeftEnable:    18,
		RightBackward: 16,
		RightForward:  26,
		RightEnable:   19,
	}
}

// State is the driver lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateRunning
	StateStopped
	StateCleanedUp
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateCleanedUp:
		return "cleaned up"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type channel struct {
	name     string
	backward int
	forward  int
	enable   int

	pwm    PWM
	dir    Direction
	dirSet bool
	duty   float64
}

// Driver owns the GPIO handle and both motor channels. It is safe for
// concurrent use.
type Driver struct {
	mu     sync.Mutex
	gpio   GPIO
	freq   int
	logger *slog.Logger
	state  State
	left   channel
	right  channel
	last   MotorCommand
}

// NewDriver creates a driver on g. Call Setup before Apply.
func NewDriver(g GPIO, pins Pins, freqHz int, logger *slog.Logger) *Driver {
	if freqHz <= 0 {
		freqHz = DefaultPWMFrequency
	}
	return &Driver{
		gpio:   g,
		freq:   freqHz,
		logger: logger,
		left:   channel{name: "left", backward: pins.LeftBackward, forward: pins.LeftForward, enable: pins.LeftEnable},
		right:  channel{name: "right", backward: pins.RightBackward, forward: pins.RightForward, enable: pins.RightEnable},
	}
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Last returns the most recently applied command.
func (d *Driver) Last() MotorCommand {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Setup configures every pin as an output and starts PWM at 0% duty.
// On failure everything acquired so far is released, the driver is left
// CleanedUp and the error wraps ErrDriverInitFailed.
func (d *Driver) Setup() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateUninitialized {
		return fmt.Errorf("%w: driver is %s", ErrDriverInitFailed, d.state)
	}
	if d.gpio == nil {
		d.state = StateCleanedUp
		return fmt.Errorf("%w: no gpio backend", ErrDriverInitFailed)
	}

	for _, ch := range []*channel{&d.left, &d.right} {
		for _, pin := range []int{ch.backward, ch.forward, ch.enable} {
			if err := d.gpio.SetOutput(pin); err != nil {
				d.release()
				return fmt.Errorf("%w: %s pin %d: %w", ErrDriverInitFailed, ch.name, pin, err)
			}
		}
	}
	for _, ch := range []*channel{&d.left, &d.right} {
		pwm, err := d.gpio.PWM(ch.enable, d.freq)
		if err != nil {
			d.release()
			return fmt.Errorf("%w: %s pwm on pin %d: %w", ErrDriverInitFailed, ch.name, ch.enable, err)
		}
		if err := pwm.Start(0); err != nil {
			_ = pwm.Stop()
			d.release()
			return fmt.Errorf("%w: %s pwm start: %w", ErrDriverInitFailed, ch.name, err)
		}
		ch.pwm = pwm
	}

	d.state = StateReady
	d.logger.Info("motor driver ready",
		"left", fmt.Sprintf("bwd=%d fwd=%d en=%d", d.left.backward, d.left.forward, d.left.enable),
		"right", fmt.Sprintf("bwd=%d fwd=%d en=%d", d.right.backward, d.right.forward, d.right.enable),
		"pwmHz", d.freq)
	return nil
}

// Apply drives the motors from s. Before Setup and after Close it only logs
// a warning. It satisfies receive.Sink.
func (d *Driver) Apply(s controller.Snapshot) {
	if _, err := d.Drive(s); err != nil {
		d.logger.Warn("motor command not applied", "error", err)
	}
}

// Drive mixes s into a command and writes it to both channels. Direction
// pins are always set before the duty is raised, and a channel whose
// direction flips is first brought to 0% duty.
func (d *Driver) Drive(s controller.Snapshot) (MotorCommand, error) {
	cmd := Mix(s)

	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateReady, StateRunning, StateStopped:
	default:
		return cmd, fmt.Errorf("%w: driver is %s", ErrNotReady, d.state)
	}
	d.state = StateRunning

	var errs []error
	if err := d.drive(&d.left, cmd.Left); err != nil {
		errs = append(errs, err)
	}
	if err := d.drive(&d.right, cmd.Right); err != nil {
		errs = append(errs, err)
	}
	d.last = cmd
	d.logger.Debug("motors",
		"steer", cmd.Steering.Dir.String(), "steerMag", cmd.Steering.Magnitude,
		"throttle", cmd.Throttle.Dir.String(), "throttleMag", cmd.Throttle.Magnitude,
		"left", cmd.Left.String(), "right", cmd.Right.String())
	return cmd, errors.Join(errs...)
}

func (d *Driver) drive(ch *channel, want Side) error {
	if ch.dirSet && ch.dir != want.Dir && ch.duty != 0 {
		if err := ch.pwm.SetDuty(0); err != nil {
			return fmt.Errorf("%s duty: %w", ch.name, err)
		}
		ch.duty = 0
	}
	if !ch.dirSet || ch.dir != want.Dir {
		bwd, fwd := Low, High
		if want.Dir == Backward {
			bwd, fwd = High, Low
		}
		if err := d.gpio.Write(ch.backward, bwd); err != nil {
			return fmt.Errorf("%s backward pin: %w", ch.name, err)
		}
		if err := d.gpio.Write(ch.forward, fwd); err != nil {
			return fmt.Errorf("%s forward pin: %w", ch.name, err)
		}
		ch.dir = want.Dir
		ch.dirSet = true
	}
	if ch.duty != want.Duty {
		if err := ch.pwm.SetDuty(want.Duty); err != nil {
			return fmt.Errorf("%s duty: %w", ch.name, err)
		}
		ch.duty = want.Duty
	}
	return nil
}

// Stop forces both channels to 0% duty. Direction pins are left as they are.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateReady, StateRunning, StateStopped:
	default:
		return fmt.Errorf("%w: driver is %s", ErrNotReady, d.state)
	}
	var errs []error
	for _, ch := range []*channel{&d.left, &d.right} {
		if err := ch.pwm.SetDuty(0); err != nil {
			errs = append(errs, fmt.Errorf("%s duty: %w", ch.name, err))
			continue
		}
		ch.duty = 0
	}
	d.state = StateStopped
	d.logger.Debug("motors stopped")
	return errors.Join(errs...)
}

// Close stops the motors and releases all outputs. It can be called from
// any state and more than once.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateCleanedUp {
		return nil
	}
	err := d.release()
	d.logger.Info("motor driver cleaned up")
	return err
}

// release tears down whatever has been acquired. d.mu must be held.
func (d *Driver) release() error {
	var errs []error
	for _, ch := range []*channel{&d.left, &d.right} {
		if ch.pwm != nil {
			if err := ch.pwm.SetDuty(0); err != nil {
				errs = append(errs, err)
			}
			if err := ch.pwm.Stop(); err != nil {
				errs = append(errs, err)
			}
			ch.pwm = nil
		}
		ch.duty = 0
		ch.dirSet = false
	}
	if d.gpio != nil {
		if err := d.gpio.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	d.state = StateCleanedUp
	return errors.Join(errs...)
}
