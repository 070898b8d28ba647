// Package sim is a GPIO backend without hardware. It logs and records
// every pin and duty operation.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Alia5/padlink/internal/actuator"
	"github.com/Alia5/padlink/internal/log"
)

// Name is the backend name used with --gpio.backend.
const Name = "sim"

func init() {
	actuator.RegisterBackend(Name, func(logger *slog.Logger) (actuator.GPIO, error) {
		return New(logger), nil
	})
}

// Op identifies a recorded operation.
type Op string

const (
	OpSetOutput Op = "setup"
	OpWrite     Op = "write"
	OpPWM       Op = "pwm"
	OpStart     Op = "start"
	OpDuty      Op = "duty"
	OpStop      Op = "stop"
	OpClose     Op = "close"
)

// Event is one recorded operation.
type Event struct {
	Op    Op
	Pin   int
	Level actuator.Level
	Duty  float64
	Freq  int
}

func (e Event) String() string {
	switch e.Op {
	case OpWrite:
		return fmt.Sprintf("%s %d %s", e.Op, e.Pin, e.Level)
	case OpPWM:
		return fmt.Sprintf("%s %d %dHz", e.Op, e.Pin, e.Freq)
	case OpStart, OpDuty:
		return fmt.Sprintf("%s %d %.1f", e.Op, e.Pin, e.Duty)
	case OpClose:
		return string(e.Op)
	}
	return fmt.Sprintf("%s %d", e.Op, e.Pin)
}

type failure struct {
	op  Op
	pin int
}

// GPIO records operations in memory.
type GPIO struct {
	mu     sync.Mutex
	logger *slog.Logger
	events []Event
	levels map[int]actuator.Level
	duty   map[int]float64
	fail   map[failure]error
	closed bool
}

// New creates a simulated GPIO.
func New(logger *slog.Logger) *GPIO {
	return &GPIO{
		logger: logger,
		levels: make(map[int]actuator.Level),
		duty:   make(map[int]float64),
		fail:   make(map[failure]error),
	}
}

// FailOn makes op on pin return err.
func (g *GPIO) FailOn(op Op, pin int, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail[failure{op, pin}] = err
}

func (g *GPIO) record(e Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.fail[failure{e.Op, e.Pin}]; err != nil {
		return err
	}
	if g.closed && e.Op != OpClose {
		return fmt.Errorf("sim gpio: %s after close", e.Op)
	}
	g.events = append(g.events, e)
	switch e.Op {
	case OpWrite:
		g.levels[e.Pin] = e.Level
	case OpStart, OpDuty:
		g.duty[e.Pin] = e.Duty
	case OpStop:
		g.duty[e.Pin] = 0
	case OpClose:
		g.closed = true
	}
	g.logger.Log(context.Background(), log.LevelTrace, "sim gpio", "op", e.String())
	return nil
}

// SetOutput records a pin setup.
func (g *GPIO) SetOutput(pin int) error {
	return g.record(Event{Op: OpSetOutput, Pin: pin})
}

// Write records a level change.
func (g *GPIO) Write(pin int, l actuator.Level) error {
	return g.record(Event{Op: OpWrite, Pin: pin, Level: l})
}

// PWM records PWM creation on pin.
func (g *GPIO) PWM(pin int, freqHz int) (actuator.PWM, error) {
	if err := g.record(Event{Op: OpPWM, Pin: pin, Freq: freqHz}); err != nil {
		return nil, err
	}
	return &pwm{g: g, pin: pin}, nil
}

// Close records the release. Later operations fail.
func (g *GPIO) Close() error {
	return g.record(Event{Op: OpClose})
}

// Events returns a copy of the recorded operations.
func (g *GPIO) Events() []Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Event(nil), g.events...)
}

// Level returns the last level written to pin.
func (g *GPIO) Level(pin int) actuator.Level {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin]
}

// Duty returns the current duty of the PWM on pin.
func (g *GPIO) Duty(pin int) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.duty[pin]
}

// Closed reports whether Close was called.
func (g *GPIO) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

type pwm struct {
	g   *GPIO
	pin int
}

func (p *pwm) Start(duty float64) error {
	return p.g.record(Event{Op: OpStart, Pin: p.pin, Duty: duty})
}

func (p *pwm) SetDuty(duty float64) error {
	return p.g.record(Event{Op: OpDuty, Pin: p.pin, Duty: duty})
}

func (p *pwm) Stop() error {
	return p.g.record(Event{Op: OpStop, Pin: p.pin})
}
