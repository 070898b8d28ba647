// Package embd drives the motor pins through github.com/kidoman/embd.
// Speed control uses software PWM on the enable pins.
package embd

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all"

	"github.com/Alia5/padlink/internal/actuator"
)

// Name is the backend name used with --gpio.backend.
const Name = "embd"

func init() {
	actuator.RegisterBackend(Name, Open)
}

// GPIO owns the embd pins opened by the driver.
type GPIO struct {
	mu     sync.Mutex
	logger *slog.Logger
	pins   map[int]embd.DigitalPin
	pwms   []*softPWM
	closed bool
}

// Open initialises the host GPIO driver.
func Open(logger *slog.Logger) (actuator.GPIO, error) {
	if err := embd.InitGPIO(); err != nil {
		return nil, fmt.Errorf("init gpio: %w", err)
	}
	return &GPIO{logger: logger, pins: make(map[int]embd.DigitalPin)}, nil
}

// SetOutput opens pin and configures it as an output.
func (g *GPIO) SetOutput(pin int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return errors.New("gpio closed")
	}
	if _, ok := g.pins[pin]; ok {
		return nil
	}
	p, err := embd.NewDigitalPin(pin)
	if err != nil {
		return fmt.Errorf("open pin %d: %w", pin, err)
	}
	if err := p.SetDirection(embd.Out); err != nil {
		_ = p.Close()
		return fmt.Errorf("pin %d direction: %w", pin, err)
	}
	g.pins[pin] = p
	return nil
}

func (g *GPIO) pin(n int) (embd.DigitalPin, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, errors.New("gpio closed")
	}
	p, ok := g.pins[n]
	if !ok {
		return nil, fmt.Errorf("pin %d is not an output", n)
	}
	return p, nil
}

// Write sets pin to l.
func (g *GPIO) Write(pin int, l actuator.Level) error {
	p, err := g.pin(pin)
	if err != nil {
		return err
	}
	return p.Write(embdLevel(l))
}

// PWM starts a software PWM generator on pin.
func (g *GPIO) PWM(pin int, freqHz int) (actuator.PWM, error) {
	p, err := g.pin(pin)
	if err != nil {
		return nil, err
	}
	pwm := newSoftPWM(p, freqHz, g.logger.With("pin", pin))
	g.mu.Lock()
	g.pwms = append(g.pwms, pwm)
	g.mu.Unlock()
	return pwm, nil
}

// Close stops PWM generation, drives every pin low and releases them.
func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true

	var errs []error
	for _, pwm := range g.pwms {
		if err := pwm.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	for n, p := range g.pins {
		if err := p.Write(embd.Low); err != nil {
			errs = append(errs, fmt.Errorf("pin %d: %w", n, err))
		}
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("pin %d: %w", n, err))
		}
	}
	if err := embd.CloseGPIO(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func embdLevel(l actuator.Level) int {
	if l == actuator.High {
		return embd.High
	}
	return embd.Low
}
