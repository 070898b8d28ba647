package embd

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kidoman/embd"

	"github.com/Alia5/padlink/pkg/controller"
)

type pinWriter interface {
	Write(val int) error
}

// softPWM toggles a digital pin from a goroutine. 0% and 100% hold the pin
// steady instead of toggling. SetDuty returns once the pin reflects the new
// duty, so a drop to 0 leaves the pin low before the caller moves on.
type softPWM struct {
	pin    pinWriter
	period time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	duty    float64
	running bool
	update  chan chan struct{}
	stop    chan struct{}
	done    chan struct{}
}

func newSoftPWM(pin pinWriter, freqHz int, logger *slog.Logger) *softPWM {
	if freqHz <= 0 {
		freqHz = 100
	}
	return &softPWM{
		pin:    pin,
		period: time.Second / time.Duration(freqHz),
		logger: logger,
		update: make(chan chan struct{}),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (p *softPWM) Start(duty float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("pwm already started")
	}
	p.running = true
	p.duty = controller.Clamp(duty, 0, 100)
	go p.loop()
	return nil
}

func (p *softPWM) SetDuty(duty float64) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return errors.New("pwm not running")
	}
	p.duty = controller.Clamp(duty, 0, 100)
	p.mu.Unlock()

	ack := make(chan struct{})
	select {
	case p.update <- ack:
	case <-p.done:
		return nil
	}
	select {
	case <-ack:
	case <-p.done:
	}
	return nil
}

// Stop ends generation and leaves the pin low. Calling it again is a no-op.
func (p *softPWM) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	close(p.stop)
	<-p.done
	return p.pin.Write(embd.Low)
}

func (p *softPWM) current() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duty
}

func (p *softPWM) loop() {
	defer close(p.done)

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	var writeFailed bool
	write := func(v int) {
		if err := p.pin.Write(v); err != nil && !writeFailed {
			p.logger.Warn("pwm write failed", "error", err)
			writeFailed = true
		}
	}
	// pending is acked once the level for the current duty is written.
	var pending chan struct{}
	ackPending := func() {
		if pending != nil {
			close(pending)
			pending = nil
		}
	}
	defer ackPending()

	// wait reports false when stopped. An update cuts the wait short.
	wait := func(d time.Duration) bool {
		timer.Reset(d)
		defer timer.Stop()
		select {
		case <-p.stop:
			return false
		case pending = <-p.update:
		case <-timer.C:
		}
		return true
	}

	for {
		duty := p.current()
		switch {
		case duty <= 0, duty >= 100:
			if duty <= 0 {
				write(embd.Low)
			} else {
				write(embd.High)
			}
			ackPending()
			select {
			case <-p.stop:
				return
			case pending = <-p.update:
			}
		default:
			on := time.Duration(float64(p.period) * duty / 100)
			write(embd.High)
			ackPending()
			if !wait(on) {
				return
			}
			if pending != nil {
				continue
			}
			write(embd.Low)
			if !wait(p.period - on) {
				return
			}
		}
	}
}
