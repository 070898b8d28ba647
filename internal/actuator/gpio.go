package actuator

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Level is a digital output level.
type Level int

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// PWM drives one enable pin. Duty is a percentage in [0,100].
type PWM interface {
	Start(duty float64) error
	SetDuty(duty float64) error
	Stop() error
}

// GPIO is the hardware capability the driver needs. Pins use BCM numbering.
type GPIO interface {
	SetOutput(pin int) error
	Write(pin int, l Level) error
	PWM(pin int, freqHz int) (PWM, error)
	// Close releases every pin acquired through this GPIO.
	Close() error
}

// OpenFunc opens a GPIO backend.
type OpenFunc func(logger *slog.Logger) (GPIO, error)

var errUnknownBackend = errors.New("unknown gpio backend")

var (
	backends   = make(map[string]OpenFunc)
	backendsMu sync.RWMutex
)

// RegisterBackend registers a GPIO backend under name.
// This should be called from backend package init() functions.
func RegisterBackend(name string, open OpenFunc) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[strings.ToLower(name)] = open
}

// Backends lists the registered backend names, sorted.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// OpenBackend opens the named GPIO backend. Every failure wraps
// ErrDriverInitFailed.
func OpenBackend(name string, logger *slog.Logger) (GPIO, error) {
	backendsMu.RLock()
	open, ok := backends[strings.ToLower(name)]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %w %q (available: %s)", ErrDriverInitFailed, errUnknownBackend, name, strings.Join(Backends(), ", "))
	}
	g, err := open(logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDriverInitFailed, name, err)
	}
	return g, nil
}
