// Package input samples a human-input device and produces normalized
// controller snapshots.
package input

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Alia5/padlink/pkg/controller"
)

// ErrDeviceUnavailable is returned when no input device can be opened.
var ErrDeviceUnavailable = errors.New("input device unavailable")

// HumanInputDevice is the capability the sampler needs from a gamepad
// backend. Axis values are raw device units within AxisRange.
type HumanInputDevice interface {
	Name() string
	// Poll refreshes the device state. Accessors report the state captured
	// by the last successful Poll.
	Poll() error
	AxisCount() int
	Axis(i int) float64
	AxisRange() controller.AxisRange
	Button(i int) bool
	// Hat returns the direction of hat i: x < 0 is left, y < 0 is up.
	Hat(i int) (x, y int)
	Close() error
}

// OpenFunc opens the device with the given index.
type OpenFunc func(index int) (HumanInputDevice, error)

var (
	backends   = make(map[string]OpenFunc)
	backendsMu sync.RWMutex
)

// RegisterBackend registers an input backend under name.
// This should be called from backend package init() functions.
// The name is case-insensitive and will be lowercased.
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

// Open opens device index through the named backend. Every failure wraps
// ErrDeviceUnavailable.
func Open(backend string, index int) (HumanInputDevice, error) {
	backendsMu.RLock()
	open, ok := backends[strings.ToLower(backend)]
	backendsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown backend %q (available: %s)", ErrDeviceUnavailable, backend, strings.Join(Backends(), ", "))
	}
	dev, err := open(index)
	if err != nil {
		if errors.Is(err, ErrDeviceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s device %d: %w", ErrDeviceUnavailable, backend, index, err)
	}
	return dev, nil
}
