// Package testing holds fakes shared by the package tests.
package testing

import (
	"sync"

	"github.com/Alia5/padlink/pkg/controller"
)

// FakeDevice is an in-memory input.HumanInputDevice.
type FakeDevice struct {
	mu sync.Mutex

	DeviceName string
	Range      controller.AxisRange
	Axes       []float64
	Buttons    []bool
	HatX, HatY int

	// PollErr, when set, is returned by every Poll until cleared.
	PollErr error
	Polls   int
	Closed  int
}

// NewFakeDevice returns a six-axis, eleven-button device with sticks centred
// and triggers at rest, using the Linux joystick range.
func NewFakeDevice() *FakeDevice {
	return &FakeDevice{
		DeviceName: "fake pad",
		Range:      controller.AxisRange{Min: -32767, Max: 32767},
		Axes:       []float64{0, 0, 0, 0, -32767, -32767},
		Buttons:    make([]bool, 11),
	}
}

// Set runs fn with the device locked so tests can change state while a
// sampler is running.
func (d *FakeDevice) Set(fn func(d *FakeDevice)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d)
}

func (d *FakeDevice) Name() string { return d.DeviceName }

func (d *FakeDevice) Poll() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Polls++
	return d.PollErr
}

func (d *FakeDevice) AxisCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Axes)
}

func (d *FakeDevice) Axis(i int) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Axes[i]
}

func (d *FakeDevice) AxisRange() controller.AxisRange { return d.Range }

func (d *FakeDevice) Button(i int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.Buttons) {
		return false
	}
	return d.Buttons[i]
}

func (d *FakeDevice) Hat(int) (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.HatX, d.HatY
}

func (d *FakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closed++
	return nil
}

// SnapshotRecorder collects every snapshot it is given.
type SnapshotRecorder struct {
	mu        sync.Mutex
	snapshots []controller.Snapshot
}

func (r *SnapshotRecorder) Write(s controller.Snapshot) { r.Apply(s) }

// Apply records s.
func (r *SnapshotRecorder) Apply(s controller.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

// Snapshots returns a copy of everything recorded so far.
func (r *SnapshotRecorder) Snapshots() []controller.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]controller.Snapshot(nil), r.snapshots...)
}
