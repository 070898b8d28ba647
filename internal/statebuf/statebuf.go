// Package statebuf provides the single-slot hand-off between the input
// sampler and the transmitter.
package statebuf

import (
	"sync"

	"github.com/Alia5/padlink/pkg/controller"
)

// Buffer holds the most recent snapshot. It is not a queue: a write
// replaces whatever was there, so intermediate samples are dropped when the
// reader is slower than the writer.
//
// The zero value is ready to use and reads as the neutral snapshot.
type Buffer struct {
	mu      sync.Mutex
	latest  controller.Snapshot
	updates uint64
}

// New returns an empty buffer.
func New() *Buffer { return &Buffer{} }

// Write replaces the stored snapshot.
func (b *Buffer) Write(s controller.Snapshot) {
	b.mu.Lock()
	b.latest = s
	b.updates++
	b.mu.Unlock()
}

// Read returns a copy of the stored snapshot.
func (b *Buffer) Read() controller.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest
}

// Updates returns how many times Write has been called.
func (b *Buffer) Updates() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updates
}
