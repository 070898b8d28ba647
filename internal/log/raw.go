package log

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// RawLogger records datagram payloads exactly as they crossed the socket.
type RawLogger interface {
	// Log records one datagram. out is true for sent datagrams.
	Log(out bool, peer net.Addr, data []byte)
}

// NewRaw returns a RawLogger writing one line per datagram to w.
// A nil writer yields a logger that discards everything.
func NewRaw(w io.Writer) RawLogger {
	if w == nil {
		return nopRaw{}
	}
	return &rawLogger{w: w}
}

type nopRaw struct{}

func (nopRaw) Log(bool, net.Addr, []byte) {}

type rawLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (r *rawLogger) Log(out bool, peer net.Addr, data []byte) {
	dir := "<-"
	if out {
		dir = "->"
	}
	addr := "?"
	if peer != nil {
		addr = peer.String()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.w, "%s %s %s %d %s\n", time.Now().Format("15:04:05.000000"), dir, addr, len(data), data)
}
