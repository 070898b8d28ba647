// Package transmit sends the latest controller snapshot to the peer at a
// fixed rate.
package transmit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Alia5/padlink/internal/capture"
	"github.com/Alia5/padlink/internal/log"
	"github.com/Alia5/padlink/internal/network"
	"github.com/Alia5/padlink/pkg/controller"
	"github.com/Alia5/padlink/pkg/wire"
)

// DefaultRate is the number of datagrams sent per second.
const DefaultRate = 60

// ErrTransientSend marks a failed send. The loop logs it and carries on.
var ErrTransientSend = errors.New("transient send failure")

// Source provides the snapshot to send on each tick.
type Source interface {
	Read() controller.Snapshot
}

// Config controls where and how often snapshots are sent.
type Config struct {
	PeerIP    string
	PeerPort  int
	LocalPort int
	// Period between ticks. Zero means 1/DefaultRate.
	Period time.Duration
}

// Stats counts datagrams.
type Stats struct {
	Sent   uint64
	Failed uint64
}

// Option customizes a Transmitter.
type Option func(*Transmitter)

// WithSocketFactory replaces the socket factory (tests).
func WithSocketFactory(f network.UDPSocketFactory) Option {
	return func(t *Transmitter) { t.socketFactory = f }
}

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Transmitter) { t.now = now }
}

// WithRawLogger records every sent datagram.
func WithRawLogger(r log.RawLogger) Option {
	return func(t *Transmitter) { t.raw = r }
}

// WithCapture records every sent datagram to a pcap writer.
func WithCapture(c *capture.Writer) Option {
	return func(t *Transmitter) { t.capture = c }
}

// Transmitter owns the sending socket.
type Transmitter struct {
	cfg           Config
	src           Source
	logger        *slog.Logger
	raw           log.RawLogger
	capture       *capture.Writer
	socketFactory network.UDPSocketFactory
	now           func() time.Time

	conn      network.UDPSocket
	peer      *net.UDPAddr
	closeOnce sync.Once
	closeErr  error

	session uuid.UUID
	sent    atomic.Uint64
	failed  atomic.Uint64
}

// New creates a transmitter reading from src. Call Open before Run.
func New(cfg Config, src Source, logger *slog.Logger, opts ...Option) *Transmitter {
	if cfg.Period <= 0 {
		cfg.Period = time.Second / DefaultRate
	}
	session := uuid.New()
	t := &Transmitter{
		cfg:           cfg,
		src:           src,
		session:       session,
		logger:        logger.With("session", session.String()),
		raw:           log.NewRaw(nil),
		socketFactory: network.NewRealUDPSocketFactory(),
		now:           time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Open resolves the peer and binds the local port.
func (t *Transmitter) Open() error {
	peer, err := network.ResolvePeer(t.cfg.PeerIP, t.cfg.PeerPort)
	if err != nil {
		return fmt.Errorf("resolve peer: %w", err)
	}
	conn, err := t.socketFactory.ListenUDP("udp", &net.UDPAddr{Port: t.cfg.LocalPort}, true)
	if err != nil {
		return fmt.Errorf("bind local port %d: %w", t.cfg.LocalPort, err)
	}
	t.peer = peer
	t.conn = conn
	t.logger.Info("transmitter ready", "local", conn.LocalAddr().String(), "peer", peer.String(), "period", t.cfg.Period)
	return nil
}

// Session identifies this transmitter in logs. Every sender run gets a new
// one, so the lines of one run can be told apart from the next.
func (t *Transmitter) Session() uuid.UUID { return t.session }

// Period returns the tick period.
func (t *Transmitter) Period() time.Duration { return t.cfg.Period }

// Stats returns the send counters.
func (t *Transmitter) Stats() Stats {
	return Stats{Sent: t.sent.Load(), Failed: t.failed.Load()}
}

// Run sends one datagram per tick until ctx is cancelled. Sleep follows the
// work: each pause is the period minus the time the tick took.
func (t *Transmitter) Run(ctx context.Context) error {
	if t.conn == nil {
		return errors.New("transmitter not open")
	}
	t.logger.Info("transmitter started")
	defer func() {
		st := t.Stats()
		t.logger.Info("transmitter stopped", "sent", st.Sent, "failed", st.Failed)
	}()

	timer := time.NewTimer(t.cfg.Period)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		start := time.Now()
		if err := t.tick(); err != nil {
			t.failed.Add(1)
			t.logger.Warn("send failed", "error", err)
		}

		wait := t.cfg.Period - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}

func (t *Transmitter) tick() error {
	env := wire.Stamp(t.src.Read(), t.now())
	b, err := wire.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrTransientSend, err)
	}
	if _, err := t.conn.WriteToUDP(b, t.peer); err != nil {
		return fmt.Errorf("%w: %w", ErrTransientSend, err)
	}
	t.sent.Add(1)
	t.raw.Log(true, t.peer, b)
	if t.capture != nil {
		local, _ := t.conn.LocalAddr().(*net.UDPAddr)
		if err := t.capture.Record(local, t.peer, b, time.Now()); err != nil {
			t.logger.Debug("capture failed", "error", err)
		}
	}
	return nil
}

// Close releases the socket. It is safe to call more than once; only the
// first call closes.
func (t *Transmitter) Close() error {
	t.closeOnce.Do(func() {
		if t.conn != nil {
			t.closeErr = t.conn.Close()
		}
	})
	return t.closeErr
}
