// Package receive listens for controller datagrams, drops stale ones and
// hands fresh snapshots to the actuator side.
package receive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Alia5/padlink/internal/capture"
	"github.com/Alia5/padlink/internal/log"
	"github.com/Alia5/padlink/internal/network"
	"github.com/Alia5/padlink/pkg/controller"
	"github.com/Alia5/padlink/pkg/wire"
)

var (
	// ErrStalePacket marks an envelope older than the newest accepted one.
	ErrStalePacket = errors.New("stale packet")
	// ErrTransientRead marks a socket read failure other than a timeout.
	ErrTransientRead = errors.New("transient read failure")
	// ErrForeignPacket marks a datagram from a host other than the peer.
	ErrForeignPacket = errors.New("packet from unexpected host")
)

// Sink consumes accepted snapshots. Sinks run on the receive goroutine, in
// registration order, before the next datagram is read.
type Sink interface {
	Apply(controller.Snapshot)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(controller.Snapshot)

func (f SinkFunc) Apply(s controller.Snapshot) { f(s) }

// Config controls the listening socket.
type Config struct {
	ListenPort int
	// PeerIP, when set, restricts accepted datagrams to that host.
	PeerIP string
	// ReadTimeout bounds each blocking read so cancellation is observed.
	// Zero means one second.
	ReadTimeout time.Duration
	// StatsInterval is how often counters are logged. Zero means one minute.
	StatsInterval time.Duration
}

// Stats counts datagrams by outcome.
type Stats struct {
	Received   uint64
	Accepted   uint64
	Stale      uint64
	Malformed  uint64
	Foreign    uint64
	ReadErrors uint64
}

// Option customizes a Receiver.
type Option func(*Receiver)

// WithSocketFactory replaces the socket factory (tests).
func WithSocketFactory(f network.UDPSocketFactory) Option {
	return func(r *Receiver) { r.socketFactory = f }
}

// WithRawLogger records every received datagram.
func WithRawLogger(l log.RawLogger) Option {
	return func(r *Receiver) { r.raw = l }
}

// WithCapture records every received datagram to a pcap writer.
func WithCapture(c *capture.Writer) Option {
	return func(r *Receiver) { r.capture = c }
}

// Receiver owns the listening socket.
type Receiver struct {
	cfg           Config
	sinks         []Sink
	logger        *slog.Logger
	raw           log.RawLogger
	capture       *capture.Writer
	socketFactory network.UDPSocketFactory

	peerIP    net.IP
	conn      network.UDPSocket
	closeOnce sync.Once
	closeErr  error

	fresh *FreshnessFilter

	received   atomic.Uint64
	accepted   atomic.Uint64
	stale      atomic.Uint64
	malformed  atomic.Uint64
	foreign    atomic.Uint64
	readErrors atomic.Uint64
}

// New creates a receiver forwarding accepted snapshots to sinks.
func New(cfg Config, logger *slog.Logger, sinks []Sink, opts ...Option) *Receiver {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = time.Second
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = time.Minute
	}
	r := &Receiver{
		cfg:           cfg,
		sinks:         sinks,
		logger:        logger,
		raw:           log.NewRaw(nil),
		socketFactory: network.NewRealUDPSocketFactory(),
		fresh:         NewFreshnessFilter(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Open binds the listen port.
func (r *Receiver) Open() error {
	if r.cfg.PeerIP != "" {
		ip := net.ParseIP(r.cfg.PeerIP)
		if ip == nil {
			addrs, err := net.LookupIP(r.cfg.PeerIP)
			if err != nil || len(addrs) == 0 {
				return fmt.Errorf("resolve peer %q: %w", r.cfg.PeerIP, err)
			}
			ip = addrs[0]
		}
		r.peerIP = ip
	}
	conn, err := r.socketFactory.ListenUDP("udp", &net.UDPAddr{Port: r.cfg.ListenPort}, false)
	if err != nil {
		return fmt.Errorf("bind port %d: %w", r.cfg.ListenPort, err)
	}
	r.conn = conn
	r.logger.Info("receiver listening", "addr", conn.LocalAddr().String(), "peer", r.cfg.PeerIP)
	return nil
}

// LocalAddr returns the bound address, or nil before Open.
func (r *Receiver) LocalAddr() net.Addr {
	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr()
}

// Stats returns the datagram counters.
func (r *Receiver) Stats() Stats {
	return Stats{
		Received:   r.received.Load(),
		Accepted:   r.accepted.Load(),
		Stale:      r.stale.Load(),
		Malformed:  r.malformed.Load(),
		Foreign:    r.foreign.Load(),
		ReadErrors: r.readErrors.Load(),
	}
}

// Run reads datagrams until ctx is cancelled or the socket is closed.
// Nothing that happens to a single datagram ends the loop.
func (r *Receiver) Run(ctx context.Context) error {
	if r.conn == nil {
		return errors.New("receiver not open")
	}
	statsCtx, stopStats := context.WithCancel(ctx)
	defer stopStats()
	go r.logStatsEvery(statsCtx)

	buf := make([]byte, wire.MaxDatagramSize)
	var deadlineErrLogged bool

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := r.conn.SetReadDeadline(time.Now().Add(r.cfg.ReadTimeout)); err != nil && !deadlineErrLogged {
			r.logger.Warn("failed to set read deadline", "error", err)
			deadlineErrLogged = true
		}

		n, from, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if network.IsTimeout(err) {
				continue
			}
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			r.readErrors.Add(1)
			r.logger.Warn("read failed", "error", fmt.Errorf("%w: %w", ErrTransientRead, err))
			continue
		}

		if err := r.HandleDatagram(buf[:n], from); err != nil {
			switch {
			case errors.Is(err, ErrStalePacket):
				r.logger.Log(ctx, log.LevelTrace, "dropped stale packet", "from", addrString(from), "error", err)
			case errors.Is(err, ErrForeignPacket):
				r.logger.Debug("dropped packet", "from", addrString(from), "error", err)
			default:
				r.logger.Warn("dropped packet", "from", addrString(from), "error", err)
			}
		}
	}
}

// HandleDatagram decodes one datagram, applies the source and freshness
// filters and forwards the payload to the sinks. It must only be called
// from one goroutine at a time.
func (r *Receiver) HandleDatagram(data []byte, from *net.UDPAddr) error {
	r.received.Add(1)
	r.raw.Log(false, from, data)
	if r.capture != nil {
		local, _ := r.conn.LocalAddr().(*net.UDPAddr)
		if err := r.capture.Record(from, local, data, time.Now()); err != nil {
			r.logger.Debug("capture failed", "error", err)
		}
	}

	if r.peerIP != nil && (from == nil || !from.IP.Equal(r.peerIP)) {
		r.foreign.Add(1)
		return ErrForeignPacket
	}

	env, err := wire.Unmarshal(data)
	if err != nil {
		r.malformed.Add(1)
		return err
	}
	if !r.fresh.Accept(env.Timestamp) {
		r.stale.Add(1)
		return fmt.Errorf("%w: %.6f < %.6f", ErrStalePacket, env.Timestamp, r.fresh.Last())
	}
	r.accepted.Add(1)

	for _, s := range r.sinks {
		s.Apply(env.Payload)
	}
	return nil
}

func (r *Receiver) logStatsEvery(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.StatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := r.Stats()
			r.logger.Info("receiver stats",
				"received", st.Received,
				"accepted", st.Accepted,
				"stale", st.Stale,
				"malformed", st.Malformed,
				"foreign", st.Foreign,
				"readErrors", st.ReadErrors,
			)
		}
	}
}

// Close releases the socket. It is safe to call more than once.
func (r *Receiver) Close() error {
	r.closeOnce.Do(func() {
		if r.conn != nil {
			r.closeErr = r.conn.Close()
		}
	})
	return r.closeErr
}

func addrString(a *net.UDPAddr) string {
	if a == nil {
		return "?"
	}
	return a.String()
}
