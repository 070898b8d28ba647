package network

import (
	"net"
	"sync"
	"time"
)

// MockUDPPacket represents a packet for mock testing.
type MockUDPPacket struct {
	Data []byte
	Addr *net.UDPAddr
}

// MockUDPSocket is an in-memory UDPSocket. Reads block until a packet is
// injected, the read deadline passes, or the socket is closed.
type MockUDPSocket struct {
	mu       sync.Mutex
	inbound  chan MockUDPPacket
	closed   chan struct{}
	deadline time.Time
	written  []MockUDPPacket

	// LocalAddress is returned by LocalAddr.
	LocalAddress *net.UDPAddr
	// WriteError, when set, is returned by every WriteToUDP.
	WriteError error
	// ReadError is returned once by the next ReadFromUDP if set.
	ReadError error
	// CloseCalls counts Close invocations.
	CloseCalls int
}

// NewMockUDPSocket creates a mock socket preloaded with packets.
func NewMockUDPSocket(packets ...MockUDPPacket) *MockUDPSocket {
	m := &MockUDPSocket{
		inbound: make(chan MockUDPPacket, 1024),
		closed:  make(chan struct{}),
		LocalAddress: &net.UDPAddr{
			IP:   net.ParseIP("127.0.0.1"),
			Port: 5001,
		},
	}
	for _, p := range packets {
		m.inbound <- p
	}
	return m
}

// Inject queues a packet for a future read.
func (m *MockUDPSocket) Inject(data []byte, from *net.UDPAddr) {
	m.inbound <- MockUDPPacket{Data: data, Addr: from}
}

// Pending returns the number of injected packets not yet read.
func (m *MockUDPSocket) Pending() int { return len(m.inbound) }

// ReadFromUDP returns the next injected packet.
func (m *MockUDPSocket) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	m.mu.Lock()
	if m.ReadError != nil {
		err := m.ReadError
		m.ReadError = nil
		m.mu.Unlock()
		return 0, nil, err
	}
	deadline := m.deadline
	m.mu.Unlock()

	var timeout <-chan time.Time
	if !deadline.IsZero() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-m.closed:
		return 0, nil, net.ErrClosed
	default:
	}

	select {
	case pkt := <-m.inbound:
		return copy(b, pkt.Data), pkt.Addr, nil
	case <-m.closed:
		return 0, nil, net.ErrClosed
	case <-timeout:
		return 0, nil, &net.OpError{Op: "read", Net: "udp", Err: timeoutError{}}
	}
}

// WriteToUDP records the datagram.
func (m *MockUDPSocket) WriteToUDP(b []byte, addr *net.UDPAddr) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.closed:
		return 0, net.ErrClosed
	default:
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	m.written = append(m.written, MockUDPPacket{Data: append([]byte(nil), b...), Addr: addr})
	return len(b), nil
}

// Written returns a copy of all datagrams sent so far.
func (m *MockUDPSocket) Written() []MockUDPPacket {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockUDPPacket(nil), m.written...)
}

// SetWriteError changes WriteError while the socket is in use.
func (m *MockUDPSocket) SetWriteError(err error) {
	m.mu.Lock()
	m.WriteError = err
	m.mu.Unlock()
}

// SetReadDeadline records the deadline.
func (m *MockUDPSocket) SetReadDeadline(t time.Time) error {
	m.mu.Lock()
	m.deadline = t
	m.mu.Unlock()
	return nil
}

// Close marks the socket as closed. Every call is counted; only the first
// has an effect.
func (m *MockUDPSocket) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	select {
	case <-m.closed:
		return net.ErrClosed
	default:
		close(m.closed)
	}
	return nil
}

// Closes returns how many times Close was called.
func (m *MockUDPSocket) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CloseCalls
}

// LocalAddr returns the mock local address.
func (m *MockUDPSocket) LocalAddr() net.Addr {
	return m.LocalAddress
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// MockUDPSocketFactory implements UDPSocketFactory for testing.
type MockUDPSocketFactory struct {
	// Socket is the socket to return from ListenUDP.
	Socket *MockUDPSocket
	// Error is returned by ListenUDP if set.
	Error error
	// ListenCalls records all ListenUDP calls.
	ListenCalls []MockListenCall
}

// MockListenCall records a call to ListenUDP.
type MockListenCall struct {
	Network   string
	Addr      *net.UDPAddr
	ReuseAddr bool
}

// NewMockUDPSocketFactory creates a new MockUDPSocketFactory.
func NewMockUDPSocketFactory(socket *MockUDPSocket) *MockUDPSocketFactory {
	return &MockUDPSocketFactory{Socket: socket}
}

// ListenUDP records the call and returns the configured socket or error.
func (f *MockUDPSocketFactory) ListenUDP(network string, laddr *net.UDPAddr, reuseAddr bool) (UDPSocket, error) {
	f.ListenCalls = append(f.ListenCalls, MockListenCall{Network: network, Addr: laddr, ReuseAddr: reuseAddr})
	if f.Error != nil {
		return nil, f.Error
	}
	return f.Socket, nil
}
