// Package network wraps the UDP sockets used by the transmitter and the
// receiver behind small interfaces so the loops can be tested without a
// real network.
package network

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"
)

// UDPSocket defines the UDP socket operations used by padlink.
type UDPSocket interface {
	// ReadFromUDP reads a UDP packet from the socket.
	ReadFromUDP(b []byte) (n int, addr *net.UDPAddr, err error)

	// WriteToUDP sends one datagram to addr.
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)

	// SetReadDeadline sets the deadline for future Read calls.
	SetReadDeadline(t time.Time) error

	// Close closes the socket.
	Close() error

	// LocalAddr returns the local network address.
	LocalAddr() net.Addr
}

// UDPSocketFactory creates UDP sockets.
type UDPSocketFactory interface {
	// ListenUDP binds a new socket. With reuseAddr the address may be bound
	// while a previous socket on it lingers.
	ListenUDP(network string, laddr *net.UDPAddr, reuseAddr bool) (UDPSocket, error)
}

// RealUDPSocketFactory binds real sockets.
type RealUDPSocketFactory struct{}

// NewRealUDPSocketFactory creates a new RealUDPSocketFactory.
func NewRealUDPSocketFactory() *RealUDPSocketFactory {
	return &RealUDPSocketFactory{}
}

// ListenUDP creates a new UDP socket.
func (f *RealUDPSocketFactory) ListenUDP(network string, laddr *net.UDPAddr, reuseAddr bool) (UDPSocket, error) {
	lc := net.ListenConfig{}
	if reuseAddr {
		lc.Control = reuseAddrControl
	}
	address := ""
	if laddr != nil {
		address = laddr.String()
	}
	pc, err := lc.ListenPacket(context.Background(), network, address)
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}

// IsTimeout reports whether err is a read deadline expiry.
func IsTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ResolvePeer resolves ip and port into a UDP address.
func ResolvePeer(ip string, port int) (*net.UDPAddr, error) {
	return net.ResolveUDPAddr("udp", net.JoinHostPort(ip, strconv.Itoa(port)))
}
