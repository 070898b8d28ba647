package network

import (
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealUDPSocketFactory_Loopback(t *testing.T) {
	factory := NewRealUDPSocketFactory()
	loopback := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0}

	rx, err := factory.ListenUDP("udp", loopback, false)
	require.NoError(t, err)
	defer rx.Close()

	tx, err := factory.ListenUDP("udp", loopback, true)
	require.NoError(t, err)
	defer tx.Close()

	dst := rx.LocalAddr().(*net.UDPAddr)
	_, err = tx.WriteToUDP([]byte("ping"), dst)
	require.NoError(t, err)

	require.NoError(t, rx.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 64)
	n, from, err := rx.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))
	assert.Equal(t, tx.LocalAddr().(*net.UDPAddr).Port, from.Port)
}

func TestRealUDPSocket_ReadDeadlineIsTimeout(t *testing.T) {
	s, err := NewRealUDPSocketFactory().ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")}, false)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SetReadDeadline(time.Now().Add(20*time.Millisecond)))
	_, _, err = s.ReadFromUDP(make([]byte, 8))
	assert.True(t, IsTimeout(err))
	assert.False(t, IsTimeout(errors.New("other")))
}

type fakeTimeoutError struct{ timeout bool }

func (e fakeTimeoutError) Error() string   { return "i/o timeout" }
func (e fakeTimeoutError) Timeout() bool   { return e.timeout }
func (e fakeTimeoutError) Temporary() bool { return e.timeout }

func TestIsTimeout_Wrapped(t *testing.T) {
	assert.True(t, IsTimeout(fakeTimeoutError{timeout: true}))
	assert.True(t, IsTimeout(fmt.Errorf("read: %w", fakeTimeoutError{timeout: true})))
	assert.True(t, IsTimeout(&net.OpError{Op: "read", Net: "udp", Err: fakeTimeoutError{timeout: true}}))
	assert.False(t, IsTimeout(fmt.Errorf("read: %w", fakeTimeoutError{})))
	assert.False(t, IsTimeout(nil))
}

func TestResolvePeer(t *testing.T) {
	addr, err := ResolvePeer("127.0.0.1", 5001)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5001", addr.String())

	addr, err = ResolvePeer("::1", 5000)
	require.NoError(t, err)
	assert.Equal(t, "[::1]:5000", addr.String())
}

func TestMockUDPSocket_ReadBlocksUntilDeadline(t *testing.T) {
	m := NewMockUDPSocket()
	require.NoError(t, m.SetReadDeadline(time.Now().Add(30*time.Millisecond)))

	start := time.Now()
	_, _, err := m.ReadFromUDP(make([]byte, 8))
	assert.True(t, IsTimeout(err))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestMockUDPSocket_InjectAndClose(t *testing.T) {
	from := &net.UDPAddr{IP: net.ParseIP("10.0.0.36"), Port: 5000}
	m := NewMockUDPSocket(MockUDPPacket{Data: []byte("first"), Addr: from})
	m.Inject([]byte("second"), from)

	buf := make([]byte, 16)
	n, addr, err := m.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, "first", string(buf[:n]))
	assert.Equal(t, from, addr)

	n, _, err = m.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, "second", string(buf[:n]))

	assert.NoError(t, m.Close())
	assert.ErrorIs(t, m.Close(), net.ErrClosed)
	assert.Equal(t, 2, m.Closes())

	_, _, err = m.ReadFromUDP(buf)
	assert.ErrorIs(t, err, net.ErrClosed)
	_, err = m.WriteToUDP([]byte("x"), from)
	assert.ErrorIs(t, err, net.ErrClosed)
}
