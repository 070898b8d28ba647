// Package capture records datagrams to a pcap file so a session can be
// inspected afterwards with standard tools (Wireshark, tcpdump -r).
//
// Datagrams are wrapped in synthesized Ethernet/IP/UDP headers built from
// the socket addresses; link-layer addresses are zero.
package capture

import (
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const snapLen = 65536

// Writer appends datagrams to a pcap stream. It is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	w      *pcapgo.Writer
	closer io.Closer
	count  int
}

// Create creates (or truncates) path and writes the pcap file header.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// NewWriter writes the pcap file header to w.
func NewWriter(w io.Writer) (*Writer, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		return nil, fmt.Errorf("capture: write header: %w", err)
	}
	return &Writer{w: pw}, nil
}

// Record appends one datagram sent from src to dst at ts.
func (c *Writer) Record(src, dst *net.UDPAddr, payload []byte, ts time.Time) error {
	frame, err := buildFrame(src, dst, payload)
	if err != nil {
		return fmt.Errorf("capture: build frame: %w", err)
	}
	ci := gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(frame),
		Length:        len(frame),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.w.WritePacket(ci, frame); err != nil {
		return fmt.Errorf("capture: write packet: %w", err)
	}
	c.count++
	return nil
}

// Count returns the number of recorded datagrams.
func (c *Writer) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Close closes the underlying file, if Create opened one.
func (c *Writer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	return err
}

func buildFrame(src, dst *net.UDPAddr, payload []byte) ([]byte, error) {
	srcIP, srcPort := endpoint(src)
	dstIP, dstPort := endpoint(dst)

	udp := &layers.UDP{
		SrcPort: layers.UDPPort(srcPort),
		DstPort: layers.UDPPort(dstPort),
	}
	eth := &layers.Ethernet{
		SrcMAC: net.HardwareAddr{0, 0, 0, 0, 0, 0},
		DstMAC: net.HardwareAddr{0, 0, 0, 0, 0, 0},
	}

	var network gopacket.SerializableLayer
	if src4, dst4 := srcIP.To4(), dstIP.To4(); src4 != nil && dst4 != nil {
		eth.EthernetType = layers.EthernetTypeIPv4
		ip := &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    src4,
			DstIP:    dst4,
		}
		if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
			return nil, err
		}
		network = ip
	} else {
		eth.EthernetType = layers.EthernetTypeIPv6
		ip := &layers.IPv6{
			Version:    6,
			HopLimit:   64,
			NextHeader: layers.IPProtocolUDP,
			SrcIP:      srcIP.To16(),
			DstIP:      dstIP.To16(),
		}
		if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
			return nil, err
		}
		network = ip
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, network, udp, gopacket.Payload(payload)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func endpoint(a *net.UDPAddr) (net.IP, int) {
	if a == nil || a.IP == nil {
		return net.IPv4zero, portOf(a)
	}
	return a.IP, a.Port
}

func portOf(a *net.UDPAddr) int {
	if a == nil {
		return 0
	}
	return a.Port
}
