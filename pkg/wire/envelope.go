// Package wire implements the datagram format exchanged between sender and
// receiver.
//
// Each datagram carries a single JSON object:
//
//	{"timestamp": <float seconds>, "controller_data": {
//	  "left_stick": {"x": f, "y": f}, "right_stick": {"x": f, "y": f},
//	  "triggers": {"left": f, "right": f}, "buttons": {"<name>": bool, ...}}}
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Alia5/padlink/pkg/controller"
)

// MaxDatagramSize is the receive buffer size. An encoded envelope is well
// below it.
const MaxDatagramSize = 4096

// ErrMalformedPacket is returned by Unmarshal when a datagram cannot be
// decoded into an Envelope.
var ErrMalformedPacket = errors.New("malformed packet")

// Envelope is a snapshot plus the time it was stamped by the sender.
type Envelope struct {
	// Timestamp is in seconds since the Unix epoch, sender clock.
	Timestamp float64             `json:"timestamp"`
	Payload   controller.Snapshot `json:"controller_data"`
}

// Stamp wraps s in an Envelope stamped with t.
func Stamp(s controller.Snapshot, t time.Time) Envelope {
	return Envelope{Timestamp: Seconds(t), Payload: s}
}

// Seconds converts t to float seconds since the Unix epoch.
func Seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Marshal encodes an envelope into a datagram payload.
func Marshal(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal decodes a datagram payload. Any failure, including a missing
// timestamp or controller_data member, wraps ErrMalformedPacket.
func Unmarshal(data []byte) (Envelope, error) {
	var raw struct {
		Timestamp *float64             `json:"timestamp"`
		Payload   *controller.Snapshot `json:"controller_data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformedPacket, err)
	}
	if raw.Timestamp == nil {
		return Envelope{}, fmt.Errorf("%w: missing timestamp", ErrMalformedPacket)
	}
	if raw.Payload == nil {
		return Envelope{}, fmt.Errorf("%w: missing controller_data", ErrMalformedPacket)
	}
	return Envelope{Timestamp: *raw.Timestamp, Payload: raw.Payload.Normalized()}, nil
}
