// Package controller defines the canonical, normalized state of a gamepad as
// it is captured on the sending side and consumed on the receiving side.
package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

// Stick is the position of an analog stick. Both axes lie in [-1,1].
type Stick struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Triggers holds the analog trigger positions. Both lie in [0,1].
type Triggers struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Snapshot is one point-in-time capture of all axes and buttons.
//
// Snapshot is a plain value: it holds no references, so copies never share
// state with the original.
type Snapshot struct {
	LeftStick  Stick    `json:"left_stick"`
	RightStick Stick    `json:"right_stick"`
	Triggers   Triggers `json:"triggers"`
	Buttons    Buttons  `json:"buttons"`
}

// Normalized returns a copy with every analog field clamped to its interval
// and rounded to 3 decimals.
func (s Snapshot) Normalized() Snapshot {
	s.LeftStick = s.LeftStick.normalized()
	s.RightStick = s.RightStick.normalized()
	s.Triggers.Left = Round3(Clamp(s.Triggers.Left, 0, 1))
	s.Triggers.Right = Round3(Clamp(s.Triggers.Right, 0, 1))
	return s
}

func (st Stick) normalized() Stick {
	return Stick{
		X: Round3(Clamp(st.X, -1, 1)),
		Y: Round3(Clamp(st.Y, -1, 1)),
	}
}

// Button enumerates the digital inputs carried in a snapshot.
type Button int

const (
	ButtonA Button = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonLB
	ButtonRB
	ButtonBack
	ButtonStart
	ButtonGuide
	ButtonLeftStickClick
	ButtonRightStickClick
	ButtonDPadUp
	ButtonDPadDown
	ButtonDPadLeft
	ButtonDPadRight

	ButtonCount
)

var buttonNames = [ButtonCount]string{
	ButtonA:               "A",
	ButtonB:               "B",
	ButtonX:               "X",
	ButtonY:               "Y",
	ButtonLB:              "LB",
	ButtonRB:              "RB",
	ButtonBack:            "back",
	ButtonStart:           "start",
	ButtonGuide:           "guide",
	ButtonLeftStickClick:  "left_stick_click",
	ButtonRightStickClick: "right_stick_click",
	ButtonDPadUp:          "dpad_up",
	ButtonDPadDown:        "dpad_down",
	ButtonDPadLeft:        "dpad_left",
	ButtonDPadRight:       "dpad_right",
}

// String returns the wire name of the button.
func (b Button) String() string {
	if b < 0 || b >= ButtonCount {
		return fmt.Sprintf("Button(%d)", int(b))
	}
	return buttonNames[b]
}

// ParseButton resolves a wire name. Lookup is case-sensitive.
func ParseButton(name string) (Button, bool) {
	for i, n := range buttonNames {
		if n == name {
			return Button(i), true
		}
	}
	return 0, false
}

// Buttons is the pressed state of every enumerated button.
// Buttons that were never set read as released.
type Buttons [ButtonCount]bool

// Pressed reports whether b is down. Out-of-range buttons are never pressed.
func (bs Buttons) Pressed(b Button) bool {
	if b < 0 || b >= ButtonCount {
		return false
	}
	return bs[b]
}

// Set marks b as pressed or released.
func (bs *Buttons) Set(b Button, down bool) {
	if b < 0 || b >= ButtonCount {
		return
	}
	bs[b] = down
}

// MarshalJSON encodes the buttons as an object keyed by wire name, in
// enumeration order.
func (bs Buttons) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, down := range bs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(buttonNames[i])
		buf.WriteString(`":`)
		if down {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keyed by wire name. Missing keys are
// released and unknown keys are ignored.
func (bs *Buttons) UnmarshalJSON(data []byte) error {
	var m map[string]bool
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*bs = Buttons{}
	for name, down := range m {
		if b, ok := ParseButton(name); ok {
			bs[b] = down
		}
	}
	return nil
}

// Round3 rounds v to 3 decimal places.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Clamp limits v to [lo, hi]. NaN clamps to lo.
func Clamp[T constraints.Float](v, lo, hi T) T {
	switch {
	case v != v:
		return lo
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
