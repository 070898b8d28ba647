package actuator

import (
	"fmt"
	"math"

	"github.com/Alia5/padlink/pkg/controller"
)

// Direction is the rotation direction of one motor side.
type Direction int

const (
	Backward Direction = iota
	Forward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// SteerDir is the steering direction.
type SteerDir int

const (
	SteerLeft SteerDir = iota
	SteerRight
)

func (d SteerDir) String() string {
	if d == SteerRight {
		return "right"
	}
	return "left"
}

// Steering is the steering intent. Magnitude is in [0,100].
type Steering struct {
	Dir       SteerDir
	Magnitude float64
}

// Throttle is the drive intent. Magnitude is in [0,100].
type Throttle struct {
	Dir       Direction
	Magnitude float64
}

// Side is what one motor channel is driven with.
type Side struct {
	Dir  Direction
	Duty float64
}

func (s Side) String() string { return fmt.Sprintf("%s %.1f%%", s.Dir, s.Duty) }

// MotorCommand is derived from one accepted snapshot.
type MotorCommand struct {
	Steering Steering
	Throttle Throttle
	Left     Side
	Right    Side
}

// Mix maps a snapshot to a differential-drive command.
//
// Steering comes from the left stick x axis: x > 0 steers right, anything
// else steers left, so a centred stick is "left at 0". Throttle is forward
// when the right trigger is pressed and otherwise backward by the left
// trigger, so two released triggers are "backward at 0".
//
// Each side gets throttle plus or minus steering, clamped to 100. A side
// runs forward only when its value is positive.
func Mix(s controller.Snapshot) MotorCommand {
	var cmd MotorCommand

	if x := s.LeftStick.X; x > 0 {
		cmd.Steering = Steering{Dir: SteerRight, Magnitude: percent(x)}
	} else {
		cmd.Steering = Steering{Dir: SteerLeft, Magnitude: percent(0 - x)}
	}

	if r := percent(s.Triggers.Right); r > 0 {
		cmd.Throttle = Throttle{Dir: Forward, Magnitude: r}
	} else {
		cmd.Throttle = Throttle{Dir: Backward, Magnitude: percent(s.Triggers.Left)}
	}

	t := cmd.Throttle.Magnitude
	if cmd.Throttle.Dir == Backward {
		t = -t
	}
	st := cmd.Steering.Magnitude
	if cmd.Steering.Dir == SteerLeft {
		st = -st
	}
	cmd.Left = side(t + st)
	cmd.Right = side(t - st)
	return cmd
}

func percent(v float64) float64 {
	return controller.Round3(controller.Clamp(v*100, 0, 100))
}

func side(v float64) Side {
	v = controller.Clamp(v, -100, 100)
	if v > 0 {
		return Side{Dir: Forward, Duty: v}
	}
	return Side{Dir: Backward, Duty: math.Abs(v)}
}
