package input

import (
	"context"
	"log/slog"
	"time"

	"github.com/Alia5/padlink/pkg/controller"
)

// MinPeriod is the shortest allowed pause between two polls.
const MinPeriod = 10 * time.Millisecond

// AxisMap assigns device axis indices to snapshot fields. An index outside
// the device's axis count reads as neutral.
type AxisMap struct {
	LeftX        int `help:"Axis index of the left stick X" default:"0"`
	LeftY        int `help:"Axis index of the left stick Y" default:"1"`
	RightX       int `help:"Axis index of the right stick X" default:"2"`
	RightY       int `help:"Axis index of the right stick Y" default:"3"`
	LeftTrigger  int `help:"Axis index of the left trigger" default:"4"`
	RightTrigger int `help:"Axis index of the right trigger" default:"5"`
	Hat          int `help:"Hat index used for the dpad" default:"0"`
}

// DefaultAxisMap is the XInput-style layout.
func DefaultAxisMap() AxisMap {
	return AxisMap{LeftX: 0, LeftY: 1, RightX: 2, RightY: 3, LeftTrigger: 4, RightTrigger: 5, Hat: 0}
}

// buttonOrder maps device button indices to snapshot buttons.
var buttonOrder = [...]controller.Button{
	controller.ButtonA,
	controller.ButtonB,
	controller.ButtonX,
	controller.ButtonY,
	controller.ButtonLB,
	controller.ButtonRB,
	controller.ButtonBack,
	controller.ButtonStart,
	controller.ButtonGuide,
	controller.ButtonLeftStickClick,
	controller.ButtonRightStickClick,
}

// SnapshotWriter receives every sampled snapshot.
type SnapshotWriter interface {
	Write(controller.Snapshot)
}

// Sampler turns raw device state into snapshots.
// Sample and Run must not be called concurrently.
type Sampler struct {
	dev    HumanInputDevice
	axes   AxisMap
	period time.Duration
	logger *slog.Logger

	last    controller.Snapshot
	failing bool
	errors  uint64
}

// NewSampler creates a sampler polling dev every period. Periods below
// MinPeriod are raised to MinPeriod.
func NewSampler(dev HumanInputDevice, axes AxisMap, period time.Duration, logger *slog.Logger) *Sampler {
	if period < MinPeriod {
		period = MinPeriod
	}
	return &Sampler{
		dev:    dev,
		axes:   axes,
		period: period,
		logger: logger.With("device", dev.Name()),
	}
}

// Period returns the effective poll period.
func (s *Sampler) Period() time.Duration { return s.period }

// Errors returns how many polls have failed so far.
func (s *Sampler) Errors() uint64 { return s.errors }

// Sample polls the device and returns the normalized snapshot. When the poll
// fails, the error is logged and the previous snapshot is returned.
func (s *Sampler) Sample() controller.Snapshot {
	if err := s.dev.Poll(); err != nil {
		s.errors++
		if !s.failing {
			s.logger.Warn("input read failed, keeping previous state", "error", err)
		} else {
			s.logger.Debug("input read failed", "error", err, "failures", s.errors)
		}
		s.failing = true
		return s.last
	}
	if s.failing {
		s.logger.Info("input read recovered")
		s.failing = false
	}

	r := s.dev.AxisRange()
	var snap controller.Snapshot
	snap.LeftStick.X = controller.StickAxis(s.axis(s.axes.LeftX, midpoint(r)), r)
	snap.LeftStick.Y = controller.StickAxis(s.axis(s.axes.LeftY, midpoint(r)), r)
	snap.RightStick.X = controller.StickAxis(s.axis(s.axes.RightX, midpoint(r)), r)
	snap.RightStick.Y = controller.StickAxis(s.axis(s.axes.RightY, midpoint(r)), r)
	snap.Triggers.Left = controller.TriggerAxis(s.axis(s.axes.LeftTrigger, r.Min), r)
	snap.Triggers.Right = controller.TriggerAxis(s.axis(s.axes.RightTrigger, r.Min), r)

	for i, b := range buttonOrder {
		snap.Buttons.Set(b, s.dev.Button(i))
	}
	x, y := s.dev.Hat(s.axes.Hat)
	snap.Buttons.SetDPad(x, y)

	s.last = snap
	return snap
}

func (s *Sampler) axis(i int, neutral float64) float64 {
	if i < 0 || i >= s.dev.AxisCount() {
		return neutral
	}
	return s.dev.Axis(i)
}

func midpoint(r controller.AxisRange) float64 {
	return r.Min + r.Span()/2
}

// Run samples into w until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context, w SnapshotWriter) error {
	s.logger.Info("input sampling started", "period", s.period)
	defer s.logger.Info("input sampling stopped")

	timer := time.NewTimer(s.period)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		w.Write(s.Sample())

		timer.Reset(s.period)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}
