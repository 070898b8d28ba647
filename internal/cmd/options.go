package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alia5/padlink/internal/actuator"
	"github.com/Alia5/padlink/internal/capture"
	"github.com/Alia5/padlink/internal/input"
	"github.com/Alia5/padlink/internal/statsview"
)

// InputOptions selects and maps the gamepad.
type InputOptions struct {
	Backend string        `help:"Input backend: joystick or sdl" default:"joystick" enum:"joystick,sdl" env:"PADLINK_INPUT_BACKEND"`
	Index   int           `help:"Index of the gamepad to open" default:"0" env:"PADLINK_INPUT_INDEX"`
	Axis    input.AxisMap `embed:"" prefix:"axis."`
}

// GPIOOptions selects the motor output backend and wiring.
type GPIOOptions struct {
	Backend string        `help:"GPIO backend: embd or sim" default:"embd" enum:"embd,sim" env:"PADLINK_GPIO_BACKEND"`
	PWMFreq int           `name:"pwm-freq" help:"Enable pin PWM frequency in Hz" default:"100" env:"PADLINK_GPIO_PWM_FREQ"`
	Pins    actuator.Pins `embed:"" prefix:"pin."`
}

// Diagnostics are optional extras available on both endpoints.
type Diagnostics struct {
	CaptureFile string `help:"Write every datagram to this pcap file" type:"path" env:"PADLINK_CAPTURE_FILE"`
	StatsAddr   string `help:"Serve runtime statistics on this address (e.g. localhost:18066)" env:"PADLINK_STATS_ADDR"`
}

// start launches the stats server and opens the capture file. The returned
// function releases both.
func (d *Diagnostics) start(logger *slog.Logger) (*capture.Writer, func(), error) {
	var cw *capture.Writer
	if d.CaptureFile != "" {
		var err error
		cw, err = capture.Create(d.CaptureFile)
		if err != nil {
			return nil, func() {}, err
		}
		logger.Info("capturing datagrams", "file", d.CaptureFile)
	}
	stopStats := func() {}
	if d.StatsAddr != "" {
		stopStats = statsview.Launch(d.StatsAddr, logger)
	}
	return cw, func() {
		stopStats()
		if cw != nil {
			if err := cw.Close(); err != nil {
				logger.Warn("failed to close capture file", "error", err)
			} else {
				logger.Info("capture closed", "file", d.CaptureFile, "packets", cw.Count())
			}
		}
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
