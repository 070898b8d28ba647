package cmd

import (
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Alia5/padlink/internal/actuator"
	"github.com/Alia5/padlink/internal/display"
	"github.com/Alia5/padlink/internal/log"
	"github.com/Alia5/padlink/internal/receive"
)

type Receive struct {
	ListenPort    int           `help:"UDP port to listen on" default:"5001" env:"PADLINK_LISTEN_PORT"`
	PeerIP        string        `help:"Only accept datagrams from this host (default: any)" env:"PADLINK_PEER_IP"`
	ReadTimeout   time.Duration `help:"Socket read timeout; bounds shutdown latency" default:"1s" env:"PADLINK_READ_TIMEOUT"`
	StatsInterval time.Duration `help:"How often datagram counters are logged" default:"1m" env:"PADLINK_STATS_INTERVAL"`
	Display       bool          `help:"Show the controller state in the terminal (use --log.file to keep logs off the screen)" default:"false" env:"PADLINK_DISPLAY"`

	GPIO        GPIOOptions `embed:"" prefix:"gpio."`
	Diagnostics `embed:""`
}

// Run is called by Kong when the receive command is executed.
func (c *Receive) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signalContext()
	defer stop()

	gpio, err := actuator.OpenBackend(c.GPIO.Backend, logger)
	if err != nil {
		return err
	}
	driver := actuator.NewDriver(gpio, c.GPIO.Pins, c.GPIO.PWMFreq, logger)
	defer func() {
		if err := driver.Close(); err != nil {
			logger.Warn("motor cleanup reported errors", "error", err)
		}
	}()
	if err := driver.Setup(); err != nil {
		return err
	}

	cw, stopDiag, err := c.Diagnostics.start(logger)
	if err != nil {
		return err
	}
	defer stopDiag()

	sinks := []receive.Sink{driver}
	var rx *receive.Receiver
	var disp *display.Display
	if c.Display {
		disp = display.New(func() receive.Stats { return rx.Stats() }, stop)
		sinks = append(sinks, disp)
	}

	opts := []receive.Option{receive.WithRawLogger(rawLogger)}
	if cw != nil {
		opts = append(opts, receive.WithCapture(cw))
	}
	rx = receive.New(receive.Config{
		ListenPort:    c.ListenPort,
		PeerIP:        c.PeerIP,
		ReadTimeout:   c.ReadTimeout,
		StatsInterval: c.StatsInterval,
	}, logger, sinks, opts...)
	if err := rx.Open(); err != nil {
		return err
	}
	defer func() {
		if err := rx.Close(); err != nil {
			logger.Warn("failed to close socket", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rx.Run(gctx) })
	if disp != nil {
		g.Go(func() error {
			if err := disp.Run(gctx, os.Stdout); err != nil {
				logger.Warn("display stopped", "error", err)
			}
			return nil
		})
	}

	err = g.Wait()
	st := rx.Stats()
	logger.Info("Shutting down receiver", "accepted", st.Accepted, "stale", st.Stale, "malformed", st.Malformed)
	if stopErr := driver.Stop(); stopErr != nil {
		logger.Debug("motor stop", "error", stopErr)
	}
	return err
}
