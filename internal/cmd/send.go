package cmd

import (
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Alia5/padlink/internal/input"
	"github.com/Alia5/padlink/internal/log"
	"github.com/Alia5/padlink/internal/statebuf"
	"github.com/Alia5/padlink/internal/transmit"
)

type Send struct {
	PeerIP       string        `help:"Receiver address" default:"127.0.0.1" env:"PADLINK_PEER_IP"`
	PeerPort     int           `help:"Receiver UDP port" default:"5001" env:"PADLINK_PEER_PORT"`
	LocalPort    int           `help:"Local UDP port to send from" default:"5000" env:"PADLINK_LOCAL_PORT"`
	Rate         int           `help:"Datagrams per second" default:"60" env:"PADLINK_RATE"`
	SamplePeriod time.Duration `help:"Gamepad poll period (minimum 10ms)" default:"10ms" env:"PADLINK_SAMPLE_PERIOD"`

	Input       InputOptions `embed:"" prefix:"input."`
	Diagnostics `embed:""`
}

// Validate is called by Kong after parsing.
func (c *Send) Validate() error {
	if c.Rate <= 0 {
		return errors.New("--rate must be positive")
	}
	if c.PeerPort <= 0 || c.PeerPort > 65535 {
		return errors.New("--peer-port out of range")
	}
	return nil
}

// Run is called by Kong when the send command is executed.
func (c *Send) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signalContext()
	defer stop()

	dev, err := input.Open(c.Input.Backend, c.Input.Index)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			logger.Warn("failed to close input device", "error", err)
		}
	}()
	logger.Info("input device opened", "backend", c.Input.Backend, "name", dev.Name(), "axes", dev.AxisCount())

	cw, stopDiag, err := c.Diagnostics.start(logger)
	if err != nil {
		return err
	}
	defer stopDiag()

	opts := []transmit.Option{transmit.WithRawLogger(rawLogger)}
	if cw != nil {
		opts = append(opts, transmit.WithCapture(cw))
	}

	buf := statebuf.New()
	sampler := input.NewSampler(dev, c.Input.Axis, c.SamplePeriod, logger)
	tx := transmit.New(transmit.Config{
		PeerIP:    c.PeerIP,
		PeerPort:  c.PeerPort,
		LocalPort: c.LocalPort,
		Period:    time.Second / time.Duration(c.Rate),
	}, buf, logger, opts...)
	if err := tx.Open(); err != nil {
		return err
	}
	defer func() {
		if err := tx.Close(); err != nil {
			logger.Warn("failed to close socket", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sampler.Run(gctx, buf) })
	g.Go(func() error { return tx.Run(gctx) })

	err = g.Wait()
	st := tx.Stats()
	logger.Info("Shutting down sender",
		"session", tx.Session().String(), "sent", st.Sent, "failed", st.Failed,
		"samples", buf.Updates(), "pollErrors", sampler.Errors())
	return err
}
