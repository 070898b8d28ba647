package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Alia5/padlink/internal/input"
	"github.com/Alia5/padlink/pkg/controller"
)

type InputTest struct {
	Interval time.Duration `help:"Print interval" default:"100ms" env:"PADLINK_INPUT_TEST_INTERVAL"`
	Input    InputOptions  `embed:"" prefix:"input."`
}

// Run is called by Kong when the input-test command is executed.
func (c *InputTest) Run(logger *slog.Logger) error {
	ctx, stop := signalContext()
	defer stop()

	dev, err := input.Open(c.Input.Backend, c.Input.Index)
	if err != nil {
		return err
	}
	defer dev.Close()

	logger.Info("printing gamepad state, press Ctrl+C to stop", "device", dev.Name(), "axes", dev.AxisCount())
	sampler := input.NewSampler(dev, c.Input.Axis, c.Interval, logger)
	return sampler.Run(ctx, &snapshotPrinter{w: os.Stdout, logger: logger})
}

// snapshotPrinter writes one JSON line per snapshot.
type snapshotPrinter struct {
	w      io.Writer
	logger *slog.Logger
	failed bool
}

func (p *snapshotPrinter) Write(s controller.Snapshot) {
	b, err := json.Marshal(s)
	if err == nil {
		_, err = fmt.Fprintln(p.w, string(b))
	}
	if err != nil && !p.failed {
		p.logger.Warn("failed to print snapshot", "error", err)
		p.failed = true
	}
}
