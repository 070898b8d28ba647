// Package config defines the CLI structure and configuration for padlink.
package config

import (
	"github.com/Alia5/padlink/internal/cmd"
)

type Log struct {
	Level   string `help:"Log level: trace, debug, info, warn, error" default:"info" env:"PADLINK_LOG_LEVEL"`
	File    string `help:"Log file path (default: none; logs only to console)" env:"PADLINK_LOG_FILE"`
	RawFile string `help:"Raw datagram log file path (default: none)" env:"PADLINK_LOG_RAW_FILE"`
}

// CLI is the root command structure for Kong CLI parsing.
type CLI struct {
	Log    `embed:"" prefix:"log."`
	Config string `help:"Configuration file (JSON, YAML or TOML)" env:"PADLINK_CONFIG" placeholder:"PATH"`

	Send      cmd.Send      `cmd:"" help:"Read a gamepad and stream its state to the receiver"`
	Receive   cmd.Receive   `cmd:"" help:"Receive gamepad state and drive the motors"`
	InputTest cmd.InputTest `cmd:"" name:"input-test" help:"Print the normalized gamepad state"`
	MotorTest cmd.MotorTest `cmd:"" name:"motor-test" help:"Run the motors forward and backward once"`
	ConfigCmd cmd.ConfigCmd `cmd:"" name:"config" help:"Manage configuration files"`
	Install   cmd.Install   `cmd:"" help:"Start padlink automatically at boot or login"`
	Uninstall cmd.Uninstall `cmd:"" help:"Remove the automatic start entry"`
}
