// Package config defines the root CLI structure parsed by kong.
package config

import (
	"github.com/GeorgeZeng997/pico-mouse/internal/cmd"
)

// LogConfig holds the shared logging flags.
type LogConfig struct {
	Level   string `help:"Log level (trace, debug, info, warn, error)" enum:"trace,debug,info,warn,error" default:"info" env:"PICOMOUSE_LOG_LEVEL"`
	File    string `help:"Write logs to this file instead of the console" env:"PICOMOUSE_LOG_FILE"`
	RawFile string `help:"Write raw wire hex dumps to this file" env:"PICOMOUSE_LOG_RAW_FILE"`
}

// CLI is the root command tree.
type CLI struct {
	Log    LogConfig `embed:"" prefix:"log."`
	Config string    `help:"Path to a config file (JSON, YAML or TOML)" type:"path" env:"PICOMOUSE_CONFIG"`

	Serve     cmd.Serve         `cmd:"" help:"Export the mouse gadget over USB/IP and run the control loop"`
	Sim       cmd.Sim           `cmd:"" help:"Drive the control loop from the keyboard, printing reports instead of sending them"`
	Console   cmd.Console       `cmd:"" help:"Interactive client for the serial command channel"`
	ConfigCmd cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration file helpers"`
}
