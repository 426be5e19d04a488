package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/vk/bufcompose/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// defaults are read from the environment before flags are parsed, so flags
// always win.
type defaults struct {
	ConfigPath      string `env:"BUFCOMPOSE_CONFIG"`
	LogFormat       string `env:"BUFCOMPOSE_LOG_FORMAT" envDefault:"text"`
	LogLevel        string `env:"BUFCOMPOSE_LOG_LEVEL" envDefault:"info"`
	Output          string `env:"BUFCOMPOSE_OUTPUT" envDefault:"text"`
	PackOrder       string `env:"BUFCOMPOSE_PACK_ORDER" envDefault:"size"`
	Listen          string `env:"BUFCOMPOSE_LISTEN"`
	Push            string `env:"BUFCOMPOSE_PUSH"`
	HealthcheckPort int    `env:"BUFCOMPOSE_HEALTHCHECK_PORT" envDefault:"0"`
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var d defaults
	if err := env.Parse(&d); err != nil {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid environment: %v", err)}
	}

	flagSet := flag.NewFlagSet("bufcompose", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
bufcompose - Packs structure declarations from many contributors into one
shared element layout per system.

Usage:
  bufcompose [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", d.ConfigPath, "Path to the configuration file or directory.")
	cFlag := flagSet.String("c", "", "Path to the configuration file or directory (shorthand).")
	healthPortFlag := flagSet.Int("healthcheck-port", d.HealthcheckPort, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", d.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", d.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	outputFlag := flagSet.String("output", d.Output, "Report format. Options: 'text', 'json' or 'yaml'.")
	orderFlag := flagSet.String("pack-order", d.PackOrder, "Field order fed to the packer. Options: 'size' or 'encounter'.")
	listenFlag := flagSet.String("listen", d.Listen, "Serve contributors over socket.io on this address, e.g. ':8080'.")
	pushFlag := flagSet.String("push", d.Push, "Push the configured contributors to the socket.io server at this URL.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	} else {
		path = *configFlag
	}
	slog.Debug("Config path determined.", "path", path)

	if path == "" && *listenFlag == "" {
		slog.Debug("No config path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPath:      path,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		Output:          strings.ToLower(*outputFlag),
		PackOrder:       strings.ToLower(*orderFlag),
		Listen:          *listenFlag,
		Push:            *pushFlag,
		HealthcheckPort: *healthPortFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
