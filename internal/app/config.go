package app

import (
	"errors"
	"fmt"

	"github.com/vk/bufcompose/internal/packing"
	"github.com/vk/bufcompose/internal/report"
)

// ErrConfigPathRequired is returned when neither a configuration path nor a
// listen address is given.
var ErrConfigPathRequired = errors.New("ConfigPath is a required configuration field unless Listen is set")

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath string // hcl file or directory

	LogFormat       string
	LogLevel        string
	Output          string // report format
	PackOrder       string
	Listen          string // socket.io listen address
	Push            string // socket.io server URL
	HealthcheckPort int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" && cfg.Listen == "" {
		return nil, ErrConfigPathRequired
	}
	if cfg.Push != "" && cfg.Listen != "" {
		return nil, errors.New("Push and Listen cannot be used together")
	}
	if cfg.Push != "" && cfg.ConfigPath == "" {
		return nil, ErrConfigPathRequired
	}
	if cfg.Output == "" {
		cfg.Output = string(report.FormatText)
	}
	if _, err := report.ParseFormat(cfg.Output); err != nil {
		return nil, err
	}
	if cfg.PackOrder == "" {
		cfg.PackOrder = packing.OrderBySize.String()
	}
	if _, ok := packing.ParseOrder(cfg.PackOrder); !ok {
		return nil, fmt.Errorf("unknown pack order '%s': must be 'size' or 'encounter'", cfg.PackOrder)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port %d out of range", cfg.HealthcheckPort)
	}

	return &cfg, nil
}

func (c *Config) order() packing.Order {
	o, _ := packing.ParseOrder(c.PackOrder)
	return o
}

func (c *Config) format() report.Format {
	f, _ := report.ParseFormat(c.Output)
	return f
}
