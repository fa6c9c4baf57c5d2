package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kbukum/flowpipe/config"
	"github.com/kbukum/flowpipe/observability"
	"github.com/kbukum/flowpipe/server"
	"github.com/kbukum/flowpipe/validation"
	"github.com/kbukum/flowpipe/version"
)

const serviceName = "flowpipe"

// Config is the flowpipe binary configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// Definition is a YAML graph definition; empty runs the example pipeline.
	Definition string               `yaml:"definition" mapstructure:"definition"`
	Scheduler  SchedulerConfig      `yaml:"scheduler" mapstructure:"scheduler"`
	Example    ExampleConfig        `yaml:"example" mapstructure:"example"`
	Server     server.Config        `yaml:"server" mapstructure:"server"`
	Telemetry  observability.Config `yaml:"telemetry" mapstructure:"telemetry"`

	// ShutdownTimeout bounds the stop hooks of the server; zero keeps the
	// bootstrap default.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// SchedulerConfig selects how graphs are executed.
type SchedulerConfig struct {
	Policy      string `yaml:"policy" mapstructure:"policy" validate:"required,oneof=sequential serial concurrent"`
	MaxParallel int    `yaml:"max_parallel" mapstructure:"max_parallel" validate:"gte=0"`
}

// ExampleConfig tunes the built-in components.
type ExampleConfig struct {
	InputDelay time.Duration `yaml:"input_delay" mapstructure:"input_delay" validate:"gte=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Version
	}
	// stdout carries results and exports
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}
	c.ServiceConfig.ApplyDefaults()

	if c.Scheduler.Policy == "" {
		c.Scheduler.Policy = "concurrent"
	}
	if c.Example.InputDelay == 0 {
		c.Example.InputDelay = time.Second
	}
	c.Server.ApplyDefaults()
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = c.Environment
	}
	c.Telemetry.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("config.telemetry: %w", err)
	}
	return nil
}

func dirOf(path string) string {
	return filepath.Dir(path)
}
