package server

import (
	"fmt"

	"github.com/kbukum/flowpipe/server/middleware"
)

// Config holds HTTP server configuration.
type Config struct {
	Host          string                `yaml:"host" mapstructure:"host"`
	Port          int                   `yaml:"port" mapstructure:"port"`
	ReadTimeout   int                   `yaml:"read_timeout" mapstructure:"read_timeout"`       // seconds
	WriteTimeout  int                   `yaml:"write_timeout" mapstructure:"write_timeout"`     // seconds
	IdleTimeout   int                   `yaml:"idle_timeout" mapstructure:"idle_timeout"`       // seconds
	RunsPerMinute int                   `yaml:"runs_per_minute" mapstructure:"runs_per_minute"` // per client, 0 = unlimited
	CORS          middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	// Runs of slow graphs are answered synchronously.
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 300
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.CORS.AllowedMethods) == 0 {
		c.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(c.CORS.AllowedHeaders) == 0 {
		c.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-Id"}
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must be non-negative (got: %d)", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must be non-negative (got: %d)", c.WriteTimeout)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("server.idle_timeout must be non-negative (got: %d)", c.IdleTimeout)
	}
	if c.RunsPerMinute < 0 {
		return fmt.Errorf("server.runs_per_minute must be non-negative (got: %d)", c.RunsPerMinute)
	}
	return nil
}
