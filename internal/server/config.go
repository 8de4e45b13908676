package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/waypoint/pkg/constants"
	"github.com/agentstation/waypoint/pkg/errors"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix string

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Authentication settings
	AuthEnabled bool
	AuthHeader  string
	APIKey      string

	// Requests per minute per IP (0 to disable)
	RateLimit int

	// How long removed subscriptions are remembered for 410 responses
	TombstoneTTL time.Duration

	// HTTP timeouts
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:         constants.DefaultHost,
		Port:         constants.DefaultPort,
		PathPrefix:   constants.DefaultPathPrefix,
		CORSOrigins:  []string{},
		AuthHeader:   "X-API-Key",
		RateLimit:    600,
		TombstoneTTL: 5 * time.Minute,
		ReadTimeout:  10 * time.Second,
		// Streaming endpoints hold the connection open.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the configuration and normalizes the path prefix.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return &errors.ConfigError{
			Component: "server",
			Message:   fmt.Sprintf("port out of range: %d", c.Port),
		}
	}
	if c.PathPrefix != "" {
		c.PathPrefix = "/" + strings.Trim(c.PathPrefix, "/")
	}
	if c.AuthEnabled && c.APIKey == "" {
		return &errors.ConfigError{
			Component: "server",
			Message:   "authentication enabled without an API key",
		}
	}
	if c.TombstoneTTL <= 0 {
		c.TombstoneTTL = DefaultConfig().TombstoneTTL
	}
	if c.AuthHeader == "" {
		c.AuthHeader = DefaultConfig().AuthHeader
	}
	return nil
}
