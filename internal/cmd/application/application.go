// Package application defines what CLI commands need from the application:
// the waypoint client, a logger, the output format and build information.
//
// Commands accept the Application interface rather than the concrete App so
// they can be tested with Mock.
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/waypoint"
)

// Application provides the application interface that commands need.
// All methods must be safe for concurrent use.
type Application interface {
	// Client returns the shared waypoint client, creating it on first use.
	Client() (waypoint.Client, error)

	// NewClient returns a new, unshared waypoint client configured like
	// the shared one plus opts. The caller closes it.
	NewClient(opts ...waypoint.Option) (waypoint.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
