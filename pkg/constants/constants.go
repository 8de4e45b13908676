// Package constants provides shared constants used throughout the waypoint codebase.
// This includes timeouts, limits, file permissions, and other configuration values
// that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the API server
	ShutdownTimeout = 30 * time.Second

	// DefaultHTTPTimeout is the standard timeout for requests to a waypoint API server
	DefaultHTTPTimeout = 30 * time.Second

	// ServiceShutdownTimeout bounds shutdown of background services (broker, hubs)
	ServiceShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// EventBufferSize is the buffer size of the lifecycle event broker
	EventBufferSize = 256

	// RegistrationBufferSize is the buffer size of broker registration channels
	RegistrationBufferSize = 10

	// ClientBufferSize is the per-client buffer of streaming transports
	ClientBufferSize = 256

	// MaxScenarioSteps is the maximum number of steps accepted in a replay scenario
	MaxScenarioSteps = 10000

	// MaxRequestBodyBytes limits producer payloads accepted by the API server
	MaxRequestBodyBytes = 1 << 20
)

// Logging constants
const (
	// LogMaxSizeMB is the size of a log file before rotation
	LogMaxSizeMB = 10

	// LogMaxBackups is the maximum number of rotated log files to retain
	LogMaxBackups = 5
)

// Server defaults
const (
	// DefaultHost is the default bind address of the API server
	DefaultHost = "localhost"

	// DefaultPort is the default port of the API server
	DefaultPort = 8080

	// DefaultPathPrefix is the default API path prefix
	DefaultPathPrefix = "/api/v1"
)
