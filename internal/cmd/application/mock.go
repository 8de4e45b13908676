package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/waypoint"
)

// Compile-time interface check to ensure proper implementation.
var _ Application = (*Mock)(nil)

// Mock is a configurable Application for tests. A nil function field falls
// back to a sensible default; ClientFunc and NewClientFunc default to a
// real client logging nowhere.
type Mock struct {
	ClientFunc       func() (waypoint.Client, error)
	NewClientFunc    func(opts ...waypoint.Option) (waypoint.Client, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Client returns the mock client or a fresh one.
func (m *Mock) Client() (waypoint.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc()
	}
	return m.NewClient()
}

// NewClient returns a client from NewClientFunc or a fresh one.
func (m *Mock) NewClient(opts ...waypoint.Option) (waypoint.Client, error) {
	if m.NewClientFunc != nil {
		return m.NewClientFunc(opts...)
	}
	return waypoint.New(append([]waypoint.Option{waypoint.WithLogger(m.Logger())}, opts...)...)
}

// Logger returns the mock logger or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the mock format or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns the mock version or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns the mock commit or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns the mock build date or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns the mock builder or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}
