package waypoint

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/logging"
)

// Option is a function that configures a Client instance.
type Option func(*options) error

// options holds the client configuration.
type options struct {
	logger    *zerolog.Logger
	autoStart bool
}

func defaults() *options {
	return &options{
		logger:    logging.Default(),
		autoStart: true,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithLogger sets the logger used by the client and every request it creates.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{
				Field:   "logger",
				Message: "logger must not be nil",
			}
		}
		o.logger = logger
		return nil
	}
}

// WithAutoStart configures whether Subscribe starts the new request.
// Enabled by default.
func WithAutoStart(enabled bool) Option {
	return func(o *options) error {
		o.autoStart = enabled
		return nil
	}
}
