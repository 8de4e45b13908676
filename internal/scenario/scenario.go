// Package scenario replays scripted visit feeds against a waypoint client.
//
// A scenario names its subscriptions and lists steps that act on them or on
// the whole client, in order:
//
//	name: commute
//	steps:
//	  - action: subscribe
//	    subscription: home
//	  - action: visit
//	    visit:
//	      coordinate: {latitude: 45.4642, longitude: 9.19}
//	      horizontal_accuracy: 10
//	  - action: stop
//	    subscription: home
//
// Scenarios are YAML; JSON documents parse as well.
package scenario

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/waypoint/pkg/constants"
	"github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/visits"
)

// Action is what a step does.
type Action string

// Step actions.
const (
	ActionSubscribe Action = "subscribe"
	ActionStart     Action = "start"
	ActionPause     Action = "pause"
	ActionStop      Action = "stop"
	ActionObserve   Action = "observe"
	ActionVisit     Action = "visit"
	ActionFail      Action = "fail"
)

// Scenario is a named, ordered list of steps.
type Scenario struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []Step `yaml:"steps" json:"steps"`
}

// Step is a single scripted action.
type Step struct {
	Action Action `yaml:"action" json:"action"`

	// Subscription names the target. Visit and fail steps without one
	// apply to every held subscription.
	Subscription string `yaml:"subscription,omitempty" json:"subscription,omitempty"`

	// Start controls whether a subscribe step starts the request
	// (default true).
	Start *bool `yaml:"start,omitempty" json:"start,omitempty"`

	// Visit is the payload of a visit step.
	Visit *visits.Visit `yaml:"visit,omitempty" json:"visit,omitempty"`

	// Reason and Message describe a stop or fail step. An empty reason
	// means cancellation.
	Reason  string `yaml:"reason,omitempty" json:"reason,omitempty"`
	Message string `yaml:"message,omitempty" json:"message,omitempty"`

	// Keep leaves a stopped subscription in the client's set.
	Keep bool `yaml:"keep,omitempty" json:"keep,omitempty"`
}

// reason returns the failure reason of a stop or fail step.
func (s Step) reason() error {
	reason := visits.ParseReason(s.Reason)
	if s.Message != "" {
		return fmt.Errorf("%w: %s", reason, s.Message)
	}
	return reason
}

// starts reports whether a subscribe step starts its request.
func (s Step) starts() bool {
	return s.Start == nil || *s.Start
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	s, err := Parse(data)
	if err != nil {
		var parseErr *errors.ParseError
		if stderrors.As(err, &parseErr) {
			parseErr.File = path
		}
		return nil, err
	}
	return s, nil
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.UnmarshalWithOptions(data, &s, yaml.DisallowUnknownField()); err != nil {
		return nil, errors.NewParseError("yaml", "", err.Error(), err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every step and reports all problems at once.
func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return errors.NewValidationError("steps", 0, "scenario has no steps")
	}
	if len(s.Steps) > constants.MaxScenarioSteps {
		return errors.NewValidationError("steps", len(s.Steps),
			fmt.Sprintf("scenario exceeds %d steps", constants.MaxScenarioSteps))
	}

	declared := make(map[string]bool)
	var errs []error
	for i, step := range s.Steps {
		field := fmt.Sprintf("steps[%d]", i)
		if err := step.validate(field, declared); err != nil {
			errs = append(errs, err)
		}
		if step.Action == ActionSubscribe && step.Subscription != "" {
			declared[step.Subscription] = true
		}
	}
	return stderrors.Join(errs...)
}

func (s Step) validate(field string, declared map[string]bool) error {
	switch s.Action {
	case ActionSubscribe:
		if s.Subscription == "" {
			return errors.NewValidationError(field+".subscription", "", "subscribe needs a name")
		}
		if declared[s.Subscription] {
			return errors.NewValidationError(field+".subscription", s.Subscription, "already subscribed")
		}
		return nil

	case ActionStart, ActionPause, ActionStop, ActionObserve:
		if s.Subscription == "" {
			return errors.NewValidationError(field+".subscription", "", string(s.Action)+" needs a subscription")
		}

	case ActionVisit:
		if s.Visit == nil {
			return errors.NewValidationError(field+".visit", nil, "visit step without a visit")
		}
		if err := s.Visit.Validate(); err != nil {
			return errors.WrapValidation(field+".visit", err)
		}

	case ActionFail:

	default:
		return errors.NewValidationError(field+".action", s.Action, "unknown action")
	}

	if s.Subscription != "" && !declared[s.Subscription] {
		return errors.NewValidationError(field+".subscription", s.Subscription, "not subscribed by an earlier step")
	}
	return nil
}
