package scenario

import (
	"context"
	"sync"
	"time"

	"github.com/agentstation/waypoint"
	"github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/logging"
	"github.com/agentstation/waypoint/pkg/visits"
)

// Dispatch is one result delivered to a scenario observer.
type Dispatch struct {
	Step         int           `json:"step" yaml:"step"`
	Subscription string        `json:"subscription" yaml:"subscription"`
	Observer     int           `json:"observer" yaml:"observer"`
	Result       visits.Result `json:"result" yaml:"result"`
}

// Final is the state of a subscription after the last step.
type Final struct {
	Name string `json:"name" yaml:"name"`
	waypoint.Status
	Removed bool `json:"removed" yaml:"removed"`
}

// Report is the outcome of a run.
type Report struct {
	Scenario      string        `json:"scenario" yaml:"scenario"`
	Steps         int           `json:"steps" yaml:"steps"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
	Dispatches    []Dispatch    `json:"dispatches" yaml:"dispatches"`
	Subscriptions []Final       `json:"subscriptions" yaml:"subscriptions"`
}

// Successes counts the dispatched visits.
func (r *Report) Successes() int {
	n := 0
	for _, d := range r.Dispatches {
		if d.Result.IsSuccess() {
			n++
		}
	}
	return n
}

// Failures counts the dispatched failures.
func (r *Report) Failures() int {
	n := 0
	for _, d := range r.Dispatches {
		if d.Result.IsFailure() {
			n++
		}
	}
	return n
}

type run struct {
	client waypoint.Client
	report *Report

	mu        sync.Mutex
	step      int
	ids       map[string]visits.ID
	order     []string
	observers map[string]int
	final     map[string]*visits.Request
}

// Run executes the scenario against client. Every subscription it creates
// records its dispatches in the report. On error the report covers the
// steps executed so far.
func (s *Scenario) Run(ctx context.Context, client waypoint.Client) (*Report, error) {
	ctx = logging.WithScenario(ctx, s.Name)
	logger := logging.FromContext(ctx)
	start := time.Now()

	r := &run{
		client:    client,
		report:    &Report{Scenario: s.Name},
		ids:       make(map[string]visits.ID),
		observers: make(map[string]int),
		final:     make(map[string]*visits.Request),
	}

	logger.Info().Int("steps", len(s.Steps)).Msg("Scenario started")

	var runErr error
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			runErr = errors.WrapResource("run", "scenario", s.Name, err)
			break
		}

		r.mu.Lock()
		r.step = i
		r.mu.Unlock()

		logger.Debug().
			Int("step", i).
			Str("action", string(step.Action)).
			Str("subscription", step.Subscription).
			Msg("Scenario step")

		if err := r.exec(step); err != nil {
			runErr = errors.WrapResource("run", "scenario step", step.Subscription, err)
			break
		}
		r.report.Steps++
	}

	r.finish()
	r.report.Duration = time.Since(start)

	event := logger.Info()
	if runErr != nil {
		event = logger.Error().Err(runErr)
	}
	event.
		Int("steps", r.report.Steps).
		Int("dispatches", len(r.report.Dispatches)).
		Dur("duration", r.report.Duration).
		Msg("Scenario finished")

	return r.report, runErr
}

func (r *run) exec(step Step) error {
	id := r.ids[step.Subscription]

	switch step.Action {
	case ActionSubscribe:
		return r.subscribe(step)
	case ActionStart:
		return r.client.Start(id)
	case ActionPause:
		return r.client.Pause(id)
	case ActionStop:
		return r.client.StopWithReason(id, step.reason(), !step.Keep)
	case ActionObserve:
		_, err := r.client.Observe(id, r.recorder(step.Subscription))
		return err
	case ActionVisit:
		if step.Subscription == "" {
			r.client.Deliver(*step.Visit)
			return nil
		}
		_, err := r.client.Complete(id, *step.Visit)
		return err
	case ActionFail:
		if step.Subscription == "" {
			r.client.Fail(step.reason())
			return nil
		}
		return r.client.StopWithReason(id, step.reason(), true)
	}
	return errors.NewValidationError("action", step.Action, "unknown action")
}

func (r *run) subscribe(step Step) error {
	req := visits.NewRequest()
	req.AddObserver(r.recorder(step.Subscription))

	if !r.client.Add(req) {
		return errors.WrapResource("create", "subscription", step.Subscription, errors.ErrClosed)
	}
	r.ids[step.Subscription] = req.ID()
	r.order = append(r.order, step.Subscription)
	r.final[step.Subscription] = req

	if step.starts() {
		return r.client.Start(req.ID())
	}
	return nil
}

// recorder returns an observer appending to the report under name.
func (r *run) recorder(name string) visits.Callback {
	r.mu.Lock()
	observer := r.observers[name]
	r.observers[name]++
	r.mu.Unlock()

	return func(res visits.Result) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.report.Dispatches = append(r.report.Dispatches, Dispatch{
			Step:         r.step,
			Subscription: name,
			Observer:     observer,
			Result:       res,
		})
	}
}

// finish snapshots every subscription the scenario created.
func (r *run) finish() {
	for _, name := range r.order {
		id := r.ids[name]
		final := Final{Name: name}
		if status, err := r.client.Status(id); err == nil {
			final.Status = status
		} else {
			final.Status = waypoint.StatusOf(r.final[name])
			final.Removed = true
		}
		r.report.Subscriptions = append(r.report.Subscriptions, final)
	}
}
