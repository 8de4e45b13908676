package visits

import (
	"encoding/json"
	"fmt"

	"github.com/agentstation/waypoint/pkg/errors"
)

// Result is what observers receive: either a visit or the reason the
// subscription terminated.
type Result struct {
	visit *Visit
	err   error
}

// Success wraps a delivered visit.
func Success(v Visit) Result {
	return Result{visit: &v}
}

// Failure wraps a terminating reason. A nil reason means cancellation.
func Failure(reason error) Result {
	if reason == nil {
		reason = errors.ErrCanceled
	}
	return Result{err: reason}
}

// IsSuccess reports whether the result carries a visit.
func (r Result) IsSuccess() bool {
	return r.visit != nil && r.err == nil
}

// IsFailure reports whether the result carries a failure reason.
func (r Result) IsFailure() bool {
	return r.err != nil
}

// Visit returns the delivered visit.
func (r Result) Visit() (Visit, bool) {
	if !r.IsSuccess() {
		return Visit{}, false
	}
	return *r.visit, true
}

// Err returns the failure reason, or nil for a success.
func (r Result) Err() error {
	return r.err
}

// Get returns the visit or the failure reason.
func (r Result) Get() (Visit, error) {
	if r.err != nil {
		return Visit{}, r.err
	}
	v, _ := r.Visit()
	return v, nil
}

// String implements fmt.Stringer.
func (r Result) String() string {
	switch {
	case r.IsFailure():
		return fmt.Sprintf("failure(%s)", r.err)
	case r.IsSuccess():
		return fmt.Sprintf("success(%s)", r.visit.Coordinate)
	default:
		return "empty"
	}
}

// ResultView is the serialized form of a Result.
type ResultView struct {
	Type    string `json:"type" yaml:"type"`
	Visit   *Visit `json:"visit,omitempty" yaml:"visit,omitempty"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// View returns the serializable form of the result.
func (r Result) View() ResultView {
	if r.IsFailure() {
		return ResultView{
			Type:    "failure",
			Reason:  ReasonCode(r.err),
			Message: r.err.Error(),
		}
	}
	return ResultView{Type: "success", Visit: r.visit}
}

// MarshalJSON implements json.Marshaler.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.View())
}

// MarshalYAML implements yaml.InterfaceMarshaler.
func (r Result) MarshalYAML() (any, error) {
	return r.View(), nil
}
