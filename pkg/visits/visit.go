package visits

import (
	"fmt"
	"time"

	"github.com/agentstation/waypoint/pkg/errors"
)

// Coordinate is a WGS 84 position in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// String implements fmt.Stringer.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// Visit is a single visit event: the subject arrived at, or departed from,
// a place.
//
// A zero Arrival means the arrival time is unknown; a zero Departure means
// the subject has not left yet.
type Visit struct {
	Coordinate         Coordinate `json:"coordinate" yaml:"coordinate"`
	HorizontalAccuracy float64    `json:"horizontal_accuracy" yaml:"horizontal_accuracy"` // meters
	Arrival            time.Time  `json:"arrival,omitzero" yaml:"arrival,omitempty"`
	Departure          time.Time  `json:"departure,omitzero" yaml:"departure,omitempty"`
}

// HasArrival reports whether the arrival time is known.
func (v Visit) HasArrival() bool {
	return !v.Arrival.IsZero()
}

// HasDeparture reports whether the subject has left the place.
func (v Visit) HasDeparture() bool {
	return !v.Departure.IsZero()
}

// Duration returns how long the visit lasted. It reports false unless both
// arrival and departure are known.
func (v Visit) Duration() (time.Duration, bool) {
	if !v.HasArrival() || !v.HasDeparture() {
		return 0, false
	}
	return v.Departure.Sub(v.Arrival), true
}

// Validate checks that the visit describes a plausible event.
func (v Visit) Validate() error {
	switch {
	case v.Coordinate.Latitude < -90 || v.Coordinate.Latitude > 90:
		return errors.NewValidationError("coordinate.latitude", v.Coordinate.Latitude, "must be between -90 and 90")
	case v.Coordinate.Longitude < -180 || v.Coordinate.Longitude > 180:
		return errors.NewValidationError("coordinate.longitude", v.Coordinate.Longitude, "must be between -180 and 180")
	case v.HorizontalAccuracy < 0:
		return errors.NewValidationError("horizontal_accuracy", v.HorizontalAccuracy, "must not be negative")
	case v.HasArrival() && v.HasDeparture() && v.Departure.Before(v.Arrival):
		return errors.NewValidationError("departure", v.Departure, "must not precede arrival")
	}
	return nil
}
