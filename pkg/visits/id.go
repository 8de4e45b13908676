package visits

import (
	"github.com/google/uuid"

	"github.com/agentstation/waypoint/pkg/errors"
)

// ID uniquely identifies a Request for the lifetime of the process.
type ID string

// NewID returns a fresh random identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID validates s as a request identifier.
func ParseID(s string) (ID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", errors.NewValidationError("id", s, "not a valid subscription identifier")
	}
	return ID(s), nil
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool {
	return id == ""
}
