package visits

import (
	stderrors "errors"
	"strings"
	"sync"

	"github.com/agentstation/waypoint/pkg/errors"
)

// Reason codes for the well-known failure reasons.
const (
	ReasonCanceled            = "cancelled"
	ReasonTimeout             = "timeout"
	ReasonNotSupported        = "not_supported"
	ReasonPermissionDenied    = "permission_denied"
	ReasonLocationUnavailable = "location_unavailable"
	ReasonSubsystem           = "subsystem_failure"
	ReasonUnknown             = "unknown"
)

type reasonEntry struct {
	code string
	err  error
}

var (
	reasonsMu sync.RWMutex
	reasons   = []reasonEntry{
		{ReasonCanceled, errors.ErrCanceled},
		{ReasonTimeout, errors.ErrTimeout},
		{ReasonNotSupported, errors.ErrNotSupported},
		{ReasonPermissionDenied, errors.ErrPermissionDenied},
		{ReasonLocationUnavailable, errors.ErrLocationUnavailable},
	}
)

// RegisterReason adds a failure reason with a stable code. Reasons are plain
// errors, so registering is only needed for ReasonCode and ParseReason to
// recognise them; dispatch accepts any error.
func RegisterReason(code string, reason error) {
	reasonsMu.Lock()
	defer reasonsMu.Unlock()
	for i, r := range reasons {
		if r.code == code {
			reasons[i].err = reason
			return
		}
	}
	reasons = append(reasons, reasonEntry{code: code, err: reason})
}

// ReasonCode returns the stable code of a failure reason. Wrapped reasons are
// matched with errors.Is.
func ReasonCode(reason error) string {
	if reason == nil {
		return ""
	}

	reasonsMu.RLock()
	defer reasonsMu.RUnlock()
	for _, r := range reasons {
		if stderrors.Is(reason, r.err) {
			return r.code
		}
	}

	var subsystem *errors.SubsystemError
	if stderrors.As(reason, &subsystem) {
		return ReasonSubsystem
	}
	return ReasonUnknown
}

// ParseReason maps a code back to its reason. An empty code means
// cancellation; an unrecognised code becomes a SubsystemError carrying the
// text as its message.
func ParseReason(code string) error {
	normalized := strings.ToLower(strings.TrimSpace(code))
	switch normalized {
	case "":
		return errors.ErrCanceled
	case "canceled":
		normalized = ReasonCanceled
	}

	reasonsMu.RLock()
	defer reasonsMu.RUnlock()
	for _, r := range reasons {
		if r.code == normalized {
			return r.err
		}
	}
	return errors.NewSubsystemError("", code, nil)
}
