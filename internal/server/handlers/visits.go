package handlers

import (
	"fmt"
	"net/http"

	"github.com/agentstation/waypoint/internal/server/response"
	"github.com/agentstation/waypoint/pkg/visits"
)

// FailureRequest is the body of POST /api/v1/failures.
type FailureRequest struct {
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

// HandleDeliverVisit handles POST /api/v1/visits.
// @Summary Deliver visit
// @Description Delivers a visit to every running subscription, or to one
// @Description subscription when the subscription query parameter is set.
// @Tags producer
// @Accept json
// @Produce json
// @Param subscription query string false "Target subscription ID"
// @Param visit body visits.Visit true "Visit event"
// @Success 200 {object} response.Response{data=object}
// @Failure 400 {object} response.Response{error=response.Error}
// @Router /api/v1/visits [post].
func (h *Handlers) HandleDeliverVisit(w http.ResponseWriter, r *http.Request) {
	var v visits.Visit
	if err := decodeJSON(w, r, &v, false); err != nil {
		response.ErrorFromType(w, err)
		return
	}
	if err := v.Validate(); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	target := r.URL.Query().Get("subscription")
	if target == "" {
		response.OK(w, map[string]any{"delivered": h.client.Deliver(v)})
		return
	}

	id, err := visits.ParseID(target)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	applied, err := h.client.Complete(id, v)
	if err != nil {
		h.notFoundOrGone(w, id, err)
		return
	}

	delivered := 0
	if applied {
		delivered = 1
	}
	response.OK(w, map[string]any{"delivered": delivered})
}

// HandleReportFailure handles POST /api/v1/failures.
// @Summary Report monitoring failure
// @Description Terminates every active subscription with the given reason
// @Tags producer
// @Accept json
// @Produce json
// @Param failure body FailureRequest true "Failure report"
// @Success 200 {object} response.Response{data=object}
// @Failure 400 {object} response.Response{error=response.Error}
// @Router /api/v1/failures [post].
func (h *Handlers) HandleReportFailure(w http.ResponseWriter, r *http.Request) {
	var req FailureRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	reason := visits.ParseReason(req.Reason)
	if req.Message != "" {
		reason = fmt.Errorf("%w: %s", reason, req.Message)
	}

	stopped := h.client.Fail(reason)

	h.log(r).Warn().
		Str("reason", visits.ReasonCode(reason)).
		Int("stopped", stopped).
		Msg("Failure reported via API")

	response.OK(w, map[string]any{
		"reason":  visits.ReasonCode(reason),
		"stopped": stopped,
	})
}
