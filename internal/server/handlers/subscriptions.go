package handlers

import (
	"net/http"
	"strconv"

	"github.com/agentstation/waypoint"
	"github.com/agentstation/waypoint/internal/server/cache"
	"github.com/agentstation/waypoint/internal/server/response"
	"github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/visits"
)

// CreateRequest is the optional body of POST /api/v1/subscriptions.
type CreateRequest struct {
	// Start defaults to true.
	Start *bool `json:"start,omitempty"`
}

// HandleListSubscriptions handles GET /api/v1/subscriptions.
// @Summary List subscriptions
// @Description Subscriptions held by the client in insertion order
// @Tags subscriptions
// @Produce json
// @Param state query string false "Filter by state (idle, running, paused, finished)"
// @Success 200 {object} response.Response{data=object}
// @Failure 400 {object} response.Response{error=response.Error}
// @Router /api/v1/subscriptions [get].
func (h *Handlers) HandleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	statuses := h.client.Statuses()

	if name := r.URL.Query().Get("state"); name != "" {
		state, err := visits.ParseState(name)
		if err != nil {
			response.ErrorFromType(w, err)
			return
		}
		filtered := statuses[:0]
		for _, s := range statuses {
			if s.State == state {
				filtered = append(filtered, s)
			}
		}
		statuses = filtered
	}

	response.OK(w, map[string]any{
		"subscriptions": statuses,
		"count":         len(statuses),
	})
}

// HandleCreateSubscription handles POST /api/v1/subscriptions.
// @Summary Create subscription
// @Description Creates a subscription and, unless start is false, starts it
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param request body CreateRequest false "Creation options"
// @Success 201 {object} response.Response{data=waypoint.Status}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 503 {object} response.Response{error=response.Error}
// @Router /api/v1/subscriptions [post].
func (h *Handlers) HandleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	sub := visits.NewRequest(visits.WithLogger(h.logger))
	if !h.client.Add(sub) {
		response.ErrorFromType(w, errors.WrapResource("create", "subscription", sub.ID().String(), errors.ErrClosed))
		return
	}

	if req.Start == nil || *req.Start {
		if err := h.client.Start(sub.ID()); err != nil {
			response.ErrorFromType(w, err)
			return
		}
	}

	status, err := h.client.Status(sub.ID())
	if err != nil {
		h.notFoundOrGone(w, sub.ID(), err)
		return
	}

	h.log(r).Info().
		Str("subscription_id", sub.ID().String()).
		Stringer("state", status.State).
		Msg("Subscription created via API")

	response.Created(w, status)
}

// HandleGetSubscription handles GET /api/v1/subscriptions/{id}.
// @Summary Get subscription
// @Description Current state and last value of a subscription
// @Tags subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} response.Response{data=waypoint.Status}
// @Failure 404 {object} response.Response{error=response.Error}
// @Failure 410 {object} response.Response{data=cache.Tombstone}
// @Router /api/v1/subscriptions/{id} [get].
func (h *Handlers) HandleGetSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	status, err := h.client.Status(id)
	if err != nil {
		h.notFoundOrGone(w, id, err)
		return
	}
	response.OK(w, status)
}

// HandleStartSubscription handles POST /api/v1/subscriptions/{id}/start.
// @Summary Start subscription
// @Tags subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} response.Response{data=waypoint.Status}
// @Router /api/v1/subscriptions/{id}/start [post].
func (h *Handlers) HandleStartSubscription(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.client.Start)
}

// HandlePauseSubscription handles POST /api/v1/subscriptions/{id}/pause.
// @Summary Pause subscription
// @Tags subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} response.Response{data=waypoint.Status}
// @Router /api/v1/subscriptions/{id}/pause [post].
func (h *Handlers) HandlePauseSubscription(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.client.Pause)
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, fn func(visits.ID) error) {
	id, err := pathID(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	if err := fn(id); err != nil {
		h.notFoundOrGone(w, id, err)
		return
	}

	status, err := h.client.Status(id)
	if err != nil {
		h.notFoundOrGone(w, id, err)
		return
	}
	response.OK(w, status)
}

// HandleStopSubscription handles DELETE /api/v1/subscriptions/{id}.
// @Summary Stop subscription
// @Description Stops a subscription with an optional reason. With keep=true
// @Description the finished subscription stays listed; otherwise it is removed.
// @Tags subscriptions
// @Produce json
// @Param id path string true "Subscription ID"
// @Param reason query string false "Reason code (default cancelled)"
// @Param keep query bool false "Keep the finished subscription"
// @Success 200 {object} response.Response{data=object}
// @Failure 404 {object} response.Response{error=response.Error}
// @Router /api/v1/subscriptions/{id} [delete].
func (h *Handlers) HandleStopSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	query := r.URL.Query()
	keep := false
	if raw := query.Get("keep"); raw != "" {
		keep, err = strconv.ParseBool(raw)
		if err != nil {
			response.ErrorFromType(w, errors.NewValidationError("keep", raw, "must be a boolean"))
			return
		}
	}
	reason := visits.ParseReason(query.Get("reason"))

	before, err := h.client.Status(id)
	if err != nil {
		h.notFoundOrGone(w, id, err)
		return
	}

	if err := h.client.StopWithReason(id, reason, !keep); err != nil {
		h.notFoundOrGone(w, id, err)
		return
	}

	h.log(r).Info().
		Str("subscription_id", id.String()).
		Str("reason", visits.ReasonCode(reason)).
		Bool("keep", keep).
		Msg("Subscription stopped via API")

	if status, err := h.client.Status(id); err == nil {
		response.OK(w, status)
		return
	}

	tomb, ok := h.tombstones.Get(id)
	if !ok {
		tomb = tombstoneFor(before, reason)
	}
	response.OK(w, tomb)
}

func tombstoneFor(s waypoint.Status, reason error) cache.Tombstone {
	s.State = visits.StateFinished
	t := cache.Tombstone{Status: s, Reason: visits.ReasonCode(reason)}
	if reason != nil {
		t.Message = reason.Error()
	}
	return t
}
