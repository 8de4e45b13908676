// Package handlers provides HTTP request handlers for the waypoint API.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/waypoint"
	"github.com/agentstation/waypoint/internal/server/cache"
	"github.com/agentstation/waypoint/internal/server/response"
	"github.com/agentstation/waypoint/internal/server/sse"
	ws "github.com/agentstation/waypoint/internal/server/websocket"
	"github.com/agentstation/waypoint/pkg/constants"
	"github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/logging"
	"github.com/agentstation/waypoint/pkg/visits"
)

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	client         waypoint.Client
	tombstones     *cache.Tombstones
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	version        string
	startTime      time.Time
}

// New creates a new Handlers instance.
func New(
	client waypoint.Client,
	tombstones *cache.Tombstones,
	wsHub *ws.Hub,
	sseBroadcaster *sse.Broadcaster,
	upgrader websocket.Upgrader,
	logger *zerolog.Logger,
	version string,
	startTime time.Time,
) *Handlers {
	return &Handlers{
		client:         client,
		tombstones:     tombstones,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader:       upgrader,
		logger:         logger,
		version:        version,
		startTime:      startTime,
	}
}

// pathID reads and validates the {id} path segment.
func pathID(r *http.Request) (visits.ID, error) {
	return visits.ParseID(r.PathValue("id"))
}

// decodeJSON decodes a size-limited JSON body into dst. An empty body
// leaves dst untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, constants.MaxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && stderrors.Is(err, io.EOF) {
			return nil
		}
		return errors.NewParseError("json", "", err.Error(), err)
	}
	return nil
}

// notFoundOrGone answers for an ID the client no longer holds: 410 with the
// tombstone if it was removed recently, the mapped error otherwise.
func (h *Handlers) notFoundOrGone(w http.ResponseWriter, id visits.ID, err error) {
	if errors.IsNotFound(err) {
		if tomb, ok := h.tombstones.Get(id); ok {
			response.Gone(w, "Subscription "+id.String()+" was removed", tomb)
			return
		}
	}
	response.ErrorFromType(w, err)
}

// log returns the request-scoped logger, falling back to the server's.
func (h *Handlers) log(r *http.Request) *zerolog.Logger {
	if logging.RequestID(r.Context()) != "" {
		return logging.FromContext(r.Context())
	}
	return h.logger
}
