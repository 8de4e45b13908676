package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/agentstation/waypoint/internal/server/events"
	ws "github.com/agentstation/waypoint/internal/server/websocket"
)

// HandleWebSocket handles WebSocket connections at /api/v1/events/ws.
// @Summary WebSocket events
// @Description WebSocket connection for realtime subscription events
// @Tags events
// @Success 101 "Switching Protocols"
// @Router /api/v1/events/ws [get].
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log(r).Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	clientID := fmt.Sprintf("%s-%d", r.RemoteAddr, time.Now().UnixNano())
	client := ws.NewClient(clientID, h.wsHub, conn)
	if !h.wsHub.Register(client) {
		_ = conn.Close()
		return
	}

	h.wsHub.Broadcast(ws.Message{
		Type:      string(events.ClientConnected),
		Timestamp: time.Now().UTC(),
		Data: map[string]any{
			"client_id": clientID,
			"message":   "Client connected to waypoint events",
		},
	})

	go client.WritePump()
	go client.ReadPump()
}

// HandleSSE handles Server-Sent Events at /api/v1/events/stream.
// @Summary SSE event stream
// @Description Server-Sent Events stream of subscription events
// @Tags events
// @Produce text/event-stream
// @Success 200 "Event stream"
// @Router /api/v1/events/stream [get].
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sseBroadcaster.ServeHTTP(w, r)
}
