// Package server provides the HTTP API for a waypoint client: subscription
// management, a visit and failure feed for producers, and realtime event
// streams over WebSocket and SSE.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/waypoint"
	"github.com/agentstation/waypoint/internal/cmd/application"
	"github.com/agentstation/waypoint/internal/server/cache"
	"github.com/agentstation/waypoint/internal/server/events"
	"github.com/agentstation/waypoint/internal/server/events/adapters"
	"github.com/agentstation/waypoint/internal/server/middleware"
	"github.com/agentstation/waypoint/internal/server/sse"
	ws "github.com/agentstation/waypoint/internal/server/websocket"
	"github.com/agentstation/waypoint/pkg/constants"
	"github.com/agentstation/waypoint/pkg/errors"
	"github.com/agentstation/waypoint/pkg/visits"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	client         waypoint.Client
	tombstones     *cache.Tombstones
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	rateLimiter    *middleware.RateLimiter
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	version        string
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	startTime      time.Time
}

// New creates a server for the application's client.
func New(app application.Application, cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := app.Client()
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}

	logger := app.Logger()
	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)

	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		client:         client,
		tombstones:     cache.New(cfg.TombstoneTTL, 2*cfg.TombstoneTTL),
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		logger:    logger,
		config:    cfg,
		version:   app.Version(),
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}

	if cfg.RateLimit > 0 {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	s.connectHooks()

	logger.Debug().
		Str("addr", cfg.Addr()).
		Str("prefix", cfg.PathPrefix).
		Msg("Server instance created")
	return s, nil
}

// connectHooks publishes client activity to the broker. Every subscription
// that joins the set gets an observer forwarding its dispatches.
func (s *Server) connectHooks() {
	s.client.OnSubscribed(func(r *visits.Request) {
		id := r.ID()
		r.AddObserver(func(res visits.Result) {
			s.broker.Publish(events.TypeOf(res), events.Dispatch{
				SubscriptionID: id,
				Result:         res,
			})
		})
		s.tombstones.Forget(id)
		s.broker.Publish(events.SubscriptionCreated, waypoint.StatusOf(r))
	})

	s.client.OnRemoved(func(r *visits.Request, reason error) {
		tomb := cache.NewTombstone(r, reason)
		s.tombstones.Put(tomb)
		s.broker.Publish(events.SubscriptionRemoved, events.Removal{
			SubscriptionID: r.ID(),
			Reason:         tomb.Reason,
			Message:        tomb.Message,
		})
	})

	s.logger.Debug().Msg("Client hooks connected to event broker")
}

// Start starts the background services (broker, WebSocket hub, SSE
// broadcaster).
func (s *Server) Start() {
	for _, run := range []func(context.Context){
		s.broker.Run,
		s.wsHub.Run,
		s.sseBroadcaster.Run,
	} {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			run(s.ctx)
		}()
	}
	s.logger.Debug().Msg("Background services started")
}

// Handler returns the configured http.Handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Shutdown stops the background services and waits for them to exit, or
// for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")

	s.cancel()
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timeout := time.NewTimer(constants.ServiceShutdownTimeout)
	defer timeout.Stop()

	select {
	case <-done:
		s.logger.Info().Msg("Background services shut down successfully")
		return nil
	case <-timeout.C:
		s.logger.Warn().Msg("Background services shutdown timed out")
		return errors.NewResourceError("stop", "background services", "", errors.ErrTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Client returns the waypoint client served by this server.
func (s *Server) Client() waypoint.Client {
	return s.client
}

// Broker returns the event broker.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
