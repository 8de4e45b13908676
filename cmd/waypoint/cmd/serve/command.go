// Package serve provides the serve command, which exposes a waypoint client
// over HTTP with WebSocket and SSE event streams.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/waypoint/internal/cmd/application"
	"github.com/agentstation/waypoint/internal/server"
	"github.com/agentstation/waypoint/pkg/constants"
)

// NewCommand creates the serve command. defaults supplies the configured
// server settings at run time; flags set on the command line override them.
func NewCommand(app application.Application, defaults func() server.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		GroupID: "core",
		Short:   "Serve the subscription API with WebSocket and SSE support",
		Args:    cobra.NoArgs,
		Long: `Start the waypoint API server.

Features:
  - Subscription management (/api/v1/subscriptions)
  - Producer feed for visits and failures (/api/v1/visits, /api/v1/failures)
  - WebSocket event stream (/api/v1/events/ws)
  - Server-Sent Events stream (/api/v1/events/stream)
  - 410 Gone with the final state of recently removed subscriptions
  - Rate limiting, API key authentication and CORS
  - Request logging, panic recovery and graceful shutdown`,
		Example: `  # Start on the default port
  waypoint serve

  # Require an API key
  waypoint serve --auth --api-key secret

  # Allow browser clients from one origin
  waypoint serve --cors-origins https://app.example.com`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := defaults()
			applyFlags(cmd, &cfg)
			return run(cmd.Context(), app, cfg)
		},
	}

	d := server.DefaultConfig()
	cmd.Flags().IntP("port", "p", d.Port, "Server port")
	cmd.Flags().String("host", d.Host, "Bind address")
	cmd.Flags().String("prefix", d.PathPrefix, "API path prefix")
	cmd.Flags().Bool("cors", false, "Enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", nil, "Allowed CORS origins (comma-separated)")
	cmd.Flags().Bool("auth", false, "Enable API key authentication")
	cmd.Flags().String("auth-header", d.AuthHeader, "Authentication header name")
	cmd.Flags().String("api-key", "", "API key (or WAYPOINT_SERVER_API_KEY)")
	cmd.Flags().Int("rate-limit", d.RateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Duration("tombstone-ttl", d.TombstoneTTL, "How long removed subscriptions answer 410 Gone")
	cmd.Flags().Duration("read-timeout", d.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("idle-timeout", d.IdleTimeout, "HTTP idle timeout")

	return cmd
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cmd *cobra.Command, cfg *server.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("prefix") {
		cfg.PathPrefix, _ = flags.GetString("prefix")
	}
	if flags.Changed("cors") {
		cfg.CORSEnabled, _ = flags.GetBool("cors")
	}
	if flags.Changed("cors-origins") {
		cfg.CORSOrigins, _ = flags.GetStringSlice("cors-origins")
		cfg.CORSEnabled = true
	}
	if flags.Changed("auth") {
		cfg.AuthEnabled, _ = flags.GetBool("auth")
	}
	if flags.Changed("auth-header") {
		cfg.AuthHeader, _ = flags.GetString("auth-header")
	}
	if flags.Changed("api-key") {
		cfg.APIKey, _ = flags.GetString("api-key")
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimit, _ = flags.GetInt("rate-limit")
	}
	if flags.Changed("tombstone-ttl") {
		cfg.TombstoneTTL, _ = flags.GetDuration("tombstone-ttl")
	}
	if flags.Changed("read-timeout") {
		cfg.ReadTimeout, _ = flags.GetDuration("read-timeout")
	}
	if flags.Changed("idle-timeout") {
		cfg.IdleTimeout, _ = flags.GetDuration("idle-timeout")
	}
}

func run(ctx context.Context, app application.Application, cfg server.Config) error {
	logger := app.Logger()

	srv, err := server.New(app, cfg)
	if err != nil {
		return err
	}
	srv.Start()

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	logger.Info().
		Str("addr", cfg.Addr()).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Bool("auth", cfg.AuthEnabled).
		Int("rate_limit", cfg.RateLimit).
		Dur("tombstone_ttl", cfg.TombstoneTTL).
		Msg("Starting API server")

	return serveUntilDone(ctx, httpServer, srv, logger)
}

// serveUntilDone runs httpServer until it fails or ctx is cancelled, then
// drains connections and stops the background services.
func serveUntilDone(ctx context.Context, httpServer *http.Server, srv *server.Server, logger *zerolog.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		_ = srv.Shutdown(context.Background())
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	start := time.Now()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info().Dur("took", time.Since(start)).Msg("Server stopped gracefully")
	return nil
}
