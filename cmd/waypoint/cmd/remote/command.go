// Package remote provides the remote command, which talks to a running
// waypoint API server: listing subscriptions and feeding it visits and
// failures.
package remote

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/waypoint/internal/cmd/application"
	"github.com/agentstation/waypoint/internal/cmd/output"
	"github.com/agentstation/waypoint/internal/server"
	"github.com/agentstation/waypoint/internal/transport"
	"github.com/agentstation/waypoint/pkg/visits"
)

// NewCommand creates the remote command. defaults supplies the configured
// server settings used to build the default server URL and API key.
func NewCommand(app application.Application, defaults func() server.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remote",
		GroupID: "core",
		Short:   "Inspect and feed a running waypoint server",
		Long: `Remote talks to a waypoint API server started with "waypoint serve".

The server URL defaults to the configured host, port and path prefix; the
API key defaults to WAYPOINT_SERVER_API_KEY.`,
		Example: `  waypoint remote status
  waypoint remote visit --lat 45.4642 --lon 9.19 --accuracy 10
  waypoint remote fail permission_denied --message "location access revoked"`,
	}

	cmd.PersistentFlags().String("server", "", "Server base URL including the API prefix")
	cmd.PersistentFlags().String("api-key", "", "API key")

	cmd.AddCommand(
		newStatusCommand(app, defaults),
		newVisitCommand(defaults),
		newFailCommand(defaults),
		newHealthCommand(defaults),
	)
	return cmd
}

// clientFor builds a transport client from the flags, falling back to the
// configured server settings.
func clientFor(cmd *cobra.Command, defaults func() server.Config) *transport.Client {
	cfg := defaults()

	base, _ := cmd.Flags().GetString("server")
	if base == "" {
		base = "http://" + cfg.Addr() + cfg.PathPrefix
	}
	key, _ := cmd.Flags().GetString("api-key")
	if key == "" {
		key = cfg.APIKey
	}
	return transport.New(base, key, transport.AuthFor(key, cfg.AuthHeader))
}

func newStatusCommand(app application.Application, defaults func() server.Config) *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "List subscriptions held by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subs, err := clientFor(cmd, defaults).Subscriptions(cmd.Context(), state)
			if err != nil {
				return err
			}

			format := output.Format(app.OutputFormat())
			w := cmd.OutOrStdout()
			switch format {
			case output.FormatJSON, output.FormatYAML:
				return output.NewFormatter(format).Format(w, subs)
			}
			if len(subs) == 0 {
				_, _ = fmt.Fprintln(w, "No subscriptions")
				return nil
			}
			return output.NewFormatter(output.FormatTable).Format(w, output.StatusData(subs, format == output.FormatWide))
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "Filter by state (idle, running, paused, finished)")
	return cmd
}

func newVisitCommand(defaults func() server.Config) *cobra.Command {
	var (
		v         visits.Visit
		target    string
		arrival   string
		departure string
	)

	cmd := &cobra.Command{
		Use:   "visit",
		Short: "Deliver a visit to running subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if v.Arrival, err = parseTime("arrival", arrival); err != nil {
				return err
			}
			if v.Departure, err = parseTime("departure", departure); err != nil {
				return err
			}

			var id visits.ID
			if target != "" {
				if id, err = visits.ParseID(target); err != nil {
					return err
				}
			}

			delivered, err := clientFor(cmd, defaults).DeliverVisit(cmd.Context(), v, id)
			if err != nil {
				return err
			}
			cmd.Printf("Delivered %s to %d subscription(s)\n", v.Coordinate, delivered)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&v.Coordinate.Latitude, "lat", 0, "Latitude in degrees")
	flags.Float64Var(&v.Coordinate.Longitude, "lon", 0, "Longitude in degrees")
	flags.Float64Var(&v.HorizontalAccuracy, "accuracy", 0, "Horizontal accuracy in meters")
	flags.StringVar(&arrival, "arrival", "", "Arrival time (RFC 3339)")
	flags.StringVar(&departure, "departure", "", "Departure time (RFC 3339)")
	flags.StringVar(&target, "subscription", "", "Deliver only to this subscription")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func parseTime(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s: %w", field, err)
	}
	return t, nil
}

func newFailCommand(defaults func() server.Config) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "fail <reason>",
		Short: "Report a producer failure, stopping every active subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, stopped, err := clientFor(cmd, defaults).ReportFailure(cmd.Context(), args[0], message)
			if err != nil {
				return err
			}
			cmd.Printf("Reported %s, stopped %d subscription(s)\n", reason, stopped)
			return nil
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "Detail appended to the reason")
	return cmd
}

func newHealthCommand(defaults func() server.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := clientFor(cmd, defaults)
			health, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("%s: %v (uptime %v, %v subscriptions, %v tombstones)\n",
				c, health["status"], health["uptime"], health["subscriptions"], health["tombstones"])
			return nil
		},
	}
}
