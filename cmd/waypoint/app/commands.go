package app

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/agentstation/waypoint/cmd/waypoint/cmd/remote"
	"github.com/agentstation/waypoint/cmd/waypoint/cmd/replay"
	"github.com/agentstation/waypoint/cmd/waypoint/cmd/serve"
	"github.com/agentstation/waypoint/internal/server"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(replay.NewCommand(a))
	rootCmd.AddCommand(serve.NewCommand(a, a.serverDefaults))
	rootCmd.AddCommand(remote.NewCommand(a, a.serverDefaults))
	rootCmd.AddCommand(a.newVersionCommand())
}

// serverDefaults maps the loaded configuration onto server settings; serve
// flags override them.
func (a *App) serverDefaults() server.Config {
	cfg := server.DefaultConfig()
	sc := a.config.Server
	if sc.Host != "" {
		cfg.Host = sc.Host
	}
	if sc.Port != 0 {
		cfg.Port = sc.Port
	}
	if sc.PathPrefix != "" {
		cfg.PathPrefix = sc.PathPrefix
	}
	if sc.APIKey != "" {
		cfg.APIKey = sc.APIKey
		cfg.AuthEnabled = true
	}
	cfg.RateLimit = sc.RateLimit
	if sc.TombstoneTTL > 0 {
		cfg.TombstoneTTL = sc.TombstoneTTL
	}
	return cfg
}

// newVersionCommand creates the version command.
func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("waypoint %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
				cmd.Printf("  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			}
		},
	}
}
