package cmd

import (
	"os"

	"wurstmineberg/worldctl/cmd/commands/update"
	"wurstmineberg/worldctl/cmd/commands/whitelist"
	"wurstmineberg/worldctl/cmd/commands/world"
	"wurstmineberg/worldctl/internal/domain"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
func rootCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "worldctl",
		Short: "Manage systemd-supervised Minecraft worlds",
		Long: `worldctl manages the lifecycle of Minecraft worlds supervised by
systemd (one minecraft@<name> unit per world): graceful start and stop,
live backups, server-jar updates, and whitelist maintenance.

Quick start:
  worldctl world status --all      # Probe every configured world
  worldctl world start             # Start the main world
  worldctl world backup creative   # Back up one world while it runs
  worldctl update apply            # Update the main world's server jar`,
	}

	cmd.AddCommand(world.NewCommand())
	cmd.AddCommand(update.NewCommand())
	cmd.AddCommand(whitelist.NewCommand())

	return cmd
}

// Execute runs the root command. Failure categories map to distinct
// exit codes so scripts can tell a rejected password from an
// unreachable endpoint.
func Execute() {
	var root = rootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(domain.ExitCode(err))
	}
}
