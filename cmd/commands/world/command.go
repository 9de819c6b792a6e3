package world

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

// CmdCommand returns a cobra.Command for raw console passthrough.
func CmdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cmd <world> <command>...",
		Short: "Run a raw console command on a world",
		Long: `Send one command to a running world's console over RCON and print
the server's reply verbatim.

Examples:
  worldctl world cmd wurstmineberg list
  worldctl world cmd wurstmineberg -- time set day`,
		Args:         cobra.MinimumNArgs(2),
		RunE:         runCmd,
		SilenceUsage: true,
	}
}

func runCmd(cmd *cobra.Command, args []string) error {
	_, instances, err := selectTargets(cmd, args[:1])
	if err != nil {
		return err
	}
	inst := instances[0]
	command := strings.Join(args[1:], " ")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	controller, cleanup := newController(cmd)
	defer cleanup()

	reply, err := controller.Command(ctx, inst, command)
	if err != nil {
		return fmt.Errorf("%s: %w", inst.Name, err)
	}
	if reply != "" {
		fmt.Fprintln(cmd.OutOrStdout(), reply)
	}
	return nil
}
