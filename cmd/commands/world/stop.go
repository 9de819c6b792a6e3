package world

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"wurstmineberg/worldctl/internal/domain"

	"github.com/spf13/cobra"
)

// StopCommand returns a cobra.Command that stops worlds gracefully.
func StopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop [world...]",
		Short: "Stop worlds gracefully",
		Long: `Stop one or more worlds: players get an in-game notice, pending
chunks are flushed with save-all, the server's own stop command runs,
and then systemd stops the unit. When the world's console is
unreachable the unit is stopped forcefully instead.

Examples:
  worldctl world stop
  worldctl world stop creative
  worldctl world stop --all`,
		RunE:         runStop,
		SilenceUsage: true,
	}
}

func runStop(cmd *cobra.Command, args []string) error {
	_, instances, err := selectTargets(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	controller, cleanup := newController(cmd)
	defer cleanup()

	return forEach(ctx, instances, func(ctx context.Context, inst domain.Instance) error {
		if err := controller.Stop(ctx, inst); err != nil {
			return fmt.Errorf("%s: %w", inst.Name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: stopped\n", inst.Name)
		return nil
	})
}
