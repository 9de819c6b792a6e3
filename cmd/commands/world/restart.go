package world

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"wurstmineberg/worldctl/internal/domain"

	"github.com/spf13/cobra"
)

// RestartCommand returns a cobra.Command that restarts worlds.
func RestartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restart [world...]",
		Short: "Restart worlds",
		Long: `Gracefully stop and then start one or more worlds. A failed stop
aborts that world's restart; a world is never started on top of a
half-stopped unit.

Examples:
  worldctl world restart
  worldctl world restart --enabled`,
		RunE:         runRestart,
		SilenceUsage: true,
	}
}

func runRestart(cmd *cobra.Command, args []string) error {
	_, instances, err := selectTargets(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	controller, cleanup := newController(cmd)
	defer cleanup()

	return forEach(ctx, instances, func(ctx context.Context, inst domain.Instance) error {
		state, err := controller.Restart(ctx, inst)
		if err != nil {
			return fmt.Errorf("%s: %w", inst.Name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", inst.Name, state)
		return nil
	})
}
