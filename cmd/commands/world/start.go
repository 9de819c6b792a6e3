package world

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"wurstmineberg/worldctl/internal/domain"

	"github.com/spf13/cobra"
)

// StartCommand returns a cobra.Command that starts worlds.
func StartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start [world...]",
		Short: "Start worlds and wait for them to come up",
		Long: `Start one or more worlds through systemd, then poll each world's
RCON endpoint until it accepts an authenticated session.

A world that was started but is not answering yet is reported as
"unknown" rather than failed; large worlds can take minutes to load.

Examples:
  worldctl world start                 # main world
  worldctl world start creative usg
  worldctl world start --enabled`,
		RunE:         runStart,
		SilenceUsage: true,
	}
}

func runStart(cmd *cobra.Command, args []string) error {
	_, instances, err := selectTargets(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	controller, cleanup := newController(cmd)
	defer cleanup()

	return forEach(ctx, instances, func(ctx context.Context, inst domain.Instance) error {
		state, err := controller.Start(ctx, inst)
		if err != nil {
			return fmt.Errorf("%s: %w", inst.Name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", inst.Name, state)
		return nil
	})
}
