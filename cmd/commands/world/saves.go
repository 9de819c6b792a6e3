package world

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"wurstmineberg/worldctl/internal/domain"

	"github.com/spf13/cobra"
)

// SavesCommand returns a cobra.Command that toggles autosave.
func SavesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "saves on|off [world...]",
		Short: "Toggle world autosave",
		Long: `Enable or disable a running world's periodic chunk saving. Turning
saves off also flushes pending chunks so the on-disk state is
consistent immediately afterwards.

Examples:
  worldctl world saves off wurstmineberg
  worldctl world saves on --all`,
		Args:         cobra.MinimumNArgs(1),
		RunE:         runSaves,
		SilenceUsage: true,
	}
}

func runSaves(cmd *cobra.Command, args []string) error {
	var enabled bool
	switch args[0] {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return fmt.Errorf("saves takes \"on\" or \"off\", got %q", args[0])
	}

	_, instances, err := selectTargets(cmd, args[1:])
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	controller, cleanup := newController(cmd)
	defer cleanup()

	return forEach(ctx, instances, func(ctx context.Context, inst domain.Instance) error {
		if err := controller.Saves(ctx, inst, enabled); err != nil {
			return fmt.Errorf("%s: %w", inst.Name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: saves %s\n", inst.Name, args[0])
		return nil
	})
}
