package world

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"wurstmineberg/worldctl/internal/domain"

	"github.com/spf13/cobra"
)

// BackupCommand returns a cobra.Command that backs up running worlds.
func BackupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup [world...]",
		Short: "Back up worlds while they run",
		Long: `Archive each world's directory into a timestamped tarball without
stopping the server. Autosave is disabled and pending chunks flushed
before the copy, and autosave is re-enabled afterwards regardless of
the outcome.

Tarballs land in the configured backup directory per world, or in the
directory given with --dest.

Examples:
  worldctl world backup
  worldctl world backup creative --dest /mnt/backups`,
		RunE:         runBackup,
		SilenceUsage: true,
	}

	cmd.Flags().String("dest", "", "Destination directory (overrides the configured backup path)")

	return cmd
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, instances, err := selectTargets(cmd, args)
	if err != nil {
		return err
	}
	destOverride, _ := cmd.Flags().GetString("dest")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	controller, cleanup := newController(cmd)
	defer cleanup()

	return forEach(ctx, instances, func(ctx context.Context, inst domain.Instance) error {
		dest := destOverride
		if dest == "" {
			dest = cfg.BackupDir(inst.Name)
		}
		if dest == "" {
			dest = filepath.Join(inst.Directory, "backup")
		}

		path, err := controller.Backup(ctx, inst, dest)
		if err != nil {
			return fmt.Errorf("%s: %w", inst.Name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", inst.Name, path)
		return nil
	})
}
