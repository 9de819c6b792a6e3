package update

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"wurstmineberg/worldctl/internal/backup"
	"wurstmineberg/worldctl/internal/domain"
	"wurstmineberg/worldctl/internal/updater"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

// ApplyCommand returns a cobra.Command that updates a world's server
// jar.
func ApplyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply [world]",
		Short: "Download and install a server-jar update",
		Long: `Update a world to the target version: download the server jar,
verify it against the manifest's sha1, stop the world if it is
running, take a pre-update backup, swap the jar symlink, and start
the world again.

The download is verified before anything is touched; a checksum
mismatch aborts the update with the world still on its old jar.

Examples:
  worldctl update apply
  worldctl update apply creative --version 1.20.1
  worldctl update apply --snapshot --no-backup`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runApply,
		SilenceUsage: true,
	}

	cmd.Flags().String("version", "", "Install an exact version instead of the latest release")
	cmd.Flags().Bool("snapshot", false, "Install the latest snapshot")
	cmd.Flags().Bool("no-backup", false, "Skip the pre-update backup")

	return cmd
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, inst, err := resolveWorld(args)
	if err != nil {
		return err
	}
	if err := refuseCustom(inst); err != nil {
		return err
	}
	noBackup, _ := cmd.Flags().GetBool("no-backup")
	spec := targetSpec(cmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	client := newClient()
	manifest, err := client.Manifest(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", inst.Name, err)
	}
	target, ok := manifest.Resolve(spec)
	if !ok {
		return fmt.Errorf("no version matches the requested target: %w", domain.ErrConfig)
	}

	current, err := updater.InstalledVersion(inst.Directory)
	if err != nil {
		return fmt.Errorf("%s: %w", inst.Name, err)
	}
	if current == target.ID {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: already on %s\n", inst.Name, current)
		return nil
	}

	jarDir := cfg.Paths.Jar
	if jarDir == "" {
		jarDir = filepath.Join(inst.Directory, "jar")
	}

	var jarPath string
	accessible := os.Getenv("ACCESSIBLE") != ""
	var downloadErr error
	spinErr := spinner.New().
		Title(fmt.Sprintf("Downloading server %s...", target.ID)).
		Accessible(accessible).
		Output(cmd.ErrOrStderr()).
		Action(func() {
			jarPath, downloadErr = client.Download(ctx, target, jarDir)
		}).
		Run()
	if spinErr != nil {
		return spinErr
	}
	if downloadErr != nil {
		return fmt.Errorf("%s: %w", inst.Name, downloadErr)
	}

	controller := newController(cmd)

	report, err := controller.Status(ctx, inst)
	if err != nil {
		return fmt.Errorf("%s: %w", inst.Name, err)
	}
	wasRunning := report.State == domain.StateRunning

	if wasRunning {
		if err := controller.Stop(ctx, inst); err != nil {
			return fmt.Errorf("%s: %w", inst.Name, err)
		}
	}

	if !noBackup {
		backupDir := cfg.BackupDir(inst.Name)
		if backupDir == "" {
			backupDir = filepath.Join(inst.Directory, "backup")
		}
		dest := filepath.Join(backupDir, "pre-update", backup.DefaultName(inst.Name, time.Now()))
		fmt.Fprintf(cmd.ErrOrStderr(), "Backing up %s before the update...\n", inst.Name)
		if err := backup.Create(inst.Directory, dest); err != nil {
			return fmt.Errorf("%s: pre-update backup: %w", inst.Name, err)
		}
	}

	if err := updater.InstallJar(jarPath, inst.Directory); err != nil {
		return fmt.Errorf("%s: %w", inst.Name, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: installed %s", inst.Name, target.ID)
	if current != "" {
		fmt.Fprintf(cmd.OutOrStdout(), " (was %s)", current)
	}
	fmt.Fprintln(cmd.OutOrStdout())

	if wasRunning {
		state, err := controller.Start(ctx, inst)
		if err != nil {
			return fmt.Errorf("%s: %w", inst.Name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", inst.Name, state)
	}
	return nil
}
