package update

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"wurstmineberg/worldctl/internal/updater"

	"github.com/spf13/cobra"
)

// CheckCommand returns a cobra.Command that reports whether a newer
// server version exists.
func CheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [world]",
		Short: "Check whether a newer server version is available",
		Long: `Compare the world's installed server version against the target
resolved from Mojang's version manifest (latest release by default).

Examples:
  worldctl update check
  worldctl update check creative --snapshot`,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runCheck,
		SilenceUsage: true,
	}

	cmd.Flags().String("version", "", "Target an exact version instead of the latest release")
	cmd.Flags().Bool("snapshot", false, "Target the latest snapshot")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	_, inst, err := resolveWorld(args)
	if err != nil {
		return err
	}
	if err := refuseCustom(inst); err != nil {
		return err
	}

	current, err := updater.InstalledVersion(inst.Directory)
	if err != nil {
		return fmt.Errorf("%s: %w", inst.Name, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	result, err := newClient().Check(ctx, current, targetSpec(cmd))
	if err != nil {
		return fmt.Errorf("%s: %w", inst.Name, err)
	}

	switch result.Status {
	case updater.StatusUpToDate:
		fmt.Fprintf(cmd.OutOrStdout(), "%s: up to date (%s)\n", inst.Name, result.Current)
	case updater.StatusUpdateAvailable:
		fmt.Fprintf(cmd.OutOrStdout(), "%s: update available: %s -> %s\n", inst.Name, result.Current, result.Target)
	default:
		if result.Current == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: no managed jar installed; target is %s\n", inst.Name, result.Target)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: installed version %q not in the manifest; target is %s\n",
				inst.Name, result.Current, result.Target)
		}
	}
	return nil
}
