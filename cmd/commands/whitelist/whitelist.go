package whitelist

import (
	"path/filepath"

	"wurstmineberg/worldctl/internal/config"
	"wurstmineberg/worldctl/internal/domain"

	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage world whitelists",
		Long: `Edit a world's whitelist.json. Edits go through a cross-process
file lock, so concurrent worldctl invocations (or a cron job) never
corrupt the list. The running server picks changes up on its next
whitelist reload.`,
	}

	cmd.AddCommand(AddCommand())
	cmd.AddCommand(RemoveCommand())
	cmd.AddCommand(ListCommand())

	cmd.PersistentFlags().String("world", "", "World to edit (defaults to the main world)")

	return cmd
}

// listPath resolves the whitelist file for the world named by the
// --world flag, or the main world.
func listPath(cmd *cobra.Command) (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}

	name, _ := cmd.Flags().GetString("world")
	var inst domain.Instance
	if name != "" {
		inst, err = cfg.Instance(name)
	} else {
		inst, err = cfg.Main()
	}
	if err != nil {
		return "", err
	}
	return filepath.Join(inst.Directory, "whitelist.json"), nil
}
