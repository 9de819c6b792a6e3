package whitelist

import (
	"fmt"

	"wurstmineberg/worldctl/internal/listfile"

	"github.com/spf13/cobra"
)

// RemoveCommand returns a cobra.Command that removes a whitelist
// entry.
func RemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <uuid>",
		Short: "Remove a player from the whitelist",
		Long: `Remove the whitelist entry with the given UUID. Player names can
change; removal always goes by UUID.

Examples:
  worldctl whitelist remove 069a79f4-44e9-4726-a5be-fca90e38aaf5`,
		Args:         cobra.ExactArgs(1),
		RunE:         runRemove,
		SilenceUsage: true,
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	path, err := listPath(cmd)
	if err != nil {
		return err
	}
	uuid := args[0]

	var removed listfile.Entry
	err = listfile.WithList(path, func(l *listfile.List) error {
		entry, ok := l.Find(uuid)
		if !ok {
			return fmt.Errorf("no whitelist entry with UUID %s", uuid)
		}
		removed = entry
		l.Remove(uuid)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s).\n", removed.Name, removed.UUID)
	return nil
}
