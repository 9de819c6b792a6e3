package whitelist

import (
	"fmt"

	"wurstmineberg/worldctl/internal/listfile"

	"github.com/spf13/cobra"
)

// AddCommand returns a cobra.Command that adds a whitelist entry.
func AddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <uuid> <name>",
		Short: "Add a player to the whitelist",
		Long: `Add a player to the world's whitelist. The UUID is the stable
identifier; adding an already-present UUID is an error.

Examples:
  worldctl whitelist add 069a79f4-44e9-4726-a5be-fca90e38aaf5 Notch
  worldctl whitelist add --world creative 069a79f4-... Notch`,
		Args:         cobra.ExactArgs(2),
		RunE:         runAdd,
		SilenceUsage: true,
	}
}

func runAdd(cmd *cobra.Command, args []string) error {
	path, err := listPath(cmd)
	if err != nil {
		return err
	}
	uuid, name := args[0], args[1]

	err = listfile.WithList(path, func(l *listfile.List) error {
		return l.Add(listfile.NewEntry(uuid, name))
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s).\n", name, uuid)
	return nil
}
