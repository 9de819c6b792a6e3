package whitelist

import (
	"fmt"
	"text/tabwriter"

	"wurstmineberg/worldctl/internal/listfile"

	"github.com/spf13/cobra"
)

// ListCommand returns a cobra.Command that prints the whitelist.
func ListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the whitelist",
		Long: `Print the world's whitelist entries.

Examples:
  worldctl whitelist list
  worldctl whitelist list --world creative`,
		RunE:         runList,
		SilenceUsage: true,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	path, err := listPath(cmd)
	if err != nil {
		return err
	}

	list, err := listfile.Read(path)
	if err != nil {
		return err
	}
	if len(list.Entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Whitelist is empty.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tUUID")
	for _, entry := range list.Entries {
		fmt.Fprintf(w, "%s\t%s\n", entry.Name, entry.UUID)
	}
	return w.Flush()
}
