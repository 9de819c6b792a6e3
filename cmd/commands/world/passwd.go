package world

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// PasswdCommand returns a cobra.Command that manages stored RCON
// passwords.
func PasswdCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passwd <world>",
		Short: "Store a world's RCON password in the OS keyring",
		Long: `Store (or clear) the RCON password for a world in the operating
system keyring. A password in the config file takes precedence; the
keyring is the fallback so the config never has to carry secrets.

Examples:
  worldctl world passwd wurstmineberg
  worldctl world passwd wurstmineberg --clear`,
		Args:         cobra.ExactArgs(1),
		RunE:         runPasswd,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("clear", false, "Remove the stored password instead")

	return cmd
}

func runPasswd(cmd *cobra.Command, args []string) error {
	name := args[0]

	if clear, _ := cmd.Flags().GetBool("clear"); clear {
		if err := secretStore.DeletePassword(name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Password for %s removed.\n", name)
		return nil
	}

	var password string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(fmt.Sprintf("RCON password for %s", name)).
			EchoMode(huh.EchoModePassword).
			Value(&password),
	)).WithAccessible(os.Getenv("ACCESSIBLE") != "")

	if err := form.Run(); err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("empty password not stored")
	}

	if err := secretStore.SetPassword(name, password); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Password for %s stored.\n", name)
	return nil
}
