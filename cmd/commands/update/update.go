package update

import (
	"fmt"

	"wurstmineberg/worldctl/internal/config"
	"wurstmineberg/worldctl/internal/domain"
	"wurstmineberg/worldctl/internal/initsys"
	"wurstmineberg/worldctl/internal/lifecycle"
	"wurstmineberg/worldctl/internal/secrets"
	"wurstmineberg/worldctl/internal/updater"

	"github.com/spf13/cobra"
)

// secretStore is the RCON password fallback; swapped in tests.
var secretStore secrets.Store = secrets.NewKeyringStore("")

// newClient and newController are replaced in tests.
var (
	newClient     = updater.NewClient
	newController = func(cmd *cobra.Command) *lifecycle.Controller {
		c := lifecycle.NewController(initsys.NewSystemd())
		c.Out = cmd.ErrOrStderr()
		return c
	}
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for and apply server-jar updates",
		Long: `Resolve target server versions against Mojang's version manifest,
download and checksum-verify server jars, and swap a world's jar
symlink.

Custom-flavor worlds run operator-provided binaries; update refuses
to touch them.`,
	}

	cmd.AddCommand(CheckCommand())
	cmd.AddCommand(ApplyCommand())

	return cmd
}

// resolveWorld picks the target world: the named one, or the main
// world when no argument is given.
func resolveWorld(args []string) (*config.Config, domain.Instance, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, domain.Instance{}, err
	}

	var inst domain.Instance
	if len(args) > 0 {
		inst, err = cfg.Instance(args[0])
	} else {
		inst, err = cfg.Main()
	}
	if err != nil {
		return nil, domain.Instance{}, err
	}

	if inst.RCON.Password == "" {
		if password, kerr := secretStore.GetPassword(inst.Name); kerr == nil {
			inst.RCON.Password = password
		}
	}
	return cfg, inst, nil
}

// targetSpec builds the version selector from the shared flags.
func targetSpec(cmd *cobra.Command) updater.Spec {
	version, _ := cmd.Flags().GetString("version")
	snapshot, _ := cmd.Flags().GetBool("snapshot")
	return updater.Spec{Exact: version, Snapshot: snapshot}
}

// refuseCustom rejects updates for operator-provided server binaries.
func refuseCustom(inst domain.Instance) error {
	if inst.Flavor == domain.FlavorCustom {
		return fmt.Errorf("world %q runs a custom server; updates are not managed: %w",
			inst.Name, domain.ErrConfig)
	}
	return nil
}
