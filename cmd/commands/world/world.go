package world

import (
	"context"
	"errors"
	"fmt"
	"os"

	"wurstmineberg/worldctl/internal/config"
	"wurstmineberg/worldctl/internal/domain"
	"wurstmineberg/worldctl/internal/initsys"
	"wurstmineberg/worldctl/internal/lifecycle"
	"wurstmineberg/worldctl/internal/opstore"
	"wurstmineberg/worldctl/internal/secrets"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// secretStore is the password fallback. Swapped for a MemoryStore in
// tests so no test touches the OS keyring.
var secretStore secrets.Store = secrets.NewKeyringStore("")

// newController builds the production controller. Tests replace it to
// inject mocks.
var newController = func(cmd *cobra.Command) (*lifecycle.Controller, func()) {
	c := lifecycle.NewController(initsys.NewSystemd())
	c.Out = cmd.ErrOrStderr()

	cleanup := func() {}
	// History is best effort; lifecycle operations proceed without it.
	if repo, err := opstore.Open(); err == nil {
		c.Ops = repo
		cleanup = func() { repo.Close() }
	}
	return c, cleanup
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "world",
		Short: "Start, stop, back up, and inspect worlds",
		Long: `Lifecycle operations on configured worlds.

With no world argument, commands act on the configured main world;
when no main world is set and several worlds exist, an interactive
picker is shown. --all and --enabled iterate the whole catalog,
running distinct worlds concurrently.`,
	}

	cmd.AddCommand(StartCommand())
	cmd.AddCommand(StopCommand())
	cmd.AddCommand(RestartCommand())
	cmd.AddCommand(StatusCommand())
	cmd.AddCommand(BackupCommand())
	cmd.AddCommand(CmdCommand())
	cmd.AddCommand(SavesCommand())
	cmd.AddCommand(OpsCommand())
	cmd.AddCommand(PasswdCommand())

	cmd.PersistentFlags().Bool("all", false, "Act on every configured world")
	cmd.PersistentFlags().Bool("enabled", false, "Act on every enabled world")

	return cmd
}

// selectTargets resolves the worlds a command acts on from its flags
// and positional arguments, filling in keyring passwords where the
// config omits them.
func selectTargets(cmd *cobra.Command, args []string) (*config.Config, []domain.Instance, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	all, _ := cmd.Flags().GetBool("all")
	enabledOnly, _ := cmd.Flags().GetBool("enabled")

	var instances []domain.Instance
	switch {
	case all:
		instances, err = cfg.Instances()
	case enabledOnly:
		instances, err = cfg.EnabledInstances()
	case len(args) > 0:
		for _, name := range args {
			inst, instErr := cfg.Instance(name)
			if instErr != nil {
				return nil, nil, instErr
			}
			instances = append(instances, inst)
		}
	default:
		var inst domain.Instance
		inst, err = defaultTarget(cfg)
		instances = []domain.Instance{inst}
	}
	if err != nil {
		return nil, nil, err
	}
	if len(instances) == 0 {
		return nil, nil, fmt.Errorf("no worlds configured: %w", domain.ErrConfig)
	}

	for i := range instances {
		fillPassword(&instances[i])
	}
	return cfg, instances, nil
}

// defaultTarget picks the world for an argument-less invocation: the
// main world when configured, the only world when there is just one,
// otherwise an interactive selection.
func defaultTarget(cfg *config.Config) (domain.Instance, error) {
	if cfg.MainWorld != "" {
		return cfg.Main()
	}

	instances, err := cfg.Instances()
	if err != nil {
		return domain.Instance{}, err
	}
	switch len(instances) {
	case 0:
		return domain.Instance{}, fmt.Errorf("no worlds configured: %w", domain.ErrConfig)
	case 1:
		return instances[0], nil
	}

	name, err := pickWorld(instances)
	if err != nil {
		return domain.Instance{}, err
	}
	return cfg.Instance(name)
}

// pickWorld shows an interactive select form over the configured
// worlds.
func pickWorld(instances []domain.Instance) (string, error) {
	options := make([]huh.Option[string], 0, len(instances))
	for _, inst := range instances {
		label := inst.Name
		if inst.Enabled {
			label += " (enabled)"
		}
		options = append(options, huh.NewOption(label, inst.Name))
	}

	var name string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Select a world").
			Options(options...).
			Value(&name),
	)).WithAccessible(os.Getenv("ACCESSIBLE") != "")

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", fmt.Errorf("no world selected: %w", domain.ErrConfig)
		}
		return "", err
	}
	return name, nil
}

// fillPassword falls back to the OS keyring when the config entry has
// no RCON password. The config value wins when present.
func fillPassword(inst *domain.Instance) {
	if inst.RCON.Password != "" {
		return
	}
	if password, err := secretStore.GetPassword(inst.Name); err == nil {
		inst.RCON.Password = password
	}
}

// forEach runs fn for every instance, distinct worlds concurrently.
// One world's failure does not cancel the others; the first error is
// returned after all worlds finish. The controller serializes
// same-world operations internally, so this is safe even when a name
// appears twice.
func forEach(ctx context.Context, instances []domain.Instance, fn func(context.Context, domain.Instance) error) error {
	var g errgroup.Group
	for _, inst := range instances {
		g.Go(func() error { return fn(ctx, inst) })
	}
	return g.Wait()
}
