package world

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"text/tabwriter"

	"wurstmineberg/worldctl/internal/domain"
	"wurstmineberg/worldctl/internal/lifecycle"

	"github.com/spf13/cobra"
)

// StatusCommand returns a cobra.Command that reports world states.
func StatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [world...]",
		Short: "Show world states",
		Long: `Probe each world's systemd unit, its RCON endpoint, and (for
running worlds) the public server list ping. Status never mutates
anything.

Examples:
  worldctl world status --all
  worldctl world status creative`,
		RunE:         runStatus,
		SilenceUsage: true,
	}
}

type statusRow struct {
	name   string
	report lifecycle.Report
	err    error
}

func runStatus(cmd *cobra.Command, args []string) error {
	_, instances, err := selectTargets(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	controller, cleanup := newController(cmd)
	defer cleanup()

	// Probe concurrently but print in catalog order.
	rows := make([]statusRow, len(instances))
	var wg sync.WaitGroup
	for i, inst := range instances {
		wg.Add(1)
		go func(i int, inst domain.Instance) {
			defer wg.Done()
			report, err := controller.Status(ctx, inst)
			rows[i] = statusRow{name: inst.Name, report: report, err: err}
		}(i, inst)
	}
	wg.Wait()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORLD\tSTATE\tUNIT\tPLAYERS\tVERSION")
	var firstErr error
	notRunning := 0
	for _, row := range rows {
		if row.err != nil {
			fmt.Fprintf(w, "%s\t%s\t%s\t\t\n", row.name, domain.StateUnknown, row.report.Unit)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", row.name, row.err)
			}
			continue
		}
		if row.report.State != domain.StateRunning {
			notRunning++
		}

		players, version := "", ""
		if row.report.Pinged {
			players = fmt.Sprintf("%d/%d", row.report.Ping.PlayersOnline, row.report.Ping.PlayersMax)
			version = row.report.Ping.Version
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", row.name, row.report.State, row.report.Unit, players, version)
	}
	w.Flush()

	if firstErr != nil {
		return firstErr
	}
	// Init-script convention: status exits non-zero when something is
	// down, so cron wrappers can alert on it.
	if notRunning > 0 {
		return fmt.Errorf("%d of %d selected worlds not running", notRunning, len(rows))
	}
	return nil
}
