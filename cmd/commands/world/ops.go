package world

import (
	"fmt"
	"text/tabwriter"
	"time"

	"wurstmineberg/worldctl/internal/opstore"

	"github.com/spf13/cobra"
)

// openOps opens the operation repository; replaced in tests.
var openOps = func() (opstore.Repository, error) { return opstore.Open() }

// OpsCommand returns a cobra.Command that lists operation history.
func OpsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ops",
		Short: "List recorded lifecycle operations",
		Long: `List the locally recorded lifecycle operations, most recent first.
Operations still marked running were interrupted mid-transition (the
CLI was killed or the machine went down); the affected world may have
been left between states and is worth a status check.

Examples:
  worldctl world ops
  worldctl world ops --limit 50
  worldctl world ops --prune 168h`,
		RunE:         runOps,
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", 25, "Number of operations to display")
	cmd.Flags().Duration("prune", 0, "Also delete finished records older than this duration")

	return cmd
}

func runOps(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}
	prune, _ := cmd.Flags().GetDuration("prune")

	repo, err := openOps()
	if err != nil {
		return err
	}
	defer repo.Close()

	if prune > 0 {
		n, err := repo.DeleteOlderThan(prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Pruned %d finished records.\n", n)
	}

	interrupted, err := repo.ListRunning()
	if err != nil {
		return err
	}
	if len(interrupted) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %d operation(s) were interrupted; check the affected worlds.\n", len(interrupted))
	}

	records, err := repo.ListRecent(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No operations recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tWORLD\tOPERATION\tSTATUS\tDETAIL")
	for _, record := range records {
		detail := record.Detail
		if record.Status == opstore.StatusError && record.ErrorMessage != "" {
			detail = record.ErrorMessage
		}
		status := record.Status
		if status == opstore.StatusRunning {
			status = "interrupted"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			record.CreatedAt.Local().Format(time.DateTime),
			record.World, record.Operation, status, detail)
	}
	return w.Flush()
}
