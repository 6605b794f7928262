package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/posterior/internal/store"
)

// NewRunsCommand creates the runs command and its delete subcommand.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived runs",
		Long: `List archived runs, oldest first.

Examples:
  posterior runs
  posterior runs --format json
  posterior runs delete 01929b6e-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListRuns(rootOpts, cmd)
		},
	}

	cmd.AddCommand(newRunsDeleteCommand(rootOpts))
	return cmd
}

func newRunsDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <run>",
		Short:         "Delete a run and its cached summaries",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeleteRun(rootOpts, args[0], cmd)
		},
	}
}

func runListRuns(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	sess, err := openSession(opts, false)
	if err != nil {
		return formatter.FailCode(ErrCodeDatabase, "failed to open database", err)
	}
	defer sess.Close()

	runs, err := sess.runs.ListRuns(cmd.Context())
	if err != nil {
		return formatter.FailCode(ErrCodeDatabase, "failed to list runs", err)
	}

	if formatter.Format == "json" {
		if runs == nil {
			runs = []store.RunInfo{}
		}
		return formatter.Success(map[string]any{"runs": runs})
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs archived")
		return nil
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED\tCHAINS\tDRAWS\tADAPT\tVARIABLES")
	for _, r := range runs {
		name := r.Name
		if r.SourceChain >= 0 {
			name = fmt.Sprintf("%s [chain %d]", name, r.SourceChain)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, name, r.CreatedAt.UTC().Format(time.RFC3339), r.Chains, r.Draws, r.Adapt, r.Variables)
	}
	return tw.Flush()
}

func runDeleteRun(opts *RootOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	sess, err := openSession(opts, true)
	if err != nil {
		return formatter.FailCode(ErrCodeDatabase, "failed to open database", err)
	}
	defer sess.Close()

	if err := sess.runs.DeleteRun(cmd.Context(), id); err != nil {
		return formatter.Fail("failed to delete run", err)
	}
	if sess.cache != nil {
		if err := sess.cache.Invalidate(id); err != nil {
			opts.Logger.Warn("failed to invalidate cached summaries", "run", id, "error", err)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"deleted": id})
	}
	fmt.Fprintf(formatter.Writer, "✓ Deleted run %s\n", id)
	return nil
}
