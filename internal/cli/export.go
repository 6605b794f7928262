package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output       string
	Chain        int
	IncludeAdapt bool
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <run>",
		Short: "Write a run as long-form CSV",
		Long: `Write every draw of a run as CSV with columns
variable,chain,draw,element,value, ordered by variable, chain, draw and
element. The CSV is written to stdout unless --output is given.

Examples:
  posterior export 01929b6e-... > draws.csv
  posterior export 01929b6e-... --chain 2 --include-adapt -o chain2.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	addChainFlag(cmd, &opts.Chain)
	cmd.Flags().BoolVar(&opts.IncludeAdapt, "include-adapt", false, "include adaptation draws")

	return cmd
}

func runExport(opts *ExportOptions, runID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	sess, err := openSession(opts.RootOptions, false)
	if err != nil {
		return formatter.FailCode(ErrCodeDatabase, "failed to open database", err)
	}
	defer sess.Close()

	st, err := sess.loadStore(cmd.Context(), runID, opts.Chain)
	if err != nil {
		return formatter.Fail("failed to load run", err)
	}

	var w io.Writer = formatter.Writer
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return formatter.FailCode(ErrCodeWriteFailed, "failed to create output file", err)
		}
		defer f.Close()
		w = f
	}

	if err := st.WriteCSV(w, opts.IncludeAdapt); err != nil {
		return formatter.FailCode(ErrCodeWriteFailed, "failed to write csv", err)
	}

	if opts.Output != "" {
		if formatter.Format == "json" {
			return formatter.Success(map[string]string{"run": runID, "output": opts.Output})
		}
		fmt.Fprintf(formatter.Writer, "✓ Wrote %s\n", opts.Output)
	}
	return nil
}
