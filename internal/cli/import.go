package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/posterior/internal/ingest"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Name string
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Archive draws from a CUE or JSON file",
		Long: `Validate a draw file against the draw schema and archive it as a new run.

Two layouts are accepted: "chains", a list of chains mapping display-form
variable names to per-draw values, and "variables", a list of variables
with explicit arguments and per-chain draws.

Examples:
  posterior import draws.json
  posterior import --name measles-v2 draws.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "run name (defaults to the name in the file)")

	return cmd
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result, err := ingest.Load(path)
	if err != nil {
		var ingestErr *ingest.Error
		if errors.As(err, &ingestErr) {
			return formatter.FailCode(ErrCodeIngestFailed, "invalid draw file", err)
		}
		return formatter.FailCode(ErrCodeIngestFailed, "failed to read draw file", err)
	}
	formatter.VerboseLog("Decoded %d variable(s), %d chain(s) x %d draw(s)",
		result.Store.Len(), result.Store.NumChains(), result.Store.NumDraws(false))

	name := opts.Name
	if name == "" {
		name = result.Name
	}

	sess, err := openSession(opts.RootOptions, false)
	if err != nil {
		return formatter.FailCode(ErrCodeDatabase, "failed to open database", err)
	}
	defer sess.Close()

	info, err := sess.runs.SaveRun(cmd.Context(), name, result.Store)
	if err != nil {
		return formatter.FailCode(ErrCodeDatabase, "failed to save run", err)
	}
	opts.Logger.Debug("run archived", "run", info.ID, "source", path)

	if formatter.Format == "json" {
		return formatter.Success(info)
	}
	fmt.Fprintf(formatter.Writer, "✓ Imported %s as run %s (%d variable(s), %d chain(s) x %d draw(s))\n",
		info.Name, info.ID, info.Variables, info.Chains, info.Draws)
	return nil
}
