package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/posterior/internal/ir"
)

// KeyInfo describes one variable of a run.
type KeyInfo struct {
	Variable   ir.VariableRef `json:"variable"`
	Display    string         `json:"display"`
	ID         string         `json:"id"`
	EventShape []int          `json:"event_shape"`
}

// KeysOptions holds flags for the keys command.
type KeysOptions struct {
	*RootOptions
	Chain int
}

// NewKeysCommand creates the keys command.
func NewKeysCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KeysOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "keys <run>",
		Short: "List the variables of a run",
		Long: `List the variables recorded in a run, sorted by display form,
with their event shapes.

Examples:
  posterior keys 01929b6e-...
  posterior keys 01929b6e-... --chain 0
  posterior keys 01929b6e-... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeys(opts, args[0], cmd)
		},
	}

	addChainFlag(cmd, &opts.Chain)
	return cmd
}

func runKeys(opts *KeysOptions, runID string, cmd *cobra.Command) error {
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

	keys := st.Keys()
	infos := make([]KeyInfo, 0, len(keys))
	for _, ref := range keys {
		shape, err := st.EventShape(ref)
		if err != nil {
			return formatter.Fail("failed to read event shape", err)
		}
		if shape == nil {
			shape = []int{}
		}
		infos = append(infos, KeyInfo{Variable: ref, Display: ref.String(), ID: ref.ID(), EventShape: shape})
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"keys": infos})
	}
	for _, k := range infos {
		if len(k.EventShape) == 0 {
			fmt.Fprintln(formatter.Writer, k.Display)
			continue
		}
		fmt.Fprintf(formatter.Writer, "%s %v\n", k.Display, k.EventShape)
	}
	return nil
}
