package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/posterior/internal/diagnostics"
	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/samples"
)

// GetOptions holds flags for the get command.
type GetOptions struct {
	*RootOptions
	Chain        int
	IncludeAdapt bool
}

// VariableResult is the JSON payload of the get command.
type VariableResult struct {
	Variable ir.VariableRef     `json:"variable"`
	Chain    *int               `json:"chain,omitempty"`
	Shape    []int              `json:"shape"`
	Values   []diagnostics.Stat `json:"values"`
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "get <run> <variable>",
		Short: "Print the draws of one variable",
		Long: `Print the draws of one variable.

The variable is given in display form, e.g. reproduction_rate, theta(3) or
beta("age"). The result has shape [chain, draw, event...], or
[draw, event...] with --chain. Text output has one line per draw.

Examples:
  posterior get 01929b6e-... reproduction_rate
  posterior get 01929b6e-... 'theta(3)' --chain 0 --include-adapt`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(opts, args[0], args[1], cmd)
		},
	}

	addChainFlag(cmd, &opts.Chain)
	cmd.Flags().BoolVar(&opts.IncludeAdapt, "include-adapt", false, "include adaptation draws")

	return cmd
}

func runGet(opts *GetOptions, runID, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	ref, err := ir.ParseRef(name)
	if err != nil {
		return formatter.FailCode(ErrCodeInvalidInput, "invalid variable", err)
	}

	sess, err := openSession(opts.RootOptions, false)
	if err != nil {
		return formatter.FailCode(ErrCodeDatabase, "failed to open database", err)
	}
	defer sess.Close()

	st, err := sess.loadStore(cmd.Context(), runID, opts.Chain)
	if err != nil {
		return formatter.Fail("failed to load run", err)
	}
	tensor, err := st.GetVariable(ref, opts.IncludeAdapt)
	if err != nil {
		return formatter.Fail("failed to get variable", err)
	}

	if formatter.Format == "json" {
		result := VariableResult{Variable: ref, Shape: tensor.Shape()}
		if st.IsChainView() {
			chain := st.ChainIndex()
			result.Chain = &chain
		}
		values := tensor.Values()
		result.Values = make([]diagnostics.Stat, len(values))
		for i, v := range values {
			result.Values[i] = diagnostics.Stat(v)
		}
		return formatter.Success(result)
	}

	writeTensorText(formatter, st, ref, tensor)
	return nil
}

// writeTensorText writes a header line, then "chain draw values..." per draw.
func writeTensorText(formatter *OutputFormatter, st *samples.Store, ref ir.VariableRef, tensor *samples.Tensor) {
	shape := tensor.Shape()
	fmt.Fprintf(formatter.Writer, "%s shape=%v\n", ref, shape)

	chains := 1
	rest := shape
	if !st.IsChainView() {
		chains, rest = shape[0], shape[1:]
	}
	draws := rest[0]
	event := 1
	for _, d := range rest[1:] {
		event *= d
	}

	values := tensor.Values()
	line := make([]string, event)
	for c := range chains {
		label := c
		if st.IsChainView() {
			label = st.ChainIndex()
		}
		for d := range draws {
			base := (c*draws + d) * event
			for k := range event {
				line[k] = strconv.FormatFloat(values[base+k], 'g', -1, 64)
			}
			fmt.Fprintf(formatter.Writer, "%d %d %s\n", label, d, strings.Join(line, " "))
		}
	}
}
