package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/plotdata"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Elem         int
	Chain        int
	IncludeAdapt bool
	Autocorr     bool
	MaxLag       int
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <run> <variable>",
		Short: "Print plot series for one variable element",
		Long: `Print the per-chain series a trace plot or an autocorrelation plot
needs, for one scalar element of a variable.

Text output is a table with one column per chain, indexed by draw (or by
lag with --autocorr). JSON output is the plot payload served by the API.

Examples:
  posterior trace 01929b6e-... reproduction_rate
  posterior trace 01929b6e-... 'theta(3)' --elem 1 --autocorr --max-lag 20`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Elem, "elem", 0, "flat index into the variable's event shape")
	addChainFlag(cmd, &opts.Chain)
	cmd.Flags().BoolVar(&opts.IncludeAdapt, "include-adapt", false, "include adaptation draws (trace only)")
	cmd.Flags().BoolVar(&opts.Autocorr, "autocorr", false, "print autocorrelation over lag instead of draws")
	cmd.Flags().IntVar(&opts.MaxLag, "max-lag", plotdata.DefaultMaxLag, "largest lag for --autocorr")

	return cmd
}

func runTrace(opts *TraceOptions, runID, name string, cmd *cobra.Command) error {
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

	var plot *plotdata.Plot
	if opts.Autocorr {
		plot, err = plotdata.Autocorrelation(st, ref, opts.Elem, opts.MaxLag)
	} else {
		plot, err = plotdata.Trace(st, ref, opts.Elem, opts.IncludeAdapt)
	}
	if err != nil {
		return formatter.Fail("failed to build plot series", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(plot)
	}
	return writePlotText(formatter, plot)
}

func writePlotText(formatter *OutputFormatter, plot *plotdata.Plot) error {
	index := "draw"
	if plot.Kind == "autocorr" {
		index = "lag"
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{index}
	rows := 0
	for _, s := range plot.Series {
		header = append(header, "chain_"+strconv.Itoa(s.Chain))
		rows = max(rows, len(s.Values))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	cells := make([]string, len(header))
	for i := range rows {
		cells[0] = strconv.Itoa(i)
		for j, s := range plot.Series {
			cells[j+1] = ""
			if i < len(s.Values) {
				cells[j+1] = strconv.FormatFloat(float64(s.Values[i]), 'f', 4, 64)
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}
