package cli

import (
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/roach88/posterior/internal/cache"
	"github.com/roach88/posterior/internal/diagnostics"
	"github.com/roach88/posterior/internal/store"
)

// SummaryOptions holds flags for the summary command.
type SummaryOptions struct {
	*RootOptions
	HDIProb float64
	Vars    []string
	RoundTo int
	Chain   int
	MaxRHat float64
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SummaryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "summary <run>",
		Short: "Report convergence diagnostics",
		Long: `Report mean, sd, HDI, MCSE, bulk/tail ESS and rank-normalized split R-hat
for every scalar element of the selected variables.

Summaries of full runs are cached; the cache is keyed by run, interval
mass and variable selection. With --max-rhat the command exits 1 when any
R-hat exceeds the threshold (or is undefined).

Examples:
  posterior summary 01929b6e-...
  posterior summary 01929b6e-... --var reproduction_rate --hdi-prob 0.89
  posterior summary 01929b6e-... --max-rhat 1.01 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(opts, args[0], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.HDIProb, "hdi-prob", 0, "HDI probability mass (default from config)")
	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "variable to summarize (repeatable, default all)")
	cmd.Flags().IntVar(&opts.RoundTo, "round-to", -1, "decimals in text output (default from config)")
	cmd.Flags().Float64Var(&opts.MaxRHat, "max-rhat", 0, "fail when any R-hat exceeds this value")
	addChainFlag(cmd, &opts.Chain)

	return cmd
}

func runSummary(opts *SummaryOptions, runID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	sumOpts := diagnostics.Options{HDIProb: opts.HDIProb}
	if sumOpts.HDIProb == 0 {
		sumOpts.HDIProb = opts.Config.Summary.HDIProb
	}
	if sumOpts.HDIProb <= 0 || sumOpts.HDIProb >= 1 {
		return formatter.FailCode(ErrCodeInvalidInput, "invalid --hdi-prob",
			fmt.Errorf("must be in (0, 1), got %v", sumOpts.HDIProb))
	}
	refs, err := parseVariables(opts.Vars)
	if err != nil {
		return formatter.FailCode(ErrCodeInvalidInput, "invalid --var", err)
	}
	sumOpts.VarNames = refs

	// Chain views are not cached: the cache key covers whole runs only.
	useCache := opts.Chain == noChain
	sess, err := openSession(opts.RootOptions, useCache)
	if err != nil {
		return formatter.FailCode(ErrCodeDatabase, "failed to open database", err)
	}
	defer sess.Close()

	if _, err := sess.runs.GetRun(cmd.Context(), runID); err != nil {
		if errors.Is(err, store.ErrRunNotFound) && sess.cache != nil {
			if err := sess.cache.Invalidate(runID); err != nil {
				opts.Logger.Warn("summary cache invalidate failed", "run", runID, "error", err)
			}
		}
		return formatter.Fail("failed to load run", err)
	}

	var summary *diagnostics.Summary
	if sess.cache != nil {
		summary, err = sess.cache.GetSummary(runID, sumOpts)
		switch {
		case err == nil:
			formatter.VerboseLog("Summary served from cache")
		case !errors.Is(err, cache.ErrMiss):
			opts.Logger.Warn("summary cache read failed", "run", runID, "error", err)
		}
	}

	if summary == nil {
		st, err := sess.loadStore(cmd.Context(), runID, opts.Chain)
		if err != nil {
			return formatter.Fail("failed to load run", err)
		}
		summary, err = diagnostics.Summarize(cmd.Context(), st, sumOpts)
		if err != nil {
			return formatter.Fail("failed to summarize run", err)
		}
		if sess.cache != nil {
			if err := sess.cache.PutSummary(runID, sumOpts, summary); err != nil {
				opts.Logger.Warn("summary cache write failed", "run", runID, "error", err)
			}
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(summary); err != nil {
			return err
		}
	} else {
		roundTo := opts.RoundTo
		if roundTo < 0 {
			roundTo = opts.Config.Summary.RoundTo
		}
		if err := summary.WriteText(formatter.Writer, roundTo); err != nil {
			return WrapExitError(ExitCommandError, "failed to write summary", err)
		}
	}

	if opts.MaxRHat > 0 {
		if bad := unconverged(summary, opts.MaxRHat); len(bad) > 0 {
			fmt.Fprintf(formatter.GetErrWriter(), "✗ %d element(s) with R-hat above %v: %v\n", len(bad), opts.MaxRHat, bad)
			return NewExitError(ExitFailure, fmt.Sprintf("%s: %d element(s) not converged", ErrCodeNotConverged, len(bad)))
		}
	}
	return nil
}

// unconverged returns the labels of rows whose R-hat is above limit or NaN.
func unconverged(summary *diagnostics.Summary, limit float64) []string {
	var labels []string
	for _, r := range summary.Rows {
		rhat := float64(r.RHat)
		if math.IsNaN(rhat) || rhat > limit {
			labels = append(labels, r.Label)
		}
	}
	return labels
}
