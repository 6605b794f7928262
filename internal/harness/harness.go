package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/posterior/internal/diagnostics"
	"github.com/roach88/posterior/internal/ingest"
	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/samples"
	"github.com/roach88/posterior/internal/store"
	"github.com/roach88/posterior/internal/synth"
	"github.com/roach88/posterior/internal/testutil"
)

// Harness executes scenarios against a private in-memory archive.
type Harness struct {
	runs   *store.Store
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with
// sequential run ids and a deterministic clock.
//
// Execution flow:
// 1. Build the store from the scenario source
// 2. Archive it and load it back
// 3. Compute the summary if any assertion needs it
// 4. Evaluate assertions against the loaded store
func Run(scenario *Scenario) (*Result, error) {
	runs, err := store.Open(":memory:",
		store.WithClock(testutil.NewDeterministicClock()),
		store.WithIDGenerator(testutil.NewSequentialIDs("scenario")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer runs.Close()

	h := &Harness{
		runs:   runs,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	built, err := buildSource(scenario.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to build source: %w", err)
	}

	info, err := h.runs.SaveRun(ctx, scenario.Name, built)
	if err != nil {
		return nil, fmt.Errorf("failed to archive run: %w", err)
	}
	loaded, _, err := h.runs.LoadRun(ctx, info.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	h.logger.Info("scenario run archived", "scenario", scenario.Name, "run", info.ID, "variables", info.Variables)

	result := NewResult()
	result.Run = info
	result.Store = loaded

	if needsSummary(scenario.Assertions) {
		result.Summary, err = diagnostics.Summarize(ctx, loaded, diagnostics.Options{})
		if err != nil {
			return nil, fmt.Errorf("failed to summarize run: %w", err)
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// buildSource builds the store described by src.
func buildSource(src Source) (*samples.Store, error) {
	switch {
	case src.Synthetic != nil:
		return synth.Generate(*src.Synthetic)
	case src.File != "":
		res, err := ingest.Load(src.File)
		if err != nil {
			return nil, err
		}
		return res.Store, nil
	case src.Literal != nil:
		series := make([]samples.ScalarSeries, 0, len(src.Literal.Variables))
		for _, v := range src.Literal.Variables {
			args, err := ir.ToArgs(v.Args)
			if err != nil {
				return nil, fmt.Errorf("variable %s: %w", v.Name, err)
			}
			series = append(series, samples.ScalarSeries{Ref: ir.Var(v.Name, args...), Chains: v.Chains})
		}
		return samples.FromScalars(src.Literal.Adapt, series...)
	default:
		return nil, fmt.Errorf("scenario has no source")
	}
}

func needsSummary(assertions []Assertion) bool {
	for _, a := range assertions {
		switch a.Type {
		case AssertRHatBelow, AssertRHatAbove, AssertESSAbove:
			return true
		}
	}
	return false
}
