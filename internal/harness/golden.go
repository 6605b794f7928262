package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and, if the scenario sets golden,
// compares the long-form CSV export of the loaded store (adaptation draws
// included) against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the export doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if scenario.Golden {
		if err := AssertGolden(t, scenario.Name, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// AssertGolden compares the result's CSV export against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	var buf bytes.Buffer
	if err := result.Store.WriteCSV(&buf, true); err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())
	return nil
}
