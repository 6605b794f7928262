package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: test_scenario
description: "Test scenario for validation"
source:
  literal:
    num_adaptive: 0
    variables:
      - name: mu
        chains: [[1, 2], [3, 4]]
assertions:
  - type: key_present
    variable: mu
  - type: chain_error
    chain: 2
    code: INDEX_OUT_OF_RANGE
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	require.NotNil(t, scenario.Source.Literal)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, scenario.Source.Literal.Variables[0].Chains)
	require.Len(t, scenario.Assertions, 2)
	require.NotNil(t, scenario.Assertions[1].Chain)
	assert.Equal(t, 2, *scenario.Assertions[1].Chain)
	assert.False(t, scenario.Golden)
}

func TestLoadScenario_ResolvesFileRelativeToScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "draws.json"), []byte("{}"), 0644))
	path := writeScenario(t, dir, `
name: from_file
description: "file source"
source:
  file: draws.json
assertions:
  - type: chain_slices
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "draws.json"), scenario.Source.File)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: typo
description: "misspelled key"
source:
  literal:
    variables:
      - name: mu
        chains: [[1]]
assertion:
  - type: chain_slices
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	literal := `
source:
  literal:
    variables:
      - name: mu
        chains: [[1, 2]]
`
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\n" + literal + "assertions:\n  - type: chain_slices\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\n" + literal + "assertions:\n  - type: chain_slices\n",
			wantErr: "description is required",
		},
		{
			name:    "no source",
			content: "name: n\ndescription: d\nassertions:\n  - type: chain_slices\n",
			wantErr: "exactly one of synthetic, literal, file",
		},
		{
			name: "two sources",
			content: "name: n\ndescription: d\n" + literal +
				"  synthetic:\n    chains: 1\n    draws: 1\n    variables: [{name: x, sigma: 1}]\n" +
				"assertions:\n  - type: chain_slices\n",
			wantErr: "exactly one of synthetic, literal, file",
		},
		{
			name:    "missing draw file",
			content: "name: n\ndescription: d\nsource:\n  file: absent.json\nassertions:\n  - type: chain_slices\n",
			wantErr: "draw file not found",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\n" + literal,
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\n" + literal + "assertions:\n  - type: trace_contains\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "shape without variable",
			content: "name: n\ndescription: d\n" + literal + "assertions:\n  - type: shape\n    shape: [1]\n",
			wantErr: "variable is required for shape",
		},
		{
			name:    "float argument",
			content: "name: n\ndescription: d\n" + literal + "assertions:\n  - type: key_present\n    variable: theta(1.5)\n",
			wantErr: "assertions[0]",
		},
		{
			name:    "chain_error without chain",
			content: "name: n\ndescription: d\n" + literal + "assertions:\n  - type: chain_error\n    code: INDEX_OUT_OF_RANGE\n",
			wantErr: "chain is required for chain_error",
		},
		{
			name:    "get_error without code",
			content: "name: n\ndescription: d\n" + literal + "assertions:\n  - type: get_error\n    variable: mu\n",
			wantErr: "code is required for get_error",
		},
		{
			name:    "value_at without index",
			content: "name: n\ndescription: d\n" + literal + "assertions:\n  - type: value_at\n    variable: mu\n    value: 1\n",
			wantErr: "index is required for value_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
