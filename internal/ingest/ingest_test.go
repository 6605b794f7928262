package ingest

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/samples"
)

func TestLoad_CompactJSON(t *testing.T) {
	res, err := Load(filepath.Join("testdata", "measles.json"))
	require.NoError(t, err)

	assert.Equal(t, "measles", res.Name)
	st := res.Store
	assert.Equal(t, 2, st.NumChains())
	assert.Equal(t, 2, st.NumDraws(false))
	assert.Equal(t, 1, st.NumAdaptive())
	assert.Equal(t, []ir.VariableRef{ir.Var("reproduction_rate"), ir.Var("theta", ir.Int(3))}, st.Keys())

	rate, err := st.Get(ir.Var("reproduction_rate"))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, rate.Shape())
	assert.Equal(t, []float64{1.1, 1.2, 0.9, 1.0}, rate.Values())

	withAdapt, err := st.GetVariable(ir.Var("reproduction_rate"), true)
	require.NoError(t, err)
	assert.Equal(t, 9.0, withAdapt.At(0, 0))

	theta, err := st.Get(ir.Var("theta", ir.Int(3)))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, theta.Shape())
	assert.Equal(t, []float64{2, 3, 4, 5, 8, 9, 10, 11}, theta.Values())
}

func TestLoad_ExplicitCUE(t *testing.T) {
	res, err := Load(filepath.Join("testdata", "explicit.cue"))
	require.NoError(t, err)

	assert.Equal(t, "hierarchical", res.Name)
	st := res.Store
	assert.Equal(t, 3, st.NumChains())
	assert.Equal(t, 2, st.NumDraws(false))
	assert.Equal(t, 0, st.NumAdaptive())

	sigma := ir.Var("sigma", ir.String("group"), ir.Int(2), ir.Bool(true))
	shape, err := st.EventShape(sigma)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, shape)

	tensor, err := st.Get(sigma)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 2, 2}, tensor.Shape())
	assert.Equal(t, 12.0, tensor.At(1, 0, 1, 1))
	assert.Equal(t, 21.0, tensor.At(2, 1, 0, 0))

	mu, err := st.Get(ir.Var("mu"))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, mu.Shape())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "absent.json"))
	assert.Error(t, err)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing name", `{"chains": [{"x": [1, 2]}]}`},
		{"empty name", `{"name": "", "chains": [{"x": [1, 2]}]}`},
		{"unknown field", `{"name": "r", "sampler": "nuts", "chains": [{"x": [1]}]}`},
		{"negative adaptation", `{"name": "r", "num_adaptive": -1, "chains": [{"x": [1]}]}`},
		{"string draw", `{"name": "r", "chains": [{"x": ["a"]}]}`},
		{"float argument", `{"name": "r", "variables": [{"name": "x", "args": [1.5], "chains": [[1]]}]}`},
		{"rank three draw", `{"name": "r", "chains": [{"x": [[[1]]]}]}`},
		{"syntax error", `{"name": "r", "chains": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("run.json", []byte(tt.doc))
			require.Error(t, err)
			var ingestErr *Error
			assert.True(t, errors.As(err, &ingestErr), "want *Error, got %T: %v", err, err)
		})
	}
}

func TestParse_StructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no draws", `{"name": "r"}`},
		{"both layouts", `{"name": "r", "chains": [{"x": [1]}], "variables": [{"name": "x", "chains": [[1]]}]}`},
		{"no chains", `{"name": "r", "chains": []}`},
		{"no variables", `{"name": "r", "variables": []}`},
		{"variable without chains", `{"name": "r", "variables": [{"name": "x", "chains": []}]}`},
		{"ragged chains", `{"name": "r", "chains": [{"x": [1, 2]}, {"x": [1]}]}`},
		{"variable missing from later chain", `{"name": "r", "chains": [{"x": [1], "y": [2]}, {"x": [1]}]}`},
		{"variable only in later chain", `{"name": "r", "chains": [{"x": [1]}, {"x": [1], "y": [2]}]}`},
		{"ragged draw", `{"name": "r", "chains": [{"x": [[1, 2], [3]]}]}`},
		{"changing event shape", `{"name": "r", "chains": [{"x": [[1, 2], [3, 4, 5]]}]}`},
		{"declared shape mismatch", `{"name": "r", "variables": [{"name": "x", "event_shape": [3], "chains": [[[1, 2]]]}]}`},
		{"bad variable label", `{"name": "r", "chains": [{"x(1.5)": [1]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("run.json", []byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_MismatchedVariablesAcrossLayout(t *testing.T) {
	doc := `{"name": "r", "variables": [
		{"name": "a", "chains": [[1, 2], [3, 4]]},
		{"name": "b", "chains": [[1, 2]]}
	]}`
	_, err := Parse("run.json", []byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chains")

	doc = `{"name": "r", "variables": [
		{"name": "a", "chains": [[1, 2]]},
		{"name": "b", "chains": [[1, 2, 3]]}
	]}`
	_, err = Parse("run.json", []byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "draws per chain")
}

func TestParse_AdaptationExceedsDraws(t *testing.T) {
	_, err := Parse("run.json", []byte(`{"name": "r", "num_adaptive": 3, "chains": [{"x": [1, 2]}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "num_adaptive")
}

func TestParse_DuplicateVariable(t *testing.T) {
	doc := `{"name": "r", "variables": [
		{"name": "x", "chains": [[1]]},
		{"name": "x", "chains": [[2]]}
	]}`
	_, err := Parse("run.json", []byte(doc))
	require.Error(t, err)
	assert.ErrorIs(t, err, samples.ErrShapeMismatch)
}

func TestParse_IntegerDraws(t *testing.T) {
	res, err := Parse("run.cue", []byte(`name: "ints", chains: [{n: [1, 2, 3]}]`))
	require.NoError(t, err)
	series, err := res.Store.Series(ir.Var("n"), 0, 0, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, series)
}

func TestError_Format(t *testing.T) {
	err := &Error{Path: "chains.0", Message: "bad"}
	assert.Equal(t, "chains.0: bad", err.Error())

	err = &Error{Message: "bad"}
	assert.Equal(t, "document: bad", err.Error())
}
