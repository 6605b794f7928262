package plotdata

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/posterior/internal/diagnostics"
	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/samples"
)

var mu = ir.Var("mu")

func testStore(t *testing.T) *samples.Store {
	t.Helper()
	s, err := samples.FromScalars(1, samples.ScalarSeries{
		Ref:    mu,
		Chains: [][]float64{{9, 1, 2, 3, 4}, {9, 4, 3, 2, 1}},
	})
	require.NoError(t, err)
	return s
}

func TestTrace(t *testing.T) {
	p, err := Trace(testStore(t), mu, 0, false)
	require.NoError(t, err)
	assert.Equal(t, "trace", p.Kind)
	require.Len(t, p.Series, 2)
	assert.Equal(t, []diagnostics.Stat{1, 2, 3, 4}, p.Series[0].Values)
	assert.Equal(t, 1, p.Series[1].Chain)

	p, err = Trace(testStore(t), mu, 0, true)
	require.NoError(t, err)
	assert.Equal(t, []diagnostics.Stat{9, 1, 2, 3, 4}, p.Series[0].Values)
}

func TestTraceChainView(t *testing.T) {
	view, err := testStore(t).GetChain(1)
	require.NoError(t, err)

	p, err := Trace(view, mu, 0, false)
	require.NoError(t, err)
	require.Len(t, p.Series, 1)
	assert.Equal(t, 1, p.Series[0].Chain)
	assert.Equal(t, []diagnostics.Stat{4, 3, 2, 1}, p.Series[0].Values)
}

func TestAutocorrelation(t *testing.T) {
	p, err := Autocorrelation(testStore(t), mu, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "autocorr", p.Kind)
	require.Len(t, p.Series, 2)
	// 4 retained draws -> lags 0..3 after clamping.
	require.Len(t, p.Series[0].Values, 4)
	assert.InDelta(t, 1.0, float64(p.Series[0].Values[0]), 1e-12)
	assert.InDelta(t, 0.25, float64(p.Series[0].Values[1]), 1e-12)
}

func TestTraceNaNEncodesAsNull(t *testing.T) {
	s, err := samples.FromScalars(0, samples.ScalarSeries{
		Ref:    mu,
		Chains: [][]float64{{1, math.NaN(), 3, 4}},
	})
	require.NoError(t, err)

	p, err := Trace(s, mu, 0, false)
	require.NoError(t, err)
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"values":[1,null,3,4]`)
}

func TestUnknownVariable(t *testing.T) {
	_, err := Trace(testStore(t), ir.Var("nope"), 0, false)
	assert.True(t, samples.IsKeyNotFound(err))

	_, err = Autocorrelation(testStore(t), mu, 3, 10)
	assert.True(t, samples.IsIndexOutOfRange(err))
}
