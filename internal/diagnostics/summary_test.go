package diagnostics

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/samples"
)

func testStore(t *testing.T) *samples.Store {
	t.Helper()
	b := samples.NewBuilder(4, 500, 0)
	require.NoError(t, b.AddChains(ir.Var("mu"), iidChains(4, 500, 1)))
	require.NoError(t, b.AddChains(ir.Var("tau"), shift(iidChains(4, 500, 2), 0, 4)))

	w := iidChains(4, 500*2, 3)
	data := make([]float64, 0, 4*500*2)
	for c := 0; c < 4; c++ {
		for d := 0; d < 500; d++ {
			data = append(data, w[c][2*d], w[c][2*d+1]+10)
		}
	}
	require.NoError(t, b.Add(ir.Var("w", ir.Int(1)), []int{2}, data))

	s, err := b.Build()
	require.NoError(t, err)
	return s
}

func TestSummarizeAllVariables(t *testing.T) {
	s := testStore(t)

	sum, err := Summarize(context.Background(), s, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultHDIProb, sum.HDIProb)
	assert.Equal(t, 4, sum.Chains)
	assert.Equal(t, 500, sum.Draws)

	require.Len(t, sum.Rows, 4)
	assert.Equal(t, "mu()", sum.Rows[0].Label)
	assert.Equal(t, "tau()", sum.Rows[1].Label)
	assert.Equal(t, "w(1)[0]", sum.Rows[2].Label)
	assert.Equal(t, "w(1)[1]", sum.Rows[3].Label)
	assert.Equal(t, 1, sum.Rows[3].Element)

	assert.InDelta(t, 0, float64(sum.Rows[0].Mean), 0.15)
	assert.InDelta(t, 10, float64(sum.Rows[3].Mean), 0.15)
	assert.Less(t, float64(sum.Rows[0].RHat), 1.02)
	assert.Greater(t, float64(sum.Rows[1].RHat), 1.1, "tau has one offset chain")
	assert.Less(t, float64(sum.Rows[0].HDILower), float64(sum.Rows[0].HDIUpper))
}

func TestSummarizeSelectedVariables(t *testing.T) {
	s := testStore(t)

	sum, err := Summarize(context.Background(), s, Options{
		HDIProb:  0.5,
		VarNames: []ir.VariableRef{ir.Var("tau"), ir.Var("mu")},
	})
	require.NoError(t, err)
	require.Len(t, sum.Rows, 2)
	assert.Equal(t, "mu()", sum.Rows[0].Label)
	assert.Equal(t, 0.5, sum.HDIProb)
}

func TestSummarizeUnknownVariable(t *testing.T) {
	s := testStore(t)

	_, err := Summarize(context.Background(), s, Options{VarNames: []ir.VariableRef{ir.Var("nope")}})
	require.Error(t, err)
	assert.True(t, samples.IsKeyNotFound(err))
}

func TestSummarizeInvalidProb(t *testing.T) {
	_, err := Summarize(context.Background(), testStore(t), Options{HDIProb: 1.2})
	assert.Error(t, err)
}

func TestSummarizeChainView(t *testing.T) {
	view, err := testStore(t).GetChain(2)
	require.NoError(t, err)

	sum, err := Summarize(context.Background(), view, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Chains)
	for _, r := range sum.Rows {
		assert.True(t, math.IsNaN(float64(r.RHat)), "R-hat needs two chains: %s", r.Label)
		assert.False(t, math.IsNaN(float64(r.ESSBulk)), r.Label)
	}
}

func TestSummarizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Summarize(ctx, testStore(t), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatJSON(t *testing.T) {
	data, err := json.Marshal([]Stat{1.5, Stat(math.NaN()), Stat(math.Inf(1))})
	require.NoError(t, err)
	assert.Equal(t, `[1.5,null,null]`, string(data))

	var back []Stat
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Stat(1.5), back[0])
	assert.True(t, math.IsNaN(float64(back[1])))
}

func TestOptionsKey(t *testing.T) {
	a := Options{}.Key()
	assert.Equal(t, a, Options{HDIProb: DefaultHDIProb}.Key())
	assert.NotEqual(t, a, Options{HDIProb: 0.5}.Key())
	assert.NotEqual(t, a, Options{VarNames: []ir.VariableRef{ir.Var("mu")}}.Key())

	ab := Options{VarNames: []ir.VariableRef{ir.Var("mu"), ir.Var("tau")}}.Key()
	assert.Equal(t, ab, Options{VarNames: []ir.VariableRef{ir.Var("tau"), ir.Var("mu")}}.Key())
	assert.Equal(t, ab, Options{VarNames: []ir.VariableRef{ir.Var("tau"), ir.Var("mu"), ir.Var("tau")}}.Key())
}

func TestSummarizeRepeatedVariable(t *testing.T) {
	sum, err := Summarize(context.Background(), testStore(t), Options{
		VarNames: []ir.VariableRef{ir.Var("tau"), ir.Var("mu"), ir.Var("tau")},
	})
	require.NoError(t, err)
	require.Len(t, sum.Rows, 2)
	assert.Equal(t, "mu()", sum.Rows[0].Label)
	assert.Equal(t, "tau()", sum.Rows[1].Label)
}

func TestHDIColumns(t *testing.T) {
	lo, hi := HDIColumns(0.94)
	assert.Equal(t, "hdi_3%", lo)
	assert.Equal(t, "hdi_97%", hi)

	lo, hi = HDIColumns(0.5)
	assert.Equal(t, "hdi_25%", lo)
	assert.Equal(t, "hdi_75%", hi)
}

func TestWriteText(t *testing.T) {
	sum := &Summary{
		HDIProb: 0.94,
		Rows: []Row{{
			Label: "mu()", Mean: 0.123, SD: 1, HDILower: -1.9, HDIUpper: 1.9,
			MCSEMean: 0.01, MCSESD: 0.02, ESSBulk: 3999.6, ESSTail: 2000, RHat: Stat(math.NaN()),
		}},
	}
	var buf bytes.Buffer
	require.NoError(t, sum.WriteText(&buf, 2))

	out := buf.String()
	assert.Contains(t, out, "hdi_3%")
	assert.Contains(t, out, "mu()")
	assert.Contains(t, out, "0.12")
	assert.Contains(t, out, "4000")
	assert.Contains(t, out, "nan")
}
