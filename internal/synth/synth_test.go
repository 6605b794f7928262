package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/roach88/posterior/internal/diagnostics"
	"github.com/roach88/posterior/internal/ir"
)

func TestGenerate_Shape(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Draws = 50
	cfg.Adapt = 10

	st, err := Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, 4, st.NumChains())
	assert.Equal(t, 50, st.NumDraws(false))
	assert.Equal(t, 60, st.NumDraws(true))
	assert.Equal(t, []ir.VariableRef{ir.Var("reproduction_rate"), ir.Var("theta")}, st.Keys())

	theta, err := st.Get(ir.Var("theta"))
	require.NoError(t, err)
	assert.Equal(t, []int{4, 50, 3}, theta.Shape())

	rate, err := st.Get(ir.Var("reproduction_rate"))
	require.NoError(t, err)
	assert.Equal(t, []int{4, 50}, rate.Shape())
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Draws = 100

	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)

	for _, ref := range a.Keys() {
		ta, err := a.Get(ref)
		require.NoError(t, err)
		tb, err := b.Get(ref)
		require.NoError(t, err)
		assert.True(t, ta.Equal(tb), "%s differs between identical configs", ref)
	}

	cfg.Seed = 2
	c, err := Generate(cfg)
	require.NoError(t, err)
	ta, _ := a.Get(ir.Var("reproduction_rate"))
	tc, _ := c.Get(ir.Var("reproduction_rate"))
	assert.False(t, ta.Equal(tc), "different seeds must give different draws")
}

func TestGenerate_ChainsAreIndependent(t *testing.T) {
	cfg := Config{
		Chains:    2,
		Draws:     20,
		Seed:      7,
		Variables: []Variable{{Name: "x", Phi: 0, Sigma: 1}},
	}
	st, err := Generate(cfg)
	require.NoError(t, err)

	c0, err := st.Series(ir.Var("x"), 0, 0, false)
	require.NoError(t, err)
	c1, err := st.Series(ir.Var("x"), 1, 0, false)
	require.NoError(t, err)
	assert.NotEqual(t, c0, c1)
}

func TestGenerate_StationaryMoments(t *testing.T) {
	cfg := Config{
		Chains:    1,
		Draws:     20000,
		Seed:      3,
		Variables: []Variable{{Name: "x", Mu: 5, Phi: 0.5, Sigma: 1}},
	}
	st, err := Generate(cfg)
	require.NoError(t, err)

	x, err := st.Series(ir.Var("x"), 0, 0, false)
	require.NoError(t, err)

	mean, sd := stat.MeanStdDev(x, nil)
	assert.InDelta(t, 5, mean, 0.1)
	// stationary sd = sigma / sqrt(1 - phi^2) = 1.1547
	assert.InDelta(t, 1.1547, sd, 0.1)
}

func TestGenerate_WellMixedRHat(t *testing.T) {
	cfg := Config{
		Chains:    4,
		Draws:     1000,
		Seed:      11,
		Variables: []Variable{{Name: "x", Phi: 0.2, Sigma: 1}},
	}
	st, err := Generate(cfg)
	require.NoError(t, err)

	chains, err := st.ChainDraws(ir.Var("x"), 0)
	require.NoError(t, err)
	assert.Less(t, diagnostics.RHat(chains), 1.01)
}

func TestGenerate_ChainOffsetRaisesRHat(t *testing.T) {
	cfg := Config{
		Chains:      4,
		Draws:       1000,
		Seed:        11,
		ChainOffset: 3,
		Variables:   []Variable{{Name: "x", Phi: 0.2, Sigma: 1}},
	}
	st, err := Generate(cfg)
	require.NoError(t, err)

	chains, err := st.ChainDraws(ir.Var("x"), 0)
	require.NoError(t, err)
	assert.Greater(t, diagnostics.RHat(chains), 1.5)
}

func TestGenerate_Args(t *testing.T) {
	cfg := Config{
		Chains:    1,
		Draws:     3,
		Variables: []Variable{{Name: "beta", Args: []any{"age", 2}, Sigma: 1}},
	}
	st, err := Generate(cfg)
	require.NoError(t, err)
	assert.True(t, st.Contains(ir.Var("beta", ir.String("age"), ir.Int(2))))

	cfg.Variables[0].Args = []any{1.5}
	_, err = Generate(cfg)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		return Config{Chains: 1, Draws: 1, Variables: []Variable{{Name: "x", Sigma: 1}}}
	}
	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no chains", func(c *Config) { c.Chains = 0 }},
		{"negative draws", func(c *Config) { c.Draws = -1 }},
		{"negative adaptation", func(c *Config) { c.Adapt = -1 }},
		{"no variables", func(c *Config) { c.Variables = nil }},
		{"unnamed variable", func(c *Config) { c.Variables[0].Name = "" }},
		{"explosive phi", func(c *Config) { c.Variables[0].Phi = 1 }},
		{"zero sigma", func(c *Config) { c.Variables[0].Sigma = 0 }},
		{"negative size", func(c *Config) { c.Variables[0].Size = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
			_, err := Generate(cfg)
			assert.Error(t, err)
		})
	}
}
