// Package synth generates seeded synthetic posterior runs.
//
// Each variable element follows a stationary AR(1) process
//
//	x_t = mu + phi*(x_{t-1} - mu) + sigma*e_t,  e_t ~ N(0, 1)
//
// started from its stationary distribution. phi controls autocorrelation and
// therefore effective sample size; ChainOffset shifts the mean of chain c by
// c*ChainOffset so non-converged runs can be produced on demand.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/samples"
)

var validate = validator.New()

// Variable describes one synthetic variable.
type Variable struct {
	Name  string  `yaml:"name" json:"name" validate:"required"`
	Args  []any   `yaml:"args,omitempty" json:"args,omitempty"`
	Size  int     `yaml:"size,omitempty" json:"size,omitempty" validate:"gte=0"` // 0 or 1 is scalar
	Mu    float64 `yaml:"mu" json:"mu"`
	Phi   float64 `yaml:"phi" json:"phi" validate:"gt=-1,lt=1"`
	Sigma float64 `yaml:"sigma" json:"sigma" validate:"gt=0"`
}

// Config describes a synthetic run.
type Config struct {
	Chains      int        `yaml:"chains" json:"chains" validate:"gte=1"`
	Draws       int        `yaml:"draws" json:"draws" validate:"gte=0"`
	Adapt       int        `yaml:"num_adaptive,omitempty" json:"num_adaptive,omitempty" validate:"gte=0"`
	Seed        uint64     `yaml:"seed" json:"seed"`
	ChainOffset float64    `yaml:"chain_offset,omitempty" json:"chain_offset,omitempty"`
	Variables   []Variable `yaml:"variables" json:"variables" validate:"required,min=1,dive"`
}

// DefaultConfig is a small well-mixed run with one scalar and one vector
// variable.
func DefaultConfig() Config {
	return Config{
		Chains: 4,
		Draws:  1000,
		Seed:   1,
		Variables: []Variable{
			{Name: "reproduction_rate", Mu: 1.5, Phi: 0.3, Sigma: 0.2},
			{Name: "theta", Size: 3, Mu: 0, Phi: 0.6, Sigma: 1},
		},
	}
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid synthetic run: %w", err)
	}
	return nil
}

// Generate builds a Store from cfg. Identical configs give identical stores.
func Generate(cfg Config) (*samples.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	total := cfg.Adapt + cfg.Draws
	b := samples.NewBuilder(cfg.Chains, cfg.Draws, cfg.Adapt)
	for vi, v := range cfg.Variables {
		args, err := ir.ToArgs(v.Args)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", v.Name, err)
		}
		ref := ir.Var(v.Name, args...)

		size := max(v.Size, 1)
		var shape []int
		if v.Size > 1 {
			shape = []int{v.Size}
		}

		data := make([]float64, cfg.Chains*total*size)
		for c := 0; c < cfg.Chains; c++ {
			src := rand.NewPCG(cfg.Seed, uint64(vi)<<32|uint64(c))
			mu := v.Mu + float64(c)*cfg.ChainOffset
			for e := 0; e < size; e++ {
				series := ar1(src, total, mu, v.Phi, v.Sigma)
				for d, x := range series {
					data[(c*total+d)*size+e] = x
				}
			}
		}
		if err := b.Add(ref, shape, data); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func ar1(src rand.Source, n int, mu, phi, sigma float64) []float64 {
	noise := distuv.Normal{Mu: 0, Sigma: sigma, Src: src}
	stationary := distuv.Normal{Mu: mu, Sigma: sigma / math.Sqrt(1-phi*phi), Src: src}

	out := make([]float64, n)
	if n == 0 {
		return out
	}
	x := stationary.Rand()
	out[0] = x
	for t := 1; t < n; t++ {
		x = mu + phi*(x-mu) + noise.Rand()
		out[t] = x
	}
	return out
}
