// Package plotdata prepares the series a plot renderer needs for MCMC
// trace and autocorrelation plots. It does not render anything.
package plotdata

import (
	"fmt"

	"github.com/roach88/posterior/internal/diagnostics"
	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/samples"
)

// DefaultMaxLag matches the default lag window of common autocorrelation
// plots.
const DefaultMaxLag = 100

// Series is one chain's values, indexed by draw or by lag. NaN values
// encode as JSON null.
type Series struct {
	Chain  int                `json:"chain"`
	Values []diagnostics.Stat `json:"values"`
}

// Plot is the data for one panel: one series per chain of one element.
type Plot struct {
	Kind     string         `json:"kind"` // "trace" or "autocorr"
	Variable ir.VariableRef `json:"variable"`
	Element  int            `json:"element"`
	Series   []Series       `json:"series"`
}

// Trace returns the draw-by-draw values of one element, per chain.
// Chain views yield a single series labeled with the source chain.
func Trace(s *samples.Store, ref ir.VariableRef, elem int, includeAdapt bool) (*Plot, error) {
	p := &Plot{Kind: "trace", Variable: ref, Element: elem}
	for c := 0; c < s.NumChains(); c++ {
		values, err := s.Series(ref, c, elem, includeAdapt)
		if err != nil {
			return nil, fmt.Errorf("trace %s: %w", ref, err)
		}
		p.Series = append(p.Series, Series{Chain: chainLabel(s, c), Values: stats(values)})
	}
	return p, nil
}

// Autocorrelation returns the autocorrelation over lags [0, maxLag] of one
// element, per chain. maxLag <= 0 means DefaultMaxLag; it is clamped to
// draws-1.
func Autocorrelation(s *samples.Store, ref ir.VariableRef, elem, maxLag int) (*Plot, error) {
	if maxLag <= 0 {
		maxLag = DefaultMaxLag
	}
	p := &Plot{Kind: "autocorr", Variable: ref, Element: elem}
	for c := 0; c < s.NumChains(); c++ {
		values, err := s.Series(ref, c, elem, false)
		if err != nil {
			return nil, fmt.Errorf("autocorrelation %s: %w", ref, err)
		}
		p.Series = append(p.Series, Series{
			Chain:  chainLabel(s, c),
			Values: stats(diagnostics.Autocorrelation(values, maxLag)),
		})
	}
	return p, nil
}

func chainLabel(s *samples.Store, c int) int {
	if s.IsChainView() {
		return s.ChainIndex()
	}
	return c
}

func stats(values []float64) []diagnostics.Stat {
	out := make([]diagnostics.Stat, len(values))
	for i, v := range values {
		out[i] = diagnostics.Stat(v)
	}
	return out
}
