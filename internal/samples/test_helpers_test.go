package samples

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/posterior/internal/ir"
)

// sequentialStore builds a store whose values encode their position:
// value = 1000*chain + draw for scalar variables.
func sequentialStore(t *testing.T, chains, draws, adapt int, refs ...ir.VariableRef) *Store {
	t.Helper()
	b := NewBuilder(chains, draws, adapt)
	for i, ref := range refs {
		data := make([]float64, 0, chains*(draws+adapt))
		for c := 0; c < chains; c++ {
			for d := 0; d < draws+adapt; d++ {
				data = append(data, float64(1000*c+d)+float64(i)/10)
			}
		}
		require.NoError(t, b.Add(ref, nil, data))
	}
	s, err := b.Build()
	require.NoError(t, err)
	return s
}
