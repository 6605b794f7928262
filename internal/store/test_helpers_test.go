package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/samples"
	"github.com/roach88/posterior/internal/testutil"
)

// createTestStore creates a store in a temp dir with deterministic ids and
// timestamps.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithIDGenerator(testutil.NewSequentialIDs("run")),
		WithClock(testutil.NewDeterministicClock()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var (
	rateRef  = ir.Var("reproduction_rate")
	thetaRef = ir.Var("theta", ir.Int(3), ir.String("a"))
)

// createTestSamples builds 3 chains x 4 draws (+2 adaptation) with a scalar
// and a 4-element vector variable. Values encode their position so mismatches are
// easy to spot.
func createTestSamples(t *testing.T) *samples.Store {
	t.Helper()
	const chains, draws, adapt = 3, 4, 2
	b := samples.NewBuilder(chains, draws, adapt)
	for c := 0; c < chains; c++ {
		for d := 0; d < draws+adapt; d++ {
			base := float64(100*c + d)
			require.NoError(t, b.Record(rateRef, c, d, base+0.5))
			require.NoError(t, b.Record(thetaRef, c, d, base, base+0.25, -base, base*1e-9))
		}
	}
	st, err := b.Build()
	require.NoError(t, err)
	return st
}
