package samples

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/posterior/internal/ir"
)

func TestBuilderRejectsBadDimensions(t *testing.T) {
	tests := []struct {
		name                 string
		chains, draws, adapt int
	}{
		{"zero chains", 0, 10, 0},
		{"negative draws", 2, -1, 0},
		{"negative adapt", 2, 10, -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(tt.chains, tt.draws, tt.adapt).Build()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrShapeMismatch))
		})
	}
}

func TestBuilderAddWrongLength(t *testing.T) {
	b := NewBuilder(2, 3, 0)
	err := b.Add(ir.Var("mu"), nil, []float64{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	// A failed Add leaves no partial entry behind.
	require.NoError(t, b.Add(ir.Var("mu"), nil, make([]float64, 6)))
}

func TestBuilderDuplicateVariable(t *testing.T) {
	b := NewBuilder(1, 2, 0)
	require.NoError(t, b.Add(ir.Var("mu"), nil, []float64{1, 2}))
	err := b.Add(ir.Var("mu"), nil, []float64{1, 2})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestBuilderRecordEventSizeMismatch(t *testing.T) {
	b := NewBuilder(1, 2, 0)
	require.NoError(t, b.Record(ir.Var("w"), 0, 0, 1, 2))
	err := b.Record(ir.Var("w"), 0, 1, 1)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestBuilderRecordOutOfRange(t *testing.T) {
	b := NewBuilder(2, 2, 1)
	assert.True(t, IsIndexOutOfRange(b.Record(ir.Var("mu"), 2, 0, 1)))
	assert.True(t, IsIndexOutOfRange(b.Record(ir.Var("mu"), 0, 3, 1)))
	require.NoError(t, b.Record(ir.Var("mu"), 1, 2, 1))
}

func TestBuilderSingleUse(t *testing.T) {
	b := NewBuilder(1, 1, 0)
	require.NoError(t, b.Add(ir.Var("mu"), nil, []float64{1}))
	_, err := b.Build()
	require.NoError(t, err)

	_, err = b.Build()
	assert.Error(t, err)
	assert.Error(t, b.Add(ir.Var("sigma"), nil, []float64{1}))
}

func TestBuilderInvalidRef(t *testing.T) {
	b := NewBuilder(1, 1, 0)
	err := b.Add(ir.Var(""), nil, []float64{1})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestFromScalars(t *testing.T) {
	s, err := FromScalars(1,
		ScalarSeries{Ref: ir.Var("mu"), Chains: [][]float64{{9, 1, 2}, {9, 3, 4}}},
		ScalarSeries{Ref: ir.Var("sigma"), Chains: [][]float64{{9, 5, 6}, {9, 7, 8}}},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, s.NumChains())
	assert.Equal(t, 2, s.NumDraws(false))

	sigma, err := s.Get(ir.Var("sigma"))
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6, 7, 8}, sigma.Values())
}

func TestFromScalarsRagged(t *testing.T) {
	_, err := FromScalars(0,
		ScalarSeries{Ref: ir.Var("mu"), Chains: [][]float64{{1, 2}, {3}}},
	)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	_, err = FromScalars(0,
		ScalarSeries{Ref: ir.Var("mu"), Chains: [][]float64{{1, 2}, {3, 4}}},
		ScalarSeries{Ref: ir.Var("sigma"), Chains: [][]float64{{1, 2}}},
	)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	_, err = FromScalars(0)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}
