package samples

import (
	"fmt"
	"slices"

	"github.com/roach88/posterior/internal/ir"
)

// Builder accumulates draws and produces a Store in one step.
//
// Draw indices passed to Record count adaptation draws first: indices
// [0, adapt) are adaptation, [adapt, adapt+draws) are retained.
//
// A Builder is single-use and not safe for concurrent use.
type Builder struct {
	chains  int
	draws   int
	adapt   int
	entries map[string]*entry
	err     error
	built   bool
}

// NewBuilder creates a builder for chains x (adapt + draws) draws per variable.
func NewBuilder(chains, draws, adapt int) *Builder {
	b := &Builder{
		chains:  chains,
		draws:   draws,
		adapt:   adapt,
		entries: make(map[string]*entry),
	}
	switch {
	case chains < 1:
		b.err = newShapeMismatch("", "chain count must be positive, got %d", chains)
	case draws < 0:
		b.err = newShapeMismatch("", "draw count must not be negative, got %d", draws)
	case adapt < 0:
		b.err = newShapeMismatch("", "adaptation count must not be negative, got %d", adapt)
	}
	return b
}

func (b *Builder) usable() error {
	if b.err != nil {
		return b.err
	}
	if b.built {
		return fmt.Errorf("builder already used")
	}
	return nil
}

func (b *Builder) total() int {
	return b.adapt + b.draws
}

// Add registers ref with all of its draws at once. data is row-major
// [chain][draw][event] and must hold chains*(adapt+draws)*prod(eventShape)
// values.
func (b *Builder) Add(ref ir.VariableRef, eventShape []int, data []float64) error {
	if err := b.usable(); err != nil {
		return err
	}
	e, err := b.declare(ref, eventShape)
	if err != nil {
		return err
	}
	want := b.chains * b.total() * e.eventSize
	if len(data) != want {
		delete(b.entries, ref.ID())
		return newShapeMismatch(ref.String(), "expected %d values (%d chains x %d draws x %d elements), got %d",
			want, b.chains, b.total(), e.eventSize, len(data))
	}
	copy(e.data, data)
	return nil
}

// AddChains registers a scalar variable from per-chain series.
// Every chain must hold exactly adapt+draws values.
func (b *Builder) AddChains(ref ir.VariableRef, chains [][]float64) error {
	if err := b.usable(); err != nil {
		return err
	}
	if len(chains) != b.chains {
		return newShapeMismatch(ref.String(), "expected %d chains, got %d", b.chains, len(chains))
	}
	data := make([]float64, 0, b.chains*b.total())
	for c, series := range chains {
		if len(series) != b.total() {
			return newShapeMismatch(ref.String(), "chain %d has %d draws, expected %d", c, len(series), b.total())
		}
		data = append(data, series...)
	}
	return b.Add(ref, nil, data)
}

// Record sets the values of one draw. The first Record for a variable fixes
// its event shape: scalar for one value, a vector otherwise. Variables
// declared through Add keep their declared shape.
func (b *Builder) Record(ref ir.VariableRef, chain, draw int, values ...float64) error {
	if err := b.usable(); err != nil {
		return err
	}
	if chain < 0 || chain >= b.chains {
		return newIndexOutOfRange("chain", chain, b.chains)
	}
	if draw < 0 || draw >= b.total() {
		return newIndexOutOfRange("draw", draw, b.total())
	}

	e, ok := b.entries[ref.ID()]
	if !ok {
		var event []int
		if len(values) != 1 {
			event = []int{len(values)}
		}
		var err error
		if e, err = b.declare(ref, event); err != nil {
			return err
		}
	}
	if len(values) != e.eventSize {
		return newShapeMismatch(ref.String(), "draw has %d values, expected %d", len(values), e.eventSize)
	}
	off := (chain*b.total() + draw) * e.eventSize
	copy(e.data[off:off+e.eventSize], values)
	return nil
}

func (b *Builder) declare(ref ir.VariableRef, eventShape []int) (*entry, error) {
	if err := ref.Validate(); err != nil {
		return nil, newShapeMismatch(ref.String(), "invalid variable: %v", err)
	}
	if _, exists := b.entries[ref.ID()]; exists {
		return nil, newShapeMismatch(ref.String(), "variable recorded twice")
	}
	size, err := shapeSize(eventShape)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, newShapeMismatch(ref.String(), "event shape %v has no elements", eventShape)
	}
	e := &entry{
		ref:       ref,
		event:     slices.Clone(eventShape),
		eventSize: size,
		data:      make([]float64, b.chains*b.total()*size),
	}
	b.entries[ref.ID()] = e
	return e, nil
}

// Build returns the finished Store. The builder cannot be used afterwards.
func (b *Builder) Build() (*Store, error) {
	if err := b.usable(); err != nil {
		return nil, err
	}
	b.built = true
	return &Store{
		entries: b.entries,
		chains:  b.chains,
		draws:   b.draws,
		adapt:   b.adapt,
		origin:  -1,
	}, nil
}

// ScalarSeries is one scalar variable's draws as [chain][draw].
type ScalarSeries struct {
	Ref    ir.VariableRef
	Chains [][]float64
}

// FromScalars builds a Store from scalar series. The chain and draw counts
// are taken from the first series; adapt leading draws of every chain are
// treated as adaptation.
func FromScalars(adapt int, series ...ScalarSeries) (*Store, error) {
	if len(series) == 0 || len(series[0].Chains) == 0 {
		return nil, newShapeMismatch("", "at least one variable with one chain is required")
	}
	total := len(series[0].Chains[0])
	b := NewBuilder(len(series[0].Chains), total-adapt, adapt)
	for _, s := range series {
		if err := b.AddChains(s.Ref, s.Chains); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
