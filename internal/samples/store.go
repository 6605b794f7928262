package samples

import (
	"slices"

	"github.com/roach88/posterior/internal/ir"
)

// entry holds one variable's draws, adaptation included, laid out as
// [chain][draw][event] in row-major order.
type entry struct {
	ref       ir.VariableRef
	event     []int
	eventSize int
	data      []float64
}

// Store is an immutable mapping from variable to draws.
// All variables share the same chain count and draw count.
type Store struct {
	entries map[string]*entry
	chains  int
	draws   int // retained draws after adaptation
	adapt   int // adaptation draws at the head of each chain
	origin  int // source chain for a chain view, -1 for a full store
}

func (s *Store) total() int {
	return s.adapt + s.draws
}

func (s *Store) lookup(ref ir.VariableRef) (*entry, error) {
	e, ok := s.entries[ref.ID()]
	if !ok {
		return nil, newKeyNotFound(ref.String())
	}
	return e, nil
}

// Get returns the retained draws for ref.
// Full stores return shape [chain, draw, event...]; chain views return
// [draw, event...]. Fails with KEY_NOT_FOUND for unknown variables.
func (s *Store) Get(ref ir.VariableRef) (*Tensor, error) {
	return s.GetVariable(ref, false)
}

// GetVariable is Get with control over whether adaptation draws are included.
func (s *Store) GetVariable(ref ir.VariableRef, includeAdapt bool) (*Tensor, error) {
	e, err := s.lookup(ref)
	if err != nil {
		return nil, err
	}

	start, n := s.adapt, s.draws
	if includeAdapt {
		start, n = 0, s.total()
	}

	chainLen := s.total() * e.eventSize
	data := make([]float64, 0, s.chains*n*e.eventSize)
	for c := 0; c < s.chains; c++ {
		base := c*chainLen + start*e.eventSize
		data = append(data, e.data[base:base+n*e.eventSize]...)
	}

	var shape []int
	if !s.IsChainView() {
		shape = append(shape, s.chains)
	}
	shape = append(shape, n)
	shape = append(shape, e.event...)
	return newTensorNoCopy(shape, data), nil
}

// GetChain returns a new Store holding only the given chain.
// The returned store shares no memory with s. Fails with INDEX_OUT_OF_RANGE
// when chain is not in [0, NumChains()) and ALREADY_SINGLE_CHAIN when s is
// itself a chain view.
func (s *Store) GetChain(chain int) (*Store, error) {
	if s.IsChainView() {
		return nil, &Error{
			Code:    ErrCodeAlreadySingleChain,
			Message: "store is already restricted to a single chain",
			Index:   s.origin,
		}
	}
	if chain < 0 || chain >= s.chains {
		return nil, newIndexOutOfRange("chain", chain, s.chains)
	}

	view := &Store{
		entries: make(map[string]*entry, len(s.entries)),
		chains:  1,
		draws:   s.draws,
		adapt:   s.adapt,
		origin:  chain,
	}
	for id, e := range s.entries {
		chainLen := s.total() * e.eventSize
		view.entries[id] = &entry{
			ref:       e.ref,
			event:     e.event,
			eventSize: e.eventSize,
			data:      slices.Clone(e.data[chain*chainLen : (chain+1)*chainLen]),
		}
	}
	return view, nil
}

// Keys returns every recorded variable, sorted by display form.
func (s *Store) Keys() []ir.VariableRef {
	keys := make([]ir.VariableRef, 0, len(s.entries))
	for _, e := range s.entries {
		keys = append(keys, e.ref)
	}
	ir.SortRefs(keys)
	return keys
}

// Contains reports whether ref was recorded.
func (s *Store) Contains(ref ir.VariableRef) bool {
	_, ok := s.entries[ref.ID()]
	return ok
}

// Len returns the number of variables.
func (s *Store) Len() int {
	return len(s.entries)
}

// NumChains returns the chain count (1 for a chain view).
func (s *Store) NumChains() int {
	return s.chains
}

// NumDraws returns the draws per chain, optionally counting adaptation draws.
func (s *Store) NumDraws(includeAdapt bool) int {
	if includeAdapt {
		return s.total()
	}
	return s.draws
}

// NumAdaptive returns the number of adaptation draws per chain.
func (s *Store) NumAdaptive() int {
	return s.adapt
}

// IsChainView reports whether s was produced by GetChain.
func (s *Store) IsChainView() bool {
	return s.origin >= 0
}

// ChainIndex returns the source chain of a chain view, or -1 for a full store.
func (s *Store) ChainIndex() int {
	return s.origin
}

// EventShape returns the per-draw shape of ref (empty for scalars).
func (s *Store) EventShape(ref ir.VariableRef) ([]int, error) {
	e, err := s.lookup(ref)
	if err != nil {
		return nil, err
	}
	return slices.Clone(e.event), nil
}

// EventSize returns the number of scalar elements per draw of ref.
func (s *Store) EventSize(ref ir.VariableRef) (int, error) {
	e, err := s.lookup(ref)
	if err != nil {
		return 0, err
	}
	return e.eventSize, nil
}

// Series returns one element of ref across the draws of one chain.
// For a chain view the only valid chain is 0.
func (s *Store) Series(ref ir.VariableRef, chain, elem int, includeAdapt bool) ([]float64, error) {
	e, err := s.lookup(ref)
	if err != nil {
		return nil, err
	}
	if chain < 0 || chain >= s.chains {
		return nil, newIndexOutOfRange("chain", chain, s.chains)
	}
	if elem < 0 || elem >= e.eventSize {
		return nil, newIndexOutOfRange("element", elem, e.eventSize)
	}
	return s.series(e, chain, elem, includeAdapt), nil
}

func (s *Store) series(e *entry, chain, elem int, includeAdapt bool) []float64 {
	start := s.adapt
	if includeAdapt {
		start = 0
	}
	out := make([]float64, 0, s.total()-start)
	base := chain * s.total() * e.eventSize
	for d := start; d < s.total(); d++ {
		out = append(out, e.data[base+d*e.eventSize+elem])
	}
	return out
}

// ChainDraws returns one element of ref as [chain][draw], retained draws only.
// This is the (chain, draw) layout the diagnostics consume.
func (s *Store) ChainDraws(ref ir.VariableRef, elem int) ([][]float64, error) {
	e, err := s.lookup(ref)
	if err != nil {
		return nil, err
	}
	if elem < 0 || elem >= e.eventSize {
		return nil, newIndexOutOfRange("element", elem, e.eventSize)
	}
	out := make([][]float64, s.chains)
	for c := range out {
		out[c] = s.series(e, c, elem, false)
	}
	return out, nil
}
