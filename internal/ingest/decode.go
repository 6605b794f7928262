package ingest

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"

	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/samples"
)

// variable is one decoded variable: chains[c] holds every draw of chain c
// flattened to [draw][event].
type variable struct {
	ref      ir.VariableRef
	shape    []int
	declared bool
	draws    int
	chains   [][]float64
	pos      cue.Value
}

func decodeCompact(chainsVal cue.Value) ([]variable, error) {
	iter, err := chainsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var vars []variable
	index := make(map[string]int)
	chain := 0
	for ; iter.Next(); chain++ {
		chainVal := iter.Value()
		fields, err := chainVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		seen := 0
		for fields.Next() {
			label := fields.Label()
			ref, err := ir.ParseRef(label)
			if err != nil {
				return nil, errorAt(fields.Value(), "%v", err)
			}

			i, ok := index[ref.ID()]
			if !ok {
				if chain > 0 {
					return nil, errorAt(fields.Value(), "variable %s missing from chain 0", ref)
				}
				i = len(vars)
				index[ref.ID()] = i
				vars = append(vars, variable{ref: ref, pos: fields.Value()})
			}
			if len(vars[i].chains) != chain {
				return nil, errorAt(fields.Value(), "variable %s appears twice in chain %d", ref, chain)
			}
			if err := vars[i].appendChain(fields.Value()); err != nil {
				return nil, err
			}
			seen++
		}
		if seen != len(vars) {
			return nil, errorAt(chainVal, "chain %d has %d variables, chain 0 has %d", chain, seen, len(vars))
		}
	}
	if chain == 0 {
		return nil, errorAt(chainsVal, "at least one chain is required")
	}
	return vars, nil
}

func decodeExplicit(varsVal cue.Value) ([]variable, error) {
	iter, err := varsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var vars []variable
	for iter.Next() {
		vv := iter.Value()
		name, err := vv.LookupPath(cue.ParsePath("name")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		var raw []any
		if err := resolved(vv.LookupPath(cue.ParsePath("args"))).Decode(&raw); err != nil {
			return nil, formatCUEError(err)
		}
		args, err := ir.ToArgs(raw)
		if err != nil {
			return nil, errorAt(vv, "%v", err)
		}

		v := variable{ref: ir.Var(name, args...), pos: vv}

		if shapeVal := vv.LookupPath(cue.ParsePath("event_shape")); shapeVal.Exists() {
			var shape []int
			if err := shapeVal.Decode(&shape); err != nil {
				return nil, formatCUEError(err)
			}
			if shape == nil {
				shape = []int{}
			}
			v.shape = shape
			v.declared = true
		}

		chains, err := vv.LookupPath(cue.ParsePath("chains")).List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for chains.Next() {
			if err := v.appendChain(chains.Value()); err != nil {
				return nil, err
			}
		}
		if len(v.chains) == 0 {
			return nil, errorAt(vv, "variable %s has no chains", v.ref)
		}
		vars = append(vars, v)
	}
	if len(vars) == 0 {
		return nil, errorAt(varsVal, "at least one variable is required")
	}
	return vars, nil
}

// appendChain decodes one chain of draws. The first draw fixes the event
// shape unless event_shape was declared; a declared shape only has to match
// in element count, so flat draws can be reshaped.
func (v *variable) appendChain(list cue.Value) error {
	iter, err := list.List()
	if err != nil {
		return formatCUEError(err)
	}

	var out []float64
	draws := 0
	for ; iter.Next(); draws++ {
		dv := iter.Value()
		shape, values, err := flattenDraw(dv)
		if err != nil {
			return err
		}
		switch {
		case v.shape == nil:
			v.shape = shape
		case slices.Equal(v.shape, shape):
		case !v.declared || size(v.shape) != len(values):
			return errorAt(dv, "%s: draw has shape %v, expected %v", v.ref, shape, v.shape)
		}
		out = append(out, values...)
	}

	if len(v.chains) > 0 && draws != v.draws {
		return errorAt(list, "%s: chain %d has %d draws, chain 0 has %d", v.ref, len(v.chains), draws, v.draws)
	}
	v.draws = draws
	v.chains = append(v.chains, out)
	return nil
}

// flattenDraw returns the shape and row-major values of one draw.
func flattenDraw(v cue.Value) ([]int, []float64, error) {
	if v.Kind() != cue.ListKind {
		f, err := v.Float64()
		if err != nil {
			return nil, nil, formatCUEError(err)
		}
		return []int{}, []float64{f}, nil
	}

	iter, err := v.List()
	if err != nil {
		return nil, nil, formatCUEError(err)
	}
	var inner []int
	var values []float64
	n := 0
	for ; iter.Next(); n++ {
		shape, vals, err := flattenDraw(iter.Value())
		if err != nil {
			return nil, nil, err
		}
		if n == 0 {
			inner = shape
		} else if !slices.Equal(inner, shape) {
			return nil, nil, errorAt(iter.Value(), "ragged draw: element %d has shape %v, expected %v", n, shape, inner)
		}
		values = append(values, vals...)
	}
	if n == 0 {
		return nil, nil, errorAt(v, "empty draw")
	}
	return append([]int{n}, inner...), values, nil
}

func size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// build assembles decoded variables into a Store. Every variable must have
// the same chain count and draw count.
func build(vars []variable, adapt int) (*samples.Store, error) {
	first := vars[0]
	chains, total := len(first.chains), first.draws
	if total < adapt {
		return nil, fmt.Errorf("num_adaptive %d exceeds the %d draws per chain", adapt, total)
	}

	b := samples.NewBuilder(chains, total-adapt, adapt)
	for _, v := range vars {
		if len(v.chains) != chains {
			return nil, errorAt(v.pos, "%s has %d chains, %s has %d", v.ref, len(v.chains), first.ref, chains)
		}
		if v.draws != total {
			return nil, errorAt(v.pos, "%s has %d draws per chain, %s has %d", v.ref, v.draws, first.ref, total)
		}
		shape := v.shape
		if len(shape) == 0 {
			shape = nil
		}
		data := make([]float64, 0, chains*len(v.chains[0]))
		for _, c := range v.chains {
			data = append(data, c...)
		}
		if err := b.Add(v.ref, shape, data); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
