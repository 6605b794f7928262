// Package ingest reads posterior draw files into a Sample Store.
//
// Files are CUE or JSON (CUE is a superset of JSON) and are validated against
// an embedded CUE schema before any draws are decoded. Two layouts are
// accepted:
//
//	// compact: one struct per chain, keyed by variable display form
//	{name: "measles", num_adaptive: 1, chains: [
//		{"reproduction_rate": [1.1, 1.2, 1.3]},
//		{"reproduction_rate": [0.9, 1.0, 1.1]},
//	]}
//
//	// explicit: call arguments and event shape spelled out
//	{name: "measles", variables: [
//		{name: "theta", args: [3], event_shape: [2], chains: [[[1, 2], [3, 4]]]},
//	]}
package ingest

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/posterior/internal/samples"
)

//go:embed schema.cue
var schemaCUE string

// Result is a decoded draw file.
type Result struct {
	Name  string
	Store *samples.Store
}

// Error reports an invalid draw file. Pos is set when the problem can be
// traced to a location in the input.
type Error struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	where := e.Path
	if where == "" {
		where = "document"
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), where, e.Message)
	}
	return fmt.Sprintf("%s: %s", where, e.Message)
}

func errorAt(v cue.Value, format string, args ...any) *Error {
	return &Error{
		Path:    v.Path().String(),
		Message: fmt.Sprintf(format, args...),
		Pos:     v.Pos(),
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	out := &Error{
		Path:    strings.Join(first.Path(), "."),
		Message: first.Error(),
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		out.Pos = positions[0]
	}
	return out
}

// Load reads and parses a draw file from disk.
func Load(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read draw file: %w", err)
	}
	return Parse(path, data)
}

// Parse validates data against the draw file schema and builds a Store.
// filename is used only for error positions.
func Parse(filename string, data []byte) (*Result, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile draw schema: %w", err)
	}
	runDef := schema.LookupPath(cue.ParsePath("#Run"))

	doc := ctx.CompileBytes(data, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := runDef.Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	name, err := resolved(v.LookupPath(cue.ParsePath("name"))).String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	adapt, err := resolved(v.LookupPath(cue.ParsePath("num_adaptive"))).Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}

	chainsVal := v.LookupPath(cue.ParsePath("chains"))
	varsVal := v.LookupPath(cue.ParsePath("variables"))

	var vars []variable
	switch {
	case chainsVal.Exists() && varsVal.Exists():
		return nil, errorAt(v, "chains and variables are mutually exclusive")
	case chainsVal.Exists():
		vars, err = decodeCompact(chainsVal)
	case varsVal.Exists():
		vars, err = decodeExplicit(varsVal)
	default:
		return nil, errorAt(v, "one of chains or variables is required")
	}
	if err != nil {
		return nil, err
	}

	st, err := build(vars, int(adapt))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &Result{Name: name, Store: st}, nil
}

// resolved selects the default of a value with one, e.g. num_adaptive.
func resolved(v cue.Value) cue.Value {
	d, _ := v.Default()
	return d
}
