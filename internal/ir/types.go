package ir

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// VariableRef identifies a modeled variable: the function that defines it
// and the arguments it was called with.
//
// VariableRef is a value type and must not be mutated after creation; the
// Args slice is shared by copies.
type VariableRef struct {
	Name string
	Args List
}

// Var creates a VariableRef.
// Example: Var("reproduction_rate"), Var("theta", Int(3)).
func Var(name string, args ...Arg) VariableRef {
	if args == nil {
		args = List{}
	}
	return VariableRef{Name: name, Args: List(args)}
}

// ID returns the content-addressed key of the reference.
func (r VariableRef) ID() string {
	return VariableID(r)
}

// String renders the reference as a call expression, e.g. theta(3, "a").
func (r VariableRef) String() string {
	parts := make([]string, len(r.Args))
	for i, a := range r.Args {
		parts[i] = formatArg(a)
	}
	return r.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Equal reports whether two references identify the same variable.
func (r VariableRef) Equal(other VariableRef) bool {
	return r.ID() == other.ID()
}

// Validate checks that the reference can be used as a key.
func (r VariableRef) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("variable name is required")
	}
	for _, a := range r.Args {
		if err := validateArg(a); err != nil {
			return fmt.Errorf("variable %s: %w", r.Name, err)
		}
	}
	return nil
}

type variableRefJSON struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// MarshalJSON encodes the reference as {"name": ..., "args": [...]}.
func (r VariableRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(variableRefJSON{
		Name: r.Name,
		Args: MarshalCanonicalArgs(r.Args),
	})
}

// UnmarshalJSON decodes {"name": ..., "args": [...]}; args may be omitted.
func (r *VariableRef) UnmarshalJSON(data []byte) error {
	var raw variableRefJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	args := List{}
	if len(raw.Args) > 0 && string(raw.Args) != "null" {
		var err error
		args, err = UnmarshalArgs(raw.Args)
		if err != nil {
			return fmt.Errorf("variable %q: %w", raw.Name, err)
		}
	}
	*r = VariableRef{Name: raw.Name, Args: args}
	return nil
}

// ParseRef parses the display form produced by String, e.g. `theta(3, "a")`.
// A bare name without parentheses is accepted as a call with no arguments.
// Arguments are parsed as a JSON array body, so strings must be double-quoted.
func ParseRef(s string) (VariableRef, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		ref := Var(s)
		return ref, ref.Validate()
	}
	if !strings.HasSuffix(s, ")") {
		return VariableRef{}, fmt.Errorf("parse variable %q: missing closing parenthesis", s)
	}
	name := strings.TrimSpace(s[:open])
	args, err := UnmarshalArgs([]byte("[" + s[open+1:len(s)-1] + "]"))
	if err != nil {
		return VariableRef{}, fmt.Errorf("parse variable %q: %w", s, err)
	}
	ref := VariableRef{Name: name, Args: args}
	return ref, ref.Validate()
}

// SortRefs orders references by display form, then by ID for ties.
func SortRefs(refs []VariableRef) {
	slices.SortFunc(refs, func(a, b VariableRef) int {
		if c := cmp.Compare(a.String(), b.String()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID(), b.ID())
	})
}
