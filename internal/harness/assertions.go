package harness

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/posterior/internal/diagnostics"
	"github.com/roach88/posterior/internal/ir"
	"github.com/roach88/posterior/internal/samples"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Keys     []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Keys) > 0 {
		fmt.Fprintf(&buf, "  Keys: %s\n", strings.Join(e.Keys, ", "))
	}
	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertKeyPresent:
			err = assertKeyPresent(result.Store, a)
		case AssertKeyCount:
			err = assertKeyCount(result.Store, a)
		case AssertShape:
			err = assertShape(result.Store, a)
		case AssertValueAt:
			err = assertValueAt(result.Store, a)
		case AssertGetError:
			err = assertGetError(result.Store, a)
		case AssertChainError:
			err = assertChainError(result.Store, a)
		case AssertChainSlices:
			err = assertChainSlices(result.Store)
		case AssertRHatBelow, AssertRHatAbove, AssertESSAbove:
			if result.Summary == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a summary", i, a.Type)
			} else {
				err = assertDiagnostic(result.Summary, a)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func keyNames(s *samples.Store) []string {
	keys := s.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return names
}

// target returns the store an assertion reads from: the chain view when
// Chain is set, s otherwise.
func target(s *samples.Store, a Assertion) (*samples.Store, error) {
	if a.Chain == nil {
		return s, nil
	}
	return s.GetChain(*a.Chain)
}

func assertKeyPresent(s *samples.Store, a Assertion) error {
	ref, err := ir.ParseRef(a.Variable)
	if err != nil {
		return err
	}
	if s.Contains(ref) {
		return nil
	}
	return &AssertionError{
		Type:     AssertKeyPresent,
		Expected: fmt.Sprintf("key %s", ref),
		Actual:   "not found",
		Keys:     keyNames(s),
	}
}

func assertKeyCount(s *samples.Store, a Assertion) error {
	if s.Len() == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertKeyCount,
		Expected: fmt.Sprintf("%d keys", a.Count),
		Actual:   fmt.Sprintf("%d keys", s.Len()),
		Keys:     keyNames(s),
	}
}

func assertShape(s *samples.Store, a Assertion) error {
	tensor, err := getTensor(s, a)
	if err != nil {
		return err
	}
	if slices.Equal(tensor.Shape(), a.Shape) {
		return nil
	}
	return &AssertionError{
		Type:     AssertShape,
		Expected: fmt.Sprintf("%s shape %v", a.Variable, a.Shape),
		Actual:   fmt.Sprintf("shape %v", tensor.Shape()),
	}
}

func assertValueAt(s *samples.Store, a Assertion) error {
	tensor, err := getTensor(s, a)
	if err != nil {
		return err
	}
	shape := tensor.Shape()
	if len(a.Index) != len(shape) {
		return &AssertionError{
			Type:     AssertValueAt,
			Expected: fmt.Sprintf("index %v into %s", a.Index, a.Variable),
			Actual:   fmt.Sprintf("tensor has rank %d", len(shape)),
		}
	}
	for axis, i := range a.Index {
		if i < 0 || i >= shape[axis] {
			return &AssertionError{
				Type:     AssertValueAt,
				Expected: fmt.Sprintf("index %v into %s", a.Index, a.Variable),
				Actual:   fmt.Sprintf("shape %v", shape),
			}
		}
	}
	if got := tensor.At(a.Index...); got != a.Value {
		return &AssertionError{
			Type:     AssertValueAt,
			Expected: fmt.Sprintf("%s%v = %v", a.Variable, a.Index, a.Value),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}

func getTensor(s *samples.Store, a Assertion) (*samples.Tensor, error) {
	ref, err := ir.ParseRef(a.Variable)
	if err != nil {
		return nil, err
	}
	view, err := target(s, a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Type, err)
	}
	tensor, err := view.Get(ref)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Type, err)
	}
	return tensor, nil
}

func assertGetError(s *samples.Store, a Assertion) error {
	ref, err := ir.ParseRef(a.Variable)
	if err != nil {
		return err
	}
	view, err := target(s, a)
	if err == nil {
		_, err = view.Get(ref)
	}
	return expectCode(AssertGetError, fmt.Sprintf("get %s", ref), err, a.Code)
}

func assertChainError(s *samples.Store, a Assertion) error {
	_, err := s.GetChain(*a.Chain)
	return expectCode(AssertChainError, fmt.Sprintf("chain %d", *a.Chain), err, a.Code)
}

func expectCode(typ, what string, err error, code string) error {
	var sErr *samples.Error
	switch {
	case err == nil:
		return &AssertionError{Type: typ, Expected: fmt.Sprintf("%s fails with %s", what, code), Actual: "no error"}
	case !errors.As(err, &sErr):
		return &AssertionError{Type: typ, Expected: fmt.Sprintf("%s fails with %s", what, code), Actual: err.Error()}
	case string(sErr.Code) != code:
		return &AssertionError{Type: typ, Expected: fmt.Sprintf("%s fails with %s", what, code), Actual: string(sErr.Code)}
	}
	return nil
}

// assertChainSlices checks that GetChain(c).Get(v) equals chain c of Get(v)
// for every chain and key.
func assertChainSlices(s *samples.Store) error {
	for c := 0; c < s.NumChains(); c++ {
		view, err := s.GetChain(c)
		if err != nil {
			return fmt.Errorf("%s: %w", AssertChainSlices, err)
		}
		for _, ref := range s.Keys() {
			full, err := s.Get(ref)
			if err != nil {
				return fmt.Errorf("%s: %w", AssertChainSlices, err)
			}
			slice, err := full.Index(c)
			if err != nil {
				return fmt.Errorf("%s: %w", AssertChainSlices, err)
			}
			got, err := view.Get(ref)
			if err != nil {
				return fmt.Errorf("%s: %w", AssertChainSlices, err)
			}
			if !got.Equal(slice) {
				return &AssertionError{
					Type:     AssertChainSlices,
					Expected: fmt.Sprintf("chain %d of %s equals the chain view", c, ref),
					Actual:   fmt.Sprintf("view %v, slice %v", got, slice),
				}
			}
		}
	}
	return nil
}

func assertDiagnostic(summary *diagnostics.Summary, a Assertion) error {
	ref, err := ir.ParseRef(a.Variable)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(summary.Rows, func(r diagnostics.Row) bool {
		return r.Variable.Equal(ref) && r.Element == a.Element
	})
	if idx < 0 {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("summary row for %s element %d", ref, a.Element),
			Actual:   "not found",
		}
	}
	row := summary.Rows[idx]

	var got float64
	var ok bool
	switch a.Type {
	case AssertRHatBelow:
		got = float64(row.RHat)
		ok = got < a.Value
	case AssertRHatAbove:
		got = float64(row.RHat)
		ok = got > a.Value
	case AssertESSAbove:
		got = float64(row.ESSBulk)
		ok = got > a.Value
	}
	if ok && !math.IsNaN(got) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s %s %v", row.Label, a.Type, a.Value),
		Actual:   fmt.Sprintf("%v", got),
	}
}
