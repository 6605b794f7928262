package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Arg is a sealed interface over the argument types a variable call may carry.
// Only String, Int, Bool and List implement it. There is no float variant.
type Arg interface {
	arg()
}

// String is a string call argument.
type String string

func (String) arg() {}

// Int is an integer call argument.
type Int int64

func (Int) arg() {}

// Bool is a boolean call argument.
type Bool bool

func (Bool) arg() {}

// List is an ordered list of call arguments.
type List []Arg

func (List) arg() {}

// ToArg converts a decoded Go value (from JSON, YAML or CUE) into an Arg.
// Integral float64 values are accepted because generic decoders produce them
// for plain JSON numbers; fractional values are rejected.
func ToArg(v any) (Arg, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is not a valid argument")
	case Arg:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return Int(val), nil
	case float64:
		if math.Trunc(val) != val || math.Abs(val) > 1<<53 {
			return nil, fmt.Errorf("floats are not valid arguments: %v", val)
		}
		return Int(int64(val)), nil
	case json.Number:
		return numberToArg(val)
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			a, err := ToArg(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = a
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unsupported argument type: %T", v)
	}
}

// ToArgs converts a slice of decoded values into a List.
func ToArgs(vals []any) (List, error) {
	list := make(List, len(vals))
	for i, v := range vals {
		a, err := ToArg(v)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		list[i] = a
	}
	return list, nil
}

func numberToArg(n json.Number) (Arg, error) {
	s := string(n)
	if strings.ContainsAny(s, ".eE") {
		return nil, fmt.Errorf("floats are not valid arguments: %s", s)
	}
	i, err := n.Int64()
	if err != nil {
		return nil, fmt.Errorf("number out of int64 range: %s", s)
	}
	return Int(i), nil
}

// UnmarshalArgs decodes a JSON array into a List, rejecting floats and null.
func UnmarshalArgs(data []byte) (List, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}
	return ToArgs(raw)
}

// formatArg renders an argument the way it appears in a call expression.
func formatArg(a Arg) string {
	switch v := a.(type) {
	case String:
		// JSON escapes only, so ParseRef reads the display form back.
		var buf bytes.Buffer
		writeCanonicalString(&buf, string(v))
		return buf.String()
	case Int:
		return strconv.FormatInt(int64(v), 10)
	case Bool:
		return strconv.FormatBool(bool(v))
	case List:
		parts := make([]string, len(v))
		for i, elem := range v {
			parts[i] = formatArg(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", a)
	}
}

// validateArg rejects string arguments that are not valid UTF-8: they have
// no JSON form, so their display form could not be parsed back.
func validateArg(a Arg) error {
	switch v := a.(type) {
	case String:
		if !utf8.ValidString(string(v)) {
			return fmt.Errorf("argument %q is not valid UTF-8", string(v))
		}
	case List:
		for _, elem := range v {
			if err := validateArg(elem); err != nil {
				return err
			}
		}
	}
	return nil
}
