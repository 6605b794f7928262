package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariableRefString(t *testing.T) {
	tests := []struct {
		ref      VariableRef
		expected string
	}{
		{Var("reproduction_rate"), "reproduction_rate()"},
		{Var("theta", Int(3)), "theta(3)"},
		{Var("beta", String("age"), Bool(true)), `beta("age", true)`},
		{Var("w", List{Int(1), Int(2)}), "w([1, 2])"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.ref.String())
		})
	}
}

func TestParseRefRoundTrip(t *testing.T) {
	refs := []VariableRef{
		Var("reproduction_rate"),
		Var("theta", Int(3)),
		Var("beta", String("age"), Bool(true)),
		Var("w", List{Int(1), Int(-2)}),
	}
	for _, ref := range refs {
		t.Run(ref.String(), func(t *testing.T) {
			parsed, err := ParseRef(ref.String())
			require.NoError(t, err)
			assert.Equal(t, ref.ID(), parsed.ID())
		})
	}
}

func TestParseRefRoundTripEscapes(t *testing.T) {
	ref := Var("label", String("bell\a tab\t vt\v del\x7f \"q\" \\ é"), List{String("\x01")})
	display := ref.String()
	assert.Equal(t, "label(\"bell\\u0007 tab\\t vt\\u000b del\x7f \\\"q\\\" \\\\ é\", [\"\\u0001\"])", display)

	parsed, err := ParseRef(display)
	require.NoError(t, err)
	assert.Equal(t, ref.ID(), parsed.ID())
}

func TestValidateRejectsInvalidUTF8(t *testing.T) {
	err := Var("label", List{String("ok"), String("\xff")}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid UTF-8")

	assert.NoError(t, Var("label", String("ok")).Validate())
}

func TestParseRefBareName(t *testing.T) {
	ref, err := ParseRef("  sigma ")
	require.NoError(t, err)
	assert.True(t, ref.Equal(Var("sigma")))
}

func TestParseRefErrors(t *testing.T) {
	tests := []string{"", "theta(1", "theta(1.5)", "()", "theta(null)"}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			_, err := ParseRef(s)
			assert.Error(t, err)
		})
	}
}

func TestVariableRefJSONRoundTrip(t *testing.T) {
	ref := Var("theta", Int(3), String("a"))

	data, err := json.Marshal(ref)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"theta","args":[3,"a"]}`, string(data))

	var decoded VariableRef
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, ref.Equal(decoded))
}

func TestVariableRefJSONMissingArgs(t *testing.T) {
	var decoded VariableRef
	require.NoError(t, json.Unmarshal([]byte(`{"name":"mu"}`), &decoded))
	assert.True(t, decoded.Equal(Var("mu")))
}

func TestVariableRefJSONRejectsFloats(t *testing.T) {
	var decoded VariableRef
	err := json.Unmarshal([]byte(`{"name":"mu","args":[1.5]}`), &decoded)
	assert.Error(t, err)
}

func TestToArg(t *testing.T) {
	a, err := ToArg(float64(4))
	require.NoError(t, err)
	assert.Equal(t, Int(4), a)

	_, err = ToArg(4.5)
	assert.Error(t, err)

	_, err = ToArg(nil)
	assert.Error(t, err)

	list, err := ToArg([]any{"x", 1, true})
	require.NoError(t, err)
	assert.Equal(t, List{String("x"), Int(1), Bool(true)}, list)
}

func TestSortRefs(t *testing.T) {
	refs := []VariableRef{Var("b"), Var("a", Int(2)), Var("a", Int(1))}
	SortRefs(refs)
	assert.Equal(t, "a(1)", refs[0].String())
	assert.Equal(t, "a(2)", refs[1].String())
	assert.Equal(t, "b()", refs[2].String())
}
