package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariableIDDeterminism(t *testing.T) {
	ref := Var("reproduction_rate")

	id1 := VariableID(ref)
	id2 := VariableID(Var("reproduction_rate"))

	assert.Equal(t, id1, id2, "VariableID must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestVariableIDChangesWithInput(t *testing.T) {
	base := VariableID(Var("theta", Int(1)))

	assert.NotEqual(t, base, VariableID(Var("theta", Int(2))), "different args")
	assert.NotEqual(t, base, VariableID(Var("phi", Int(1))), "different name")
	assert.NotEqual(t, base, VariableID(Var("theta", String("1"))), "string vs int arg")
	assert.NotEqual(t, base, VariableID(Var("theta")), "missing arg")
}

func TestVariableIDArgOrderMatters(t *testing.T) {
	a := VariableID(Var("x", Int(1), Int(2)))
	b := VariableID(Var("x", Int(2), Int(1)))
	assert.NotEqual(t, a, b)
}

func TestSummaryKeyDomainSeparated(t *testing.T) {
	data := MarshalCanonical(Var("mu"))
	assert.NotEqual(t, VariableID(Var("mu")), SummaryKey(data))
	assert.Len(t, SummaryKey([]byte(`{"hdi_prob":0.94}`)), 64)
}
