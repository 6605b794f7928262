package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainVariable = "posterior/variable/v1"
	DomainSummary  = "posterior/summary/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// VariableID computes the content-addressed key for a variable reference.
// The ID is stable across processes given the same name and arguments.
func VariableID(ref VariableRef) string {
	return hashWithDomain(DomainVariable, MarshalCanonical(ref))
}

// SummaryKey hashes an already-serialized set of summary options so cached
// results can be addressed without embedding the options in the key.
func SummaryKey(options []byte) string {
	return hashWithDomain(DomainSummary, options)
}
