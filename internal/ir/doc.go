// Package ir provides the identity types shared by every other package.
//
// A modeled variable is identified by its function name plus the arguments
// it was called with. Identity is content-addressed: the canonical JSON form
// of a VariableRef is hashed with domain separation, so the same call
// produces the same key across processes, ingest formats and the archive.
//
// Key design constraints:
//   - NO float arguments - identity must compare exactly
//   - Canonical JSON follows RFC 8785 (sorted keys, NFC strings, no HTML escaping)
//   - ir imports nothing internal; all other internal packages import ir
package ir
