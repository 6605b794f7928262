package ir

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for a variable reference.
// CRITICAL: This is the ONLY serialization used for identity computation.
//
// Output shape: {"args":[...],"name":"..."} (keys in UTF-16 order, which for
// these two ASCII keys is plain lexical order).
func MarshalCanonical(ref VariableRef) []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"args":`)
	writeCanonicalList(&buf, ref.Args)
	buf.WriteString(`,"name":`)
	writeCanonicalString(&buf, ref.Name)
	buf.WriteByte('}')
	return buf.Bytes()
}

// MarshalCanonicalArgs produces canonical JSON for an argument list alone.
// Used by the archive, which stores args next to the name.
func MarshalCanonicalArgs(args List) []byte {
	var buf bytes.Buffer
	writeCanonicalList(&buf, args)
	return buf.Bytes()
}

func writeCanonicalArg(buf *bytes.Buffer, a Arg) {
	switch v := a.(type) {
	case String:
		writeCanonicalString(buf, string(v))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case List:
		writeCanonicalList(buf, v)
	default:
		// Arg is sealed; reaching here means a new variant was added without
		// a canonical form.
		panic(fmt.Sprintf("ir: no canonical form for %T", a))
	}
}

func writeCanonicalList(buf *bytes.Buffer, list List) {
	buf.WriteByte('[')
	for i, elem := range list {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeCanonicalArg(buf, elem)
	}
	buf.WriteByte(']')
}

// writeCanonicalString writes an NFC-normalized JSON string per RFC 8785:
// only the quote, backslash and control characters are escaped. No HTML
// escaping, and U+2028/U+2029 stay literal.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	const hex = "0123456789abcdef"

	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r < 0x20:
			buf.WriteString(`\u00`)
			buf.WriteByte(hex[r>>4])
			buf.WriteByte(hex[r&0xF])
		default:
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
}
