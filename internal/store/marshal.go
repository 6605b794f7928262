package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/roach88/posterior/internal/ir"
)

// encodeFloats packs values as little-endian IEEE 754 doubles.
// NaN payloads and signed zeros survive the round trip.
func encodeFloats(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

// decodeFloats is the inverse of encodeFloats.
func decodeFloats(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("decode draws: blob length %d is not a multiple of 8", len(data))
	}
	out := make([]float64, len(data)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*i:]))
	}
	return out, nil
}

// marshalArgs converts call arguments to canonical JSON TEXT for storage.
func marshalArgs(args ir.List) string {
	return string(ir.MarshalCanonicalArgs(args))
}

// unmarshalArgs parses canonical JSON TEXT back into call arguments.
func unmarshalArgs(data string) (ir.List, error) {
	if data == "" || data == "[]" {
		return ir.List{}, nil
	}
	return ir.UnmarshalArgs([]byte(data))
}

func marshalShape(shape []int) (string, error) {
	if shape == nil {
		shape = []int{}
	}
	data, err := json.Marshal(shape)
	if err != nil {
		return "", fmt.Errorf("marshal event shape: %w", err)
	}
	return string(data), nil
}

func unmarshalShape(data string) ([]int, error) {
	var shape []int
	if err := json.Unmarshal([]byte(data), &shape); err != nil {
		return nil, fmt.Errorf("unmarshal event shape: %w", err)
	}
	if len(shape) == 0 {
		return nil, nil
	}
	return shape, nil
}
