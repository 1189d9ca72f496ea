package storage

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeEmbedding serializes an embedding vector to its stored form:
// tightly packed little-endian float32 values with no header. A nil or
// empty vector encodes to nil, which persists as a NULL column.
func EncodeEmbedding(vector []float32) []byte {
	if len(vector) == 0 {
		return nil
	}
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// DecodeEmbedding deserializes a stored embedding blob. The vector length
// is implied by the blob length: len(blob)/4 values. A nil or empty blob
// decodes to nil, preserving the distinction between "no embedding" and
// an embedding that happens to be empty.
func DecodeEmbedding(blob []byte) ([]float32, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: not a multiple of 4", len(blob))
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector, nil
}
