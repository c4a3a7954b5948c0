package embedding

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/hirelens/matchdex/internal/domain"
)

const (
	fieldVector       = "__vector"
	fieldModel        = "model"
	fieldModelVersion = "model_version"
	fieldComputedAt   = "computed_at"
)

// buildHashFields converts a stored embedding into a flat map for HSET.
func buildHashFields(emb domain.StoredEmbedding) map[string]string {
	return map[string]string{
		fieldVector:       vectorToBytes(emb.Vector),
		fieldModel:        emb.Model,
		fieldModelVersion: emb.ModelVersion,
		fieldComputedAt:   strconv.FormatInt(emb.ComputedAt, 10),
	}
}

// parseHashFields converts a flat hash map back into a stored embedding.
func parseHashFields(m map[string]string) domain.StoredEmbedding {
	computedAt, _ := strconv.ParseInt(m[fieldComputedAt], 10, 64)
	return domain.StoredEmbedding{
		Vector:       bytesToVector(m[fieldVector]),
		Model:        m[fieldModel],
		ModelVersion: m[fieldModelVersion],
		ComputedAt:   computedAt,
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
