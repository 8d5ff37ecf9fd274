package voiceprint

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Normalize returns v scaled to unit L2 norm. Returns ErrZeroVector when
// v has (near-)zero norm and no direction to preserve.
func Normalize(v []float32) ([]float32, error) {
	f := toFloat64(v)
	norm := floats.Norm(f, 2)
	if norm < 1e-12 {
		return nil, ErrZeroVector
	}
	out := make([]float32, len(v))
	for i, x := range f {
		out[i] = float32(x / norm)
	}
	return out, nil
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
//
// Both vectors are re-normalized before the dot product, so inputs whose
// stored norm has drifted from 1 still compare correctly. The only
// failure modes are a zero vector and mismatched dimensions.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("voiceprint: dimension mismatch: %d vs %d", len(a), len(b))
	}
	fa, fb := toFloat64(a), toFloat64(b)
	na := floats.Norm(fa, 2)
	nb := floats.Norm(fb, 2)
	if na < 1e-12 || nb < 1e-12 {
		return 0, ErrZeroVector
	}
	return floats.Dot(fa, fb) / (na * nb), nil
}

// meanVector reduces temporal sub-embeddings to one vector by
// element-wise mean across windows. All rows must have equal length.
func meanVector(rows [][]float32) []float32 {
	if len(rows) == 0 {
		return nil
	}
	sum := make([]float64, len(rows[0]))
	for _, row := range rows {
		for i, x := range row {
			sum[i] += float64(x)
		}
	}
	out := make([]float32, len(sum))
	for i, x := range sum {
		out[i] = float32(x / float64(len(rows)))
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
