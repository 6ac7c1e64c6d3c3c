package textfeat

import "fmt"

// Vector is a sparse feature vector. Indices are strictly ascending and
// every index is below Dim.
type Vector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// Transformer maps raw text to a fixed-dimension feature vector.
type Transformer interface {
	Transform(text string) (Vector, error)
}

// NNZ returns the number of stored (non-zero) entries.
func (v Vector) NNZ() int {
	return len(v.Indices)
}

// Dot returns the inner product of v with a dense weight row.
func (v Vector) Dot(weights []float64) (float64, error) {
	if len(weights) != v.Dim {
		return 0, fmt.Errorf("dimension mismatch: vector has %d features, weights have %d", v.Dim, len(weights))
	}
	var sum float64
	for i, idx := range v.Indices {
		sum += weights[idx] * v.Values[i]
	}
	return sum, nil
}

// Dense expands the vector into a dense slice of length Dim.
func (v Vector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for i, idx := range v.Indices {
		out[idx] = v.Values[i]
	}
	return out
}
