// Package linear implements inference for persisted linear text models:
// logistic regression, linear SVMs, and Platt-calibrated linear SVMs.
//
// All models are read-only after construction and safe for concurrent use.
package linear

import (
	"errors"
	"fmt"
	"math"

	"github.com/abhisek/cogdistort/internal/textfeat"
)

// ErrNonFiniteScore is returned when a decision score overflows or is NaN,
// which only happens with degenerate coefficients.
var ErrNonFiniteScore = errors.New("decision score is not finite")

// Weights holds the shared parameters of a linear model. Coef has one row
// per score column; a binary model has a single row scoring Classes[1].
type Weights struct {
	Classes   []int
	Coef      [][]float64
	Intercept []float64
}

func (w Weights) validate() error {
	if len(w.Classes) < 2 {
		return fmt.Errorf("need at least 2 classes, got %d", len(w.Classes))
	}
	if len(w.Coef) == 0 {
		return fmt.Errorf("empty coefficient matrix")
	}
	wantRows := len(w.Classes)
	if len(w.Classes) == 2 {
		wantRows = 1
	}
	if len(w.Coef) != wantRows {
		return fmt.Errorf("coefficient matrix has %d rows, want %d for %d classes", len(w.Coef), wantRows, len(w.Classes))
	}
	if len(w.Intercept) != len(w.Coef) {
		return fmt.Errorf("intercept has %d entries, coefficient matrix has %d rows", len(w.Intercept), len(w.Coef))
	}
	dim := len(w.Coef[0])
	if dim == 0 {
		return fmt.Errorf("coefficient rows are empty")
	}
	for i, row := range w.Coef {
		if len(row) != dim {
			return fmt.Errorf("coefficient row %d has %d features, want %d", i, len(row), dim)
		}
	}
	seen := make(map[int]bool, len(w.Classes))
	for _, c := range w.Classes {
		if seen[c] {
			return fmt.Errorf("duplicate class id %d", c)
		}
		seen[c] = true
	}
	return nil
}

// NumFeatures returns the input dimension the model expects.
func (w Weights) NumFeatures() int {
	if len(w.Coef) == 0 {
		return 0
	}
	return len(w.Coef[0])
}

// scores returns W·x + b, one entry per coefficient row.
func (w Weights) scores(x textfeat.Vector) ([]float64, error) {
	out := make([]float64, len(w.Coef))
	for i, row := range w.Coef {
		s, err := x.Dot(row)
		if err != nil {
			return nil, err
		}
		out[i] = s + w.Intercept[i]
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return nil, fmt.Errorf("score column %d: %w", i, ErrNonFiniteScore)
		}
	}
	return out, nil
}

// predictFromScores maps decision scores to a class id. Ties resolve to the
// lowest column.
func (w Weights) predictFromScores(scores []float64) int {
	if len(scores) == 1 {
		if scores[0] > 0 {
			return w.Classes[1]
		}
		return w.Classes[0]
	}
	return w.Classes[argmax(scores)]
}

func argmax(xs []float64) int {
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func softmax(xs []float64) []float64 {
	maxv := xs[argmax(xs)]
	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		out[i] = math.Exp(x - maxv)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// normalizeSum rescales xs to sum to one. A zero sum yields a uniform vector.
func normalizeSum(xs []float64) []float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		if sum == 0 {
			out[i] = 1 / float64(len(xs))
			continue
		}
		out[i] = x / sum
	}
	return out
}
