// Package testutil provides stub models and on-disk bundle fixtures for
// tests.
package testutil

import (
	"sync/atomic"

	"github.com/abhisek/cogdistort/internal/textfeat"
)

// StubTransformer returns a fixed-size vector, or Err when set. When Fn is
// set it is used instead.
type StubTransformer struct {
	Dim   int
	Err   error
	Fn    func(text string) (textfeat.Vector, error)
	calls atomic.Int64
}

func (s *StubTransformer) Transform(text string) (textfeat.Vector, error) {
	s.calls.Add(1)
	if s.Fn != nil {
		return s.Fn(text)
	}
	if s.Err != nil {
		return textfeat.Vector{}, s.Err
	}
	return textfeat.Vector{Dim: s.Dim}, nil
}

// Calls returns the number of Transform calls made.
func (s *StubTransformer) Calls() int {
	return int(s.calls.Load())
}

// StubModel always predicts Class. It has neither probability nor margin
// capability.
type StubModel struct {
	Class int
	Err   error
}

func (s *StubModel) Predict(textfeat.Vector) (int, error) {
	return s.Class, s.Err
}

// StubProbModel predicts Class and reports Proba over IDs.
type StubProbModel struct {
	Class    int
	IDs      []int
	Proba    []float64
	ProbaErr error
}

func (s *StubProbModel) Predict(textfeat.Vector) (int, error) {
	return s.Class, nil
}

func (s *StubProbModel) ClassIDs() []int {
	return s.IDs
}

func (s *StubProbModel) PredictProba(textfeat.Vector) ([]float64, error) {
	if s.ProbaErr != nil {
		return nil, s.ProbaErr
	}
	out := make([]float64, len(s.Proba))
	copy(out, s.Proba)
	return out, nil
}

// StubMarginModel predicts Class and reports Margins.
type StubMarginModel struct {
	Class   int
	Margins []float64
}

func (s *StubMarginModel) Predict(textfeat.Vector) (int, error) {
	return s.Class, nil
}

func (s *StubMarginModel) DecisionFunction(textfeat.Vector) ([]float64, error) {
	return s.Margins, nil
}
