package linear

import (
	"fmt"
	"math"

	"github.com/abhisek/cogdistort/internal/textfeat"
)

// SVC is a fitted linear support vector classifier. It exposes decision
// margins only.
type SVC struct {
	Weights
}

// NewSVC validates the weights and returns an SVC.
func NewSVC(w Weights) (*SVC, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	return &SVC{Weights: w}, nil
}

// ClassIDs returns the class ids in decision column order.
func (m *SVC) ClassIDs() []int {
	return m.Classes
}

// Predict returns the class id with the largest margin.
func (m *SVC) Predict(x textfeat.Vector) (int, error) {
	s, err := m.scores(x)
	if err != nil {
		return 0, err
	}
	return m.predictFromScores(s), nil
}

// DecisionFunction returns signed distances to the separating hyperplanes.
// Binary models return a single score, positive for ClassIDs()[1].
func (m *SVC) DecisionFunction(x textfeat.Vector) ([]float64, error) {
	return m.scores(x)
}

// Platt holds sigmoid calibration parameters for one score column.
type Platt struct {
	A float64
	B float64
}

// CalibratedSVC is an SVC with Platt-scaled probability estimates.
type CalibratedSVC struct {
	*SVC
	platt []Platt
}

// NewCalibratedSVC wraps an SVC with one Platt pair per decision column.
func NewCalibratedSVC(svc *SVC, platt []Platt) (*CalibratedSVC, error) {
	if len(platt) != len(svc.Coef) {
		return nil, fmt.Errorf("got %d platt pairs, want %d", len(platt), len(svc.Coef))
	}
	return &CalibratedSVC{SVC: svc, platt: platt}, nil
}

// PredictProba returns calibrated per-class probabilities in ClassIDs order.
// The most probable class can differ from Predict near the boundary.
func (m *CalibratedSVC) PredictProba(x textfeat.Vector) ([]float64, error) {
	s, err := m.scores(x)
	if err != nil {
		return nil, err
	}
	probs := make([]float64, len(s))
	for i, f := range s {
		probs[i] = 1 / (1 + math.Exp(m.platt[i].A*f+m.platt[i].B))
	}
	if len(probs) == 1 {
		return []float64{1 - probs[0], probs[0]}, nil
	}
	return normalizeSum(probs), nil
}
