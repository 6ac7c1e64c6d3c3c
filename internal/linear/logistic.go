package linear

import (
	"fmt"

	"github.com/abhisek/cogdistort/internal/textfeat"
)

// Multi-class strategies for logistic regression.
const (
	Multinomial = "multinomial"
	OneVsRest   = "ovr"
)

// Logistic is a fitted logistic regression model.
type Logistic struct {
	Weights
	multiClass string
}

// NewLogistic validates the weights and returns a Logistic model.
// multiClass is ignored for binary models.
func NewLogistic(w Weights, multiClass string) (*Logistic, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	switch multiClass {
	case Multinomial, OneVsRest:
	case "":
		multiClass = Multinomial
	default:
		return nil, fmt.Errorf("unknown multi_class %q", multiClass)
	}
	return &Logistic{Weights: w, multiClass: multiClass}, nil
}

// ClassIDs returns the class ids in probability column order.
func (m *Logistic) ClassIDs() []int {
	return m.Classes
}

// Predict returns the class id with the highest decision score.
func (m *Logistic) Predict(x textfeat.Vector) (int, error) {
	s, err := m.scores(x)
	if err != nil {
		return 0, err
	}
	return m.predictFromScores(s), nil
}

// PredictProba returns per-class probabilities in ClassIDs order.
func (m *Logistic) PredictProba(x textfeat.Vector) ([]float64, error) {
	s, err := m.scores(x)
	if err != nil {
		return nil, err
	}
	if len(s) == 1 {
		p := sigmoid(s[0])
		return []float64{1 - p, p}, nil
	}
	if m.multiClass == OneVsRest {
		for i := range s {
			s[i] = sigmoid(s[i])
		}
		return normalizeSum(s), nil
	}
	return softmax(s), nil
}

// DecisionFunction returns the raw decision scores.
func (m *Logistic) DecisionFunction(x textfeat.Vector) ([]float64, error) {
	return m.scores(x)
}
