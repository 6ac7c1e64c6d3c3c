package linear

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cogdistort/internal/textfeat"
)

func vec(values ...float64) textfeat.Vector {
	v := textfeat.Vector{Dim: len(values)}
	for i, x := range values {
		if x != 0 {
			v.Indices = append(v.Indices, i)
			v.Values = append(v.Values, x)
		}
	}
	return v
}

func threeClass() Weights {
	return Weights{
		Classes: []int{0, 1, 2},
		Coef: [][]float64{
			{2, 0},
			{0, 2},
			{-1, -1},
		},
		Intercept: []float64{0, 0, 0.5},
	}
}

func TestLogistic_BinaryProba(t *testing.T) {
	m, err := NewLogistic(Weights{
		Classes:   []int{3, 7},
		Coef:      [][]float64{{1, -1}},
		Intercept: []float64{0},
	}, "")
	require.NoError(t, err)

	p, err := m.PredictProba(vec(math.Log(4), 0))
	require.NoError(t, err)
	require.Len(t, p, 2)
	assert.InDelta(t, 0.2, p[0], 1e-12)
	assert.InDelta(t, 0.8, p[1], 1e-12)

	cls, err := m.Predict(vec(math.Log(4), 0))
	require.NoError(t, err)
	assert.Equal(t, 7, cls)

	cls, err = m.Predict(vec(0, 1))
	require.NoError(t, err)
	assert.Equal(t, 3, cls)
}

func TestLogistic_MultinomialSoftmax(t *testing.T) {
	m, err := NewLogistic(threeClass(), Multinomial)
	require.NoError(t, err)

	p, err := m.PredictProba(vec(1, 0))
	require.NoError(t, err)

	var sum float64
	for _, x := range p {
		assert.GreaterOrEqual(t, x, 0.0)
		assert.LessOrEqual(t, x, 1.0)
		sum += x
	}
	assert.InDelta(t, 1.0, sum, 1e-12)

	// softmax([2, 0, -0.5])
	e := []float64{math.Exp(2), 1, math.Exp(-0.5)}
	z := e[0] + e[1] + e[2]
	assert.InDelta(t, e[0]/z, p[0], 1e-12)

	cls, err := m.Predict(vec(1, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, cls)
}

func TestLogistic_OneVsRestNormalizes(t *testing.T) {
	m, err := NewLogistic(threeClass(), OneVsRest)
	require.NoError(t, err)

	p, err := m.PredictProba(vec(0, 1))
	require.NoError(t, err)

	raw := []float64{sigmoid(0), sigmoid(2), sigmoid(-0.5)}
	z := raw[0] + raw[1] + raw[2]
	for i := range raw {
		assert.InDelta(t, raw[i]/z, p[i], 1e-12)
	}

	cls, err := m.Predict(vec(0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, cls)
}

func TestLogistic_ZeroVectorUsesIntercept(t *testing.T) {
	m, err := NewLogistic(threeClass(), Multinomial)
	require.NoError(t, err)

	cls, err := m.Predict(vec(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, cls)
}

func TestLogistic_DimensionMismatch(t *testing.T) {
	m, err := NewLogistic(threeClass(), Multinomial)
	require.NoError(t, err)

	_, err = m.Predict(vec(1, 2, 3))
	assert.Error(t, err)
	_, err = m.PredictProba(vec(1))
	assert.Error(t, err)
}

func TestSVC_DecisionAndPredict(t *testing.T) {
	m, err := NewSVC(threeClass())
	require.NoError(t, err)

	d, err := m.DecisionFunction(vec(1, 3))
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 6, -3.5}, d)

	cls, err := m.Predict(vec(1, 3))
	require.NoError(t, err)
	assert.Equal(t, 1, cls)

	bin, err := NewSVC(Weights{Classes: []int{0, 1}, Coef: [][]float64{{1}}, Intercept: []float64{-0.5}})
	require.NoError(t, err)
	d, err = bin.DecisionFunction(vec(0.25))
	require.NoError(t, err)
	require.Len(t, d, 1)
	assert.InDelta(t, -0.25, d[0], 1e-12)
	cls, err = bin.Predict(vec(0.25))
	require.NoError(t, err)
	assert.Equal(t, 0, cls)
}

func TestCalibratedSVC_Proba(t *testing.T) {
	svc, err := NewSVC(threeClass())
	require.NoError(t, err)

	_, err = NewCalibratedSVC(svc, []Platt{{A: -1}})
	assert.Error(t, err)

	cal, err := NewCalibratedSVC(svc, []Platt{{A: -1}, {A: -1}, {A: -1}})
	require.NoError(t, err)

	p, err := cal.PredictProba(vec(1, 0))
	require.NoError(t, err)
	var sum float64
	for _, x := range p {
		sum += x
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.Equal(t, 0, argmax(p))
}

func TestCalibratedSVC_CanDisagreeWithPredict(t *testing.T) {
	svc, err := NewSVC(Weights{
		Classes:   []int{0, 1},
		Coef:      [][]float64{{1}},
		Intercept: []float64{0},
	})
	require.NoError(t, err)
	// A shifted sigmoid puts p(class 1) below 0.5 for small positive margins.
	cal, err := NewCalibratedSVC(svc, []Platt{{A: -1, B: 2}})
	require.NoError(t, err)

	x := vec(0.5)
	cls, err := cal.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, 1, cls)

	p, err := cal.PredictProba(x)
	require.NoError(t, err)
	assert.Greater(t, p[0], p[1])
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name string
		w    Weights
	}{
		{"one class", Weights{Classes: []int{0}, Coef: [][]float64{{1}}, Intercept: []float64{0}}},
		{"no coef", Weights{Classes: []int{0, 1}}},
		{"binary with two rows", Weights{Classes: []int{0, 1}, Coef: [][]float64{{1}, {1}}, Intercept: []float64{0, 0}}},
		{"intercept length", Weights{Classes: []int{0, 1}, Coef: [][]float64{{1}}, Intercept: []float64{0, 1}}},
		{"ragged", Weights{Classes: []int{0, 1, 2}, Coef: [][]float64{{1}, {1, 2}, {1}}, Intercept: []float64{0, 0, 0}}},
		{"empty rows", Weights{Classes: []int{0, 1}, Coef: [][]float64{{}}, Intercept: []float64{0}}},
		{"duplicate class", Weights{Classes: []int{1, 1}, Coef: [][]float64{{1}}, Intercept: []float64{0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.w.validate())
		})
	}
}

func TestScores_NonFinite(t *testing.T) {
	huge := 1.7e308
	w := Weights{
		Classes:   []int{0, 1, 2},
		Coef:      [][]float64{{huge, huge}, {0, 0}, {0, 0}},
		Intercept: []float64{0, 0, 0},
	}

	logit, err := NewLogistic(w, Multinomial)
	require.NoError(t, err)
	_, err = logit.Predict(vec(1, 1))
	assert.ErrorIs(t, err, ErrNonFiniteScore)
	_, err = logit.PredictProba(vec(1, 1))
	assert.ErrorIs(t, err, ErrNonFiniteScore)

	svc, err := NewSVC(w)
	require.NoError(t, err)
	_, err = svc.DecisionFunction(vec(1, 1))
	assert.ErrorIs(t, err, ErrNonFiniteScore)

	// A single large coefficient stays finite.
	_, err = logit.PredictProba(vec(1, 0))
	assert.NoError(t, err)
}
