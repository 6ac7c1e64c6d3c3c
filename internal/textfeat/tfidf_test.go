package textfeat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTFIDF(t *testing.T, mod func(*TFIDFConfig)) *TFIDF {
	t.Helper()
	cfg := TFIDFConfig{
		Vocabulary: map[string]int{
			"always": 0,
			"fail":   1,
			"never":  2,
			"nunca":  3,
			"podre":  4,
		},
		IDF:       []float64{1, 2, 1, 1, 1},
		Lowercase: true,
		UseIDF:    true,
		Norm:      NormL2,
	}
	if mod != nil {
		mod(&cfg)
	}
	tf, err := NewTFIDF(cfg)
	require.NoError(t, err)
	return tf
}

func TestTFIDF_TransformWeightsAndNormalizes(t *testing.T) {
	tf := newTestTFIDF(t, nil)

	v, err := tf.Transform("Failed once, so I'll ALWAYS fail")
	require.NoError(t, err)

	assert.Equal(t, 5, v.Dim)
	assert.Equal(t, []int{0, 1}, v.Indices)

	// always: tf=1 idf=1, fail: tf=1 idf=2 -> (1, 2) / sqrt(5)
	n := math.Sqrt(5)
	assert.InDelta(t, 1/n, v.Values[0], 1e-12)
	assert.InDelta(t, 2/n, v.Values[1], 1e-12)
}

func TestTFIDF_TermCountsAndSublinear(t *testing.T) {
	tf := newTestTFIDF(t, func(c *TFIDFConfig) {
		c.Norm = NormNone
		c.UseIDF = false
	})
	v, err := tf.Transform("fail fail fail never")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, v.Indices)
	assert.Equal(t, []float64{3, 1}, v.Values)

	sub := newTestTFIDF(t, func(c *TFIDFConfig) {
		c.Norm = NormNone
		c.UseIDF = false
		c.SublinearTF = true
	})
	v, err = sub.Transform("fail fail fail never")
	require.NoError(t, err)
	assert.InDelta(t, 1+math.Log(3), v.Values[0], 1e-12)
	assert.InDelta(t, 1.0, v.Values[1], 1e-12)
}

func TestTFIDF_L1Norm(t *testing.T) {
	tf := newTestTFIDF(t, func(c *TFIDFConfig) { c.Norm = NormL1 })
	v, err := tf.Transform("always fail")
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3, v.Values[0], 1e-12)
	assert.InDelta(t, 2.0/3, v.Values[1], 1e-12)
}

func TestTFIDF_EmptyAndUnknownTextYieldZeroVector(t *testing.T) {
	tf := newTestTFIDF(t, nil)

	for _, text := range []string{"", "   ", "completely unrelated words", "a b c"} {
		v, err := tf.Transform(text)
		require.NoError(t, err, "text %q", text)
		assert.Equal(t, 5, v.Dim)
		assert.Zero(t, v.NNZ(), "text %q", text)
	}
}

func TestTFIDF_StripAccents(t *testing.T) {
	plain := newTestTFIDF(t, nil)
	v, err := plain.Transform("Nunca podré")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, v.Indices, "accented token must not match without stripping")

	stripped := newTestTFIDF(t, func(c *TFIDFConfig) { c.StripAccents = StripAccentsUnicode })
	v, err = stripped.Transform("Nunca podré")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, v.Indices)

	ascii := newTestTFIDF(t, func(c *TFIDFConfig) { c.StripAccents = StripAccentsASCII })
	v, err = ascii.Transform("NUNCA PODRÉ")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, v.Indices)
}

func TestTFIDF_NGramsAndStopWords(t *testing.T) {
	tf, err := NewTFIDF(TFIDFConfig{
		Vocabulary: map[string]int{"always": 0, "always fail": 1, "fail": 2},
		Lowercase:  true,
		NGramMin:   1,
		NGramMax:   2,
		StopWords:  []string{"will"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"always", "fail", "always fail"},
		tf.Terms("Always will fail"),
	)

	v, err := tf.Transform("always will fail")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, v.Indices)
}

func TestNewTFIDF_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  TFIDFConfig
	}{
		{"empty vocabulary", TFIDFConfig{}},
		{"column out of range", TFIDFConfig{Vocabulary: map[string]int{"a": 3}}},
		{"duplicate column", TFIDFConfig{Vocabulary: map[string]int{"aa": 0, "bb": 0}}},
		{"idf length", TFIDFConfig{Vocabulary: map[string]int{"aa": 0}, UseIDF: true, IDF: []float64{1, 2}}},
		{"bad accents", TFIDFConfig{Vocabulary: map[string]int{"aa": 0}, StripAccents: "latin"}},
		{"bad norm", TFIDFConfig{Vocabulary: map[string]int{"aa": 0}, Norm: "max"}},
		{"bad pattern", TFIDFConfig{Vocabulary: map[string]int{"aa": 0}, TokenPattern: "("}},
		{"bad ngram", TFIDFConfig{Vocabulary: map[string]int{"aa": 0}, NGramMin: 2, NGramMax: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTFIDF(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestVector_Dot(t *testing.T) {
	v := Vector{Dim: 3, Indices: []int{0, 2}, Values: []float64{0.5, 2}}

	got, err := v.Dot([]float64{2, 100, 3})
	require.NoError(t, err)
	assert.InDelta(t, 7.0, got, 1e-12)

	_, err = v.Dot([]float64{1, 2})
	assert.Error(t, err)

	assert.Equal(t, []float64{0.5, 0, 2}, v.Dense())
}
