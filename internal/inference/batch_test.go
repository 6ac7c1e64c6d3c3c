package inference

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cogdistort/internal/testutil"
	"github.com/abhisek/cogdistort/internal/textfeat"
)

// lengthTransformer encodes len(text) as the only feature so a stub model
// can see which input it received.
func lengthTransformer() *testutil.StubTransformer {
	return &testutil.StubTransformer{Fn: func(text string) (textfeat.Vector, error) {
		if strings.Contains(text, "bad") {
			return textfeat.Vector{}, errors.New("rejected input")
		}
		return textfeat.Vector{Dim: 1, Indices: []int{0}, Values: []float64{float64(len(text))}}, nil
	}}
}

// parityModel predicts class len(text) % 2.
type parityModel struct{}

func (parityModel) Predict(x textfeat.Vector) (int, error) {
	if x.NNZ() == 0 {
		return 0, nil
	}
	return int(x.Values[0]) % 2, nil
}

func TestClassifyBatch_OrderAndCount(t *testing.T) {
	b := NewBundle(&testutil.StubModel{Class: 0}, &testutil.StubTransformer{Dim: 1}, twoLabels())

	results, err := ClassifyBatch(context.Background(), b, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, results[i].Text)
		assert.Equal(t, "overgeneralization", results[i].Label)
		assert.Nil(t, results[i].Confidence)
	}
}

func TestClassifyBatch_Empty(t *testing.T) {
	b := NewBundle(&testutil.StubModel{}, &testutil.StubTransformer{Dim: 1}, twoLabels())

	results, err := ClassifyBatch(context.Background(), b, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClassifyBatch_FailFast(t *testing.T) {
	tr := lengthTransformer()
	b := NewBundle(parityModel{}, tr, twoLabels())

	results, err := ClassifyBatch(context.Background(), b, []string{"ok", "bad one", "never reached"})
	assert.Nil(t, results)

	var item *ErrBatchItem
	require.ErrorAs(t, err, &item)
	assert.Equal(t, 1, item.Index)
	assert.EqualError(t, item.Err, "rejected input")
	assert.Equal(t, 2, tr.Calls(), "batch must stop at the failing item")
}

func TestClassifyBatch_UnknownClassAborts(t *testing.T) {
	b := NewBundle(parityModel{}, lengthTransformer(), LabelMap{0: "even"})

	_, err := ClassifyBatch(context.Background(), b, []string{"xx", "xxx"})
	var unknown *ErrUnknownClass
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, 1, unknown.ClassID)
}

func TestClassifyBatch_ModelNotLoaded(t *testing.T) {
	_, err := ClassifyBatch(context.Background(), nil, []string{"a"})
	var notLoaded *ErrModelNotLoaded
	assert.ErrorAs(t, err, &notLoaded)
}

func TestClassifyBatch_CancelledBetweenItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tr := &testutil.StubTransformer{}
	tr.Fn = func(text string) (textfeat.Vector, error) {
		if text == "second" {
			cancel()
		}
		return textfeat.Vector{Dim: 1}, nil
	}
	b := NewBundle(&testutil.StubModel{}, tr, twoLabels())

	_, err := ClassifyBatch(ctx, b, []string{"first", "second", "third"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, tr.Calls(), "the in-flight item finishes, the next is not started")
}

func TestClassifyBatch_ParallelPreservesOrder(t *testing.T) {
	b := NewBundle(parityModel{}, lengthTransformer(), LabelMap{0: "even", 1: "odd"})
	c := New(b, Options{Workers: 4})

	texts := make([]string, 50)
	for i := range texts {
		texts[i] = strings.Repeat("x", i+1)
	}

	results, err := c.ClassifyBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, results, len(texts))
	for i, r := range results {
		assert.Equal(t, texts[i], r.Text)
		want := "even"
		if len(texts[i])%2 == 1 {
			want = "odd"
		}
		assert.Equal(t, want, r.Label, "item %d", i)
	}
}

func TestClassifyBatch_ParallelFailFast(t *testing.T) {
	b := NewBundle(parityModel{}, lengthTransformer(), LabelMap{0: "even", 1: "odd"})
	c := New(b, Options{Workers: 3})

	results, err := c.ClassifyBatch(context.Background(), []string{"a", "bb", "bad", "ccc"})
	assert.Nil(t, results)
	var item *ErrBatchItem
	require.ErrorAs(t, err, &item)
	assert.Equal(t, 2, item.Index)
}

func TestClassifyEach_CollectsPerItemErrors(t *testing.T) {
	b := NewBundle(parityModel{}, lengthTransformer(), LabelMap{0: "even", 1: "odd"})
	c := New(b, Options{})

	out := c.ClassifyEach(context.Background(), []string{"aa", "bad", "ccc"})
	require.Len(t, out, 3)

	assert.NoError(t, out[0].Err)
	assert.Equal(t, "even", out[0].Result.Label)

	assert.EqualError(t, out[1].Err, "rejected input")
	assert.Equal(t, "bad", out[1].Result.Text)
	assert.Empty(t, out[1].Result.Label)

	assert.NoError(t, out[2].Err)
	assert.Equal(t, "odd", out[2].Result.Label)
}

func TestClassifyEach_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewBundle(&testutil.StubModel{}, &testutil.StubTransformer{Dim: 1}, twoLabels())

	out := New(b, Options{}).ClassifyEach(ctx, []string{"a", "b"})
	require.Len(t, out, 2)
	for i, o := range out {
		assert.ErrorIs(t, o.Err, context.Canceled)
		assert.Equal(t, []string{"a", "b"}[i], o.Result.Text)
	}
}
