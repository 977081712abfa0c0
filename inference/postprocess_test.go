package inference

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSoftmaxSumsToOne tests that softmax output is a probability
// distribution.
func TestSoftmaxSumsToOne(t *testing.T) {
	probs := Softmax([]float32{1.0, 2.0, 3.0, 4.0})
	require.Len(t, probs, 4, "Softmax should preserve length")

	var sum float32
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, float32(0), "Probabilities should be non-negative")
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-5, "Probabilities should sum to 1")
	assert.True(t, probs[3] > probs[2] && probs[2] > probs[1] && probs[1] > probs[0],
		"Softmax should preserve order")
}

// TestSoftmaxUniform tests that equal logits yield equal probabilities.
func TestSoftmaxUniform(t *testing.T) {
	probs := Softmax([]float32{0.5, 0.5, 0.5, 0.5})
	for i, p := range probs {
		assert.InDelta(t, 0.25, p, 1e-6, "Equal logits should split mass evenly at index %d", i)
	}
}

// TestSoftmaxLargeLogits tests numerical stability against overflow.
func TestSoftmaxLargeLogits(t *testing.T) {
	probs := Softmax([]float32{1000, 999, 998})

	var sum float32
	for _, p := range probs {
		require.False(t, math32.IsNaN(p), "Large logits should not produce NaN")
		require.False(t, math32.IsInf(p, 0), "Large logits should not produce Inf")
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-5, "Probabilities should sum to 1")
	assert.Greater(t, probs[0], probs[1], "Order should survive shifting")
}

// TestSoftmaxEmpty tests the empty input edge case.
func TestSoftmaxEmpty(t *testing.T) {
	assert.Nil(t, Softmax(nil), "Empty input should return nil")
}

// TestArgMax tests index selection over a few shapes of input.
func TestArgMax(t *testing.T) {
	assert.Equal(t, 2, ArgMax([]float32{0.1, 0.2, 0.9, 0.3}), "Should find the largest value")
	assert.Equal(t, 0, ArgMax([]float32{5}), "Single element should map to index 0")
	assert.Equal(t, 0, ArgMax([]float32{2, 2, 2}), "Ties should resolve to the first index")
	assert.Equal(t, -1, ArgMax(nil), "Empty input should return -1")
}

// TestTopK tests ranking, label binding and the k clamp.
func TestTopK(t *testing.T) {
	probs := []float32{0.05, 0.60, 0.10, 0.25}
	labels := []string{"cat", "dog", "fox", "owl"}

	preds := TopK(probs, labels, 2)
	require.Len(t, preds, 2, "Should return exactly k predictions")

	assert.Equal(t, 1, preds[0].Index, "Highest probability should rank first")
	assert.Equal(t, "dog", preds[0].Label, "Label should follow the index")
	assert.InDelta(t, 0.60, preds[0].Score, 1e-6, "Score should carry the probability")

	assert.Equal(t, 3, preds[1].Index, "Second highest should rank second")
	assert.Equal(t, "owl", preds[1].Label, "Label should follow the index")
}

// TestTopKClampsToLength tests that an oversized k returns everything.
func TestTopKClampsToLength(t *testing.T) {
	preds := TopK([]float32{0.3, 0.7}, []string{"a", "b"}, 10)
	require.Len(t, preds, 2, "k beyond the class count should clamp")
	assert.Equal(t, 1, preds[0].Index, "Ranking should still hold")
}

// TestTopKWithoutLabels tests that missing labels leave names empty.
func TestTopKWithoutLabels(t *testing.T) {
	preds := TopK([]float32{0.9, 0.1}, nil, 1)
	require.Len(t, preds, 1)
	assert.Equal(t, 0, preds[0].Index, "Index should be set")
	assert.Empty(t, preds[0].Label, "No labels bound means empty label")
}

// TestTopKStableTies tests that equal scores keep ascending index order.
func TestTopKStableTies(t *testing.T) {
	preds := TopK([]float32{0.25, 0.25, 0.25, 0.25}, nil, 4)
	require.Len(t, preds, 4)
	for i, p := range preds {
		assert.Equal(t, i, p.Index, "Tied scores should stay in index order")
	}
}

// TestTopKNonPositiveK tests the degenerate k edge cases.
func TestTopKNonPositiveK(t *testing.T) {
	assert.Nil(t, TopK([]float32{0.5, 0.5}, nil, 0), "k=0 should return nil")
	assert.Nil(t, TopK([]float32{0.5, 0.5}, nil, -3), "Negative k should return nil")
}
