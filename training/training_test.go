package training

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusterDataset builds a linearly separable two-class dataset: class 0
// clusters around (-1,...), class 1 around (+1,...).
func clusterDataset(n, dim int) Dataset {
	rng := rand.New(rand.NewSource(7))

	ds := Dataset{NumClasses: 2}
	for i := 0; i < n; i++ {
		label := i % 2
		center := float32(-1)
		if label == 1 {
			center = 1
		}

		f := make([]float32, dim)
		for d := range f {
			f[d] = center + float32(rng.NormFloat64())*0.1
		}
		ds.Features = append(ds.Features, f)
		ds.Labels = append(ds.Labels, label)
	}
	return ds
}

// TestTrainSeparableClusters tests that the head fits an easy dataset.
func TestTrainSeparableClusters(t *testing.T) {
	ds := clusterDataset(40, 8)

	head, err := Train(context.Background(), ds, Config{Epochs: 200, LearnRate: 0.5})
	require.NoError(t, err, "Training on clean clusters should succeed")

	assert.Equal(t, 8, head.Dim)
	assert.Equal(t, 2, head.NumClasses)
	assert.Len(t, head.Weights, 16, "Weights should be Dim x NumClasses")
	assert.Len(t, head.Bias, 2)

	acc, err := head.Evaluate(ds)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.95, "Separable clusters should be learned almost perfectly")
}

// TestPredictDistribution tests the probability output shape and range.
func TestPredictDistribution(t *testing.T) {
	ds := clusterDataset(20, 4)
	head, err := Train(context.Background(), ds, Config{Epochs: 100, LearnRate: 0.5})
	require.NoError(t, err)

	pred, probs, err := head.Predict(ds.Features[0])
	require.NoError(t, err)
	require.Len(t, probs, 2)

	var sum float32
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-4, "Probabilities should sum to 1")
	assert.Contains(t, []int{0, 1}, pred)
}

// TestPredictDimensionMismatch tests the feature width guard.
func TestPredictDimensionMismatch(t *testing.T) {
	head := &Head{Weights: make([]float32, 8), Bias: make([]float32, 2), Dim: 4, NumClasses: 2}

	_, _, err := head.Predict([]float32{1, 2})
	require.Error(t, err, "Wrong feature widths should be rejected")
	assert.Contains(t, err.Error(), "expects 4")
}

// TestTrainValidation tests dataset invariant checks.
func TestTrainValidation(t *testing.T) {
	ctx := context.Background()

	_, err := Train(ctx, Dataset{NumClasses: 2}, Config{})
	assert.Error(t, err, "Empty datasets should be rejected")

	_, err = Train(ctx, Dataset{
		Features:   [][]float32{{1, 2}},
		Labels:     []int{0, 1},
		NumClasses: 2,
	}, Config{})
	assert.Error(t, err, "Feature/label count mismatch should be rejected")

	_, err = Train(ctx, Dataset{
		Features:   [][]float32{{1, 2}, {3}},
		Labels:     []int{0, 1},
		NumClasses: 2,
	}, Config{})
	assert.Error(t, err, "Ragged feature vectors should be rejected")

	_, err = Train(ctx, Dataset{
		Features:   [][]float32{{1, 2}, {3, 4}},
		Labels:     []int{0, 5},
		NumClasses: 2,
	}, Config{})
	assert.Error(t, err, "Out-of-range labels should be rejected")

	_, err = Train(ctx, Dataset{
		Features:   [][]float32{{1, 2}},
		Labels:     []int{0},
		NumClasses: 1,
	}, Config{})
	assert.Error(t, err, "Single-class datasets should be rejected")
}

// TestTrainCancelled tests that cancellation stops the epoch loop.
func TestTrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Train(ctx, clusterDataset(10, 4), Config{Epochs: 50})
	assert.ErrorIs(t, err, context.Canceled)
}
