package inference

import (
	"sort"

	"github.com/chewxy/math32"
)

// Prediction is a single ranked classification result.
type Prediction struct {
	// Index is the class index in the model's output layer.
	Index int `json:"index"`
	// Label is the human-readable class name, empty when no labels are bound.
	Label string `json:"label"`
	// Score is the softmax probability of the class.
	Score float32 `json:"score"`
}

// Softmax converts raw logits into probabilities. The maximum logit is
// subtracted before exponentiation so large magnitudes do not overflow.
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}

	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}

	probs := make([]float32, len(logits))
	var sum float32
	for i, v := range logits {
		probs[i] = math32.Exp(v - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// ArgMax returns the index of the largest value, or -1 for an empty slice.
func ArgMax(values []float32) int {
	if len(values) == 0 {
		return -1
	}

	best := 0
	for i, v := range values[1:] {
		if v > values[best] {
			best = i + 1
		}
	}
	return best
}

// TopK ranks probabilities and returns the k highest as predictions.
//
// Arguments:
//   - probs: Class probabilities, typically a Softmax output.
//   - labels: Class names indexed by class, may be nil or shorter than probs.
//   - k: Number of results; clamped to len(probs), non-positive yields nil.
//
// Returns:
//   - []Prediction: Predictions ordered by descending score, ties broken by
//     ascending index.
func TopK(probs []float32, labels []string, k int) []Prediction {
	if k <= 0 || len(probs) == 0 {
		return nil
	}
	if k > len(probs) {
		k = len(probs)
	}

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probs[order[a]] > probs[order[b]]
	})

	preds := make([]Prediction, k)
	for i := 0; i < k; i++ {
		idx := order[i]
		preds[i] = Prediction{Index: idx, Score: probs[idx]}
		if idx < len(labels) {
			preds[i].Label = labels[idx]
		}
	}
	return preds
}
