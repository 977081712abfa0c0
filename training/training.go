// Package training - a trainable linear classification head over frozen
// backbone embeddings. Feature vectors come from (*efficientnet.Model).Embed;
// the head learns to map them onto a new label set without touching the
// backbone.
package training

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-efficientnet/inference"
)

// Dataset pairs embedding vectors with class indices.
type Dataset struct {
	// Features holds one embedding per sample, all of equal length.
	Features [][]float32
	// Labels holds the class index of each sample.
	Labels []int
	// NumClasses is the size of the new label set.
	NumClasses int
}

// validate checks the dataset invariants and returns the feature width.
func (d Dataset) validate() (int, error) {
	if len(d.Features) == 0 {
		return 0, fmt.Errorf("dataset has no samples")
	}
	if len(d.Features) != len(d.Labels) {
		return 0, fmt.Errorf("dataset has %d feature vectors but %d labels", len(d.Features), len(d.Labels))
	}
	if d.NumClasses < 2 {
		return 0, fmt.Errorf("dataset needs at least 2 classes, got %d", d.NumClasses)
	}

	dim := len(d.Features[0])
	if dim == 0 {
		return 0, fmt.Errorf("dataset has empty feature vectors")
	}
	for i, f := range d.Features {
		if len(f) != dim {
			return 0, fmt.Errorf("sample %d has %d features, expected %d", i, len(f), dim)
		}
		if d.Labels[i] < 0 || d.Labels[i] >= d.NumClasses {
			return 0, fmt.Errorf("sample %d has label %d outside [0,%d)", i, d.Labels[i], d.NumClasses)
		}
	}
	return dim, nil
}

// tensors renders the dataset as a feature matrix and a one-hot label
// matrix.
func (d Dataset) tensors(dim int) (tensor.Tensor, tensor.Tensor) {
	n := len(d.Features)

	xBacking := make([]float32, n*dim)
	for i, f := range d.Features {
		copy(xBacking[i*dim:(i+1)*dim], f)
	}

	yBacking := make([]float32, n*d.NumClasses)
	for i, label := range d.Labels {
		yBacking[i*d.NumClasses+label] = 1
	}

	x := tensor.New(tensor.WithShape(n, dim), tensor.Of(tensor.Float32), tensor.WithBacking(xBacking))
	y := tensor.New(tensor.WithShape(n, d.NumClasses), tensor.Of(tensor.Float32), tensor.WithBacking(yBacking))
	return x, y
}

// Config tunes the training run.
type Config struct {
	// Epochs is the number of full-batch gradient steps.
	Epochs int
	// LearnRate is the SGD step size.
	LearnRate float64
}

// applyDefaults fills unset fields.
func (c *Config) applyDefaults() {
	if c.Epochs <= 0 {
		c.Epochs = 100
	}
	if c.LearnRate <= 0 {
		c.LearnRate = 0.1
	}
}

// Head is a trained linear classifier: scores = features*W + b.
type Head struct {
	// Weights is the row-major (Dim x NumClasses) weight matrix.
	Weights []float32
	// Bias holds one offset per class.
	Bias []float32
	// Dim is the expected feature vector length.
	Dim int
	// NumClasses is the label set size.
	NumClasses int
}

// Train fits a linear head on the dataset with softmax cross-entropy and
// vanilla SGD, full batch.
//
// Arguments:
//   - ctx: Checked between epochs, cancellation aborts the run.
//   - ds: Embeddings and labels to fit.
//   - cfg: Epochs and learning rate, zero values use defaults.
//
// Returns:
//   - *Head: The fitted classifier.
//   - error: An error for malformed datasets or a failed graph run.
func Train(ctx context.Context, ds Dataset, cfg Config) (*Head, error) {
	dim, err := ds.validate()
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	n := len(ds.Features)
	g := G.NewGraph()

	x := G.NewMatrix(g, tensor.Float32, G.WithShape(n, dim), G.WithName("x"))
	y := G.NewMatrix(g, tensor.Float32, G.WithShape(n, ds.NumClasses), G.WithName("y"))
	w := G.NewMatrix(g, tensor.Float32, G.WithShape(dim, ds.NumClasses), G.WithName("w"), G.WithInit(G.GlorotU(1)))
	b := G.NewMatrix(g, tensor.Float32, G.WithShape(1, ds.NumClasses), G.WithName("b"), G.WithInit(G.Zeroes()))

	xw, err := G.Mul(x, w)
	if err != nil {
		return nil, fmt.Errorf("building score node: %w", err)
	}
	scores, err := G.BroadcastAdd(xw, b, nil, []byte{0})
	if err != nil {
		return nil, fmt.Errorf("building bias node: %w", err)
	}
	out, err := G.SoftMax(scores)
	if err != nil {
		return nil, fmt.Errorf("building softmax node: %w", err)
	}

	logOut, err := G.Log(out)
	if err != nil {
		return nil, fmt.Errorf("building log node: %w", err)
	}
	losses, err := G.HadamardProd(logOut, y)
	if err != nil {
		return nil, fmt.Errorf("building loss node: %w", err)
	}
	cost, err := G.Mean(losses)
	if err != nil {
		return nil, fmt.Errorf("building cost node: %w", err)
	}
	cost, err = G.Neg(cost)
	if err != nil {
		return nil, fmt.Errorf("building cost node: %w", err)
	}

	if _, err := G.Grad(cost, w, b); err != nil {
		return nil, fmt.Errorf("building gradient: %w", err)
	}

	vm := G.NewTapeMachine(g, G.BindDualValues(w, b))
	defer vm.Close()

	solver := G.NewVanillaSolver(G.WithLearnRate(cfg.LearnRate))
	xT, yT := ds.tensors(dim)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := G.Let(x, xT); err != nil {
			return nil, fmt.Errorf("binding features: %w", err)
		}
		if err := G.Let(y, yT); err != nil {
			return nil, fmt.Errorf("binding labels: %w", err)
		}

		if err := vm.RunAll(); err != nil {
			return nil, fmt.Errorf("epoch %d failed: %w", epoch, err)
		}
		if err := solver.Step(G.NodesToValueGrads(G.Nodes{w, b})); err != nil {
			return nil, fmt.Errorf("epoch %d step failed: %w", epoch, err)
		}

		if epoch%10 == 0 || epoch == cfg.Epochs-1 {
			logrus.WithFields(logrus.Fields{
				"epoch": epoch,
				"loss":  G.Value(cost).Data().(float32),
			}).Debug("training step")
		}
		vm.Reset()
	}

	head := &Head{
		Weights:    append([]float32(nil), w.Value().Data().([]float32)...),
		Bias:       append([]float32(nil), b.Value().Data().([]float32)...),
		Dim:        dim,
		NumClasses: ds.NumClasses,
	}
	return head, nil
}

// Scores computes the raw class scores of one feature vector.
func (h *Head) Scores(features []float32) ([]float32, error) {
	if len(features) != h.Dim {
		return nil, fmt.Errorf("feature vector has %d values, head expects %d", len(features), h.Dim)
	}

	scores := make([]float32, h.NumClasses)
	copy(scores, h.Bias)
	for d, f := range features {
		if f == 0 {
			continue
		}
		row := h.Weights[d*h.NumClasses : (d+1)*h.NumClasses]
		for c, wv := range row {
			scores[c] += f * wv
		}
	}
	return scores, nil
}

// Predict returns the most likely class and the softmax distribution for
// one feature vector.
func (h *Head) Predict(features []float32) (int, []float32, error) {
	scores, err := h.Scores(features)
	if err != nil {
		return 0, nil, err
	}
	probs := inference.Softmax(scores)
	return inference.ArgMax(probs), probs, nil
}

// Evaluate returns the head's accuracy over a dataset.
func (h *Head) Evaluate(ds Dataset) (float64, error) {
	if _, err := ds.validate(); err != nil {
		return 0, err
	}

	correct := 0
	for i, f := range ds.Features {
		pred, _, err := h.Predict(f)
		if err != nil {
			return 0, err
		}
		if pred == ds.Labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(ds.Features)), nil
}
