package efficientnet

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/nvr-ai/go-efficientnet/images"
	"github.com/nvr-ai/go-efficientnet/inference"
	"github.com/nvr-ai/go-efficientnet/inference/providers"
	"github.com/nvr-ai/go-efficientnet/weights"
)

// ErrNotLoaded is returned by inference methods on a model constructed
// without weights.
var ErrNotLoaded = errors.New("model has no weights loaded")

// embedOutputName is the optional graph output carrying the pooled
// features ahead of the classifier.
const embedOutputName = "features"

// Model is an EfficientNet classifier. Without weights it is a pure
// architecture descriptor (stage table, channel math, parameter count);
// with weights it additionally holds a live inference session and the
// eval transform the checkpoint was published with.
type Model struct {
	variant    Variant
	params     Params
	stages     []BlockConfig
	numClasses int
	categories []string
	entry      *weights.Entry
	transform  images.Transform
	topK       int
	provider   *providers.Config

	checkpointPath string

	mu       sync.Mutex
	session  *inference.Session
	embedder *inference.Session
}

// Variant returns the model's family member, e.g. VariantB4.
func (m *Model) Variant() Variant {
	return m.variant
}

// Params returns the model's scaling hyperparameters.
func (m *Model) Params() Params {
	return m.params
}

// Stages returns a copy of the model's scaled stage table.
func (m *Model) Stages() []BlockConfig {
	stages := make([]BlockConfig, len(m.stages))
	copy(stages, m.stages)
	return stages
}

// NumClasses returns the classifier output width.
func (m *Model) NumClasses() int {
	return m.numClasses
}

// NumParams returns the exact trainable parameter count of the
// architecture at the model's class count.
func (m *Model) NumParams() int64 {
	return m.params.ParamCount(m.numClasses)
}

// Categories returns the class labels bound to the model, nil when the
// class count has no published label set.
func (m *Model) Categories() []string {
	return m.categories
}

// Weights returns the weight entry the model was built with, nil for a
// weightless model.
func (m *Model) Weights() *weights.Entry {
	return m.entry
}

// Transform returns the eval preprocessing the model expects.
func (m *Model) Transform() images.Transform {
	return m.transform
}

// Loaded reports whether the model holds a live inference session.
func (m *Model) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// Classify runs the eval transform and the network over one image and
// returns the top-K predictions by softmax probability.
//
// Arguments:
//   - ctx: Context checked before the native run starts.
//   - img: Decoded image in any orientation or size.
//
// Returns:
//   - []inference.Prediction: Predictions ordered by descending score.
//   - error: ErrNotLoaded without weights, or a preprocessing/run error.
func (m *Model) Classify(ctx context.Context, img image.Image) ([]inference.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil, ErrNotLoaded
	}
	if err := m.transform.ApplyTo(img, m.session.Input()); err != nil {
		return nil, err
	}
	if err := m.session.Run(ctx); err != nil {
		return nil, err
	}

	probs := inference.Softmax(m.session.Output())
	return inference.TopK(probs, m.categories, m.topK), nil
}

// ClassifyBatch classifies a slice of images. Preprocessing fans out
// across CPUs; the network runs are serialized over the session.
func (m *Model) ClassifyBatch(ctx context.Context, imgs []image.Image) ([][]inference.Prediction, error) {
	if len(imgs) == 0 {
		return nil, nil
	}
	if !m.Loaded() {
		return nil, ErrNotLoaded
	}

	batch, err := m.transform.ApplyBatch(imgs, runtime.NumCPU())
	if err != nil {
		return nil, err
	}
	stride := m.transform.NumElements()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, ErrNotLoaded
	}

	results := make([][]inference.Prediction, len(imgs))
	for i := range imgs {
		copy(m.session.Input(), batch[i*stride:(i+1)*stride])
		if err := m.session.Run(ctx); err != nil {
			return nil, fmt.Errorf("classifying image %d of %d: %w", i+1, len(imgs), err)
		}
		probs := inference.Softmax(m.session.Output())
		results[i] = inference.TopK(probs, m.categories, m.topK)
	}
	return results, nil
}

// Embed returns the pooled feature vector ahead of the classifier,
// HeadChannels wide. The checkpoint must expose the embedding output;
// a session over it is opened on first use and cached.
func (m *Model) Embed(ctx context.Context, img image.Image) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil, ErrNotLoaded
	}
	if m.embedder == nil {
		crop := int64(m.transform.CropSize)
		embedder, err := inference.NewSession(inference.SessionArgs{
			ModelPath:   m.checkpointPath,
			OutputName:  embedOutputName,
			InputShape:  []int64{1, 3, crop, crop},
			OutputShape: []int64{1, int64(m.params.HeadChannels())},
			Provider:    m.provider,
		})
		if err != nil {
			return nil, fmt.Errorf("checkpoint exposes no %q output: %w", embedOutputName, err)
		}
		m.embedder = embedder
	}

	if err := m.transform.ApplyTo(img, m.embedder.Input()); err != nil {
		return nil, err
	}
	if err := m.embedder.Run(ctx); err != nil {
		return nil, err
	}

	features := make([]float32, len(m.embedder.Output()))
	copy(features, m.embedder.Output())
	return features, nil
}

// Metrics returns the classifier session's latency counters, zero for a
// weightless model.
func (m *Model) Metrics() inference.Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return inference.Metrics{}
	}
	return m.session.Metrics()
}

// Summary renders the architecture as a human-readable table.
func (m *Model) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s (width %.1f, depth %.1f, dropout %.1f)\n",
		m.variant, m.params.WidthMult, m.params.DepthMult, m.params.Dropout)
	fmt.Fprintf(&b, "  stem:       %d -> %d, k%d, stride %d\n",
		inputChannels, m.params.StemChannels(), baselineStemKernel, baselineStemStride)
	for i, s := range m.stages {
		fmt.Fprintf(&b, "  stage %d:    %d -> %d, expand %.0f, k%d, stride %d, layers %d\n",
			i+1, s.InputChannels, s.OutputChannels, s.ExpandRatio, s.Kernel, s.Stride, s.NumLayers)
	}

	last := m.stages[len(m.stages)-1].OutputChannels
	fmt.Fprintf(&b, "  head:       %d -> %d\n", last, m.params.HeadChannels())
	fmt.Fprintf(&b, "  classifier: %d -> %d\n", m.params.HeadChannels(), m.numClasses)
	fmt.Fprintf(&b, "  parameters: %s\n", humanize.Comma(m.NumParams()))

	if m.entry != nil {
		fmt.Fprintf(&b, "  weights:    %s (acc@1 %.3f, acc@5 %.3f)\n",
			m.entry.Name, m.entry.Meta.Acc1, m.entry.Meta.Acc5)
	}
	return b.String()
}

// Close releases the model's native sessions. The model stays usable as
// an architecture descriptor.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.embedder != nil {
		if err := m.embedder.Close(); err != nil {
			errs = append(errs, err)
		}
		m.embedder = nil
	}
	if m.session != nil {
		if err := m.session.Close(); err != nil {
			errs = append(errs, err)
		}
		m.session = nil
	}
	return errors.Join(errs...)
}
