// Package efficientnet - EfficientNet B0-B7 image classifiers for Go.
//
// Each variant is constructed by its factory (B0 through B7) from the
// family's compound-scaling tables. Pretrained ImageNet-1K checkpoints are
// published as named, versioned weight entries carrying their eval
// transform and accuracy metadata; passing one to a factory fetches the
// checkpoint into the local cache and opens an ONNX Runtime session over
// it. Without weights the factories return architecture descriptors.
package efficientnet

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-efficientnet/hub"
	"github.com/nvr-ai/go-efficientnet/images"
	"github.com/nvr-ai/go-efficientnet/imagenet"
	"github.com/nvr-ai/go-efficientnet/inference"
	"github.com/nvr-ai/go-efficientnet/inference/providers"
	"github.com/nvr-ai/go-efficientnet/weights"
)

// DefaultTopK is the prediction count returned by Classify when Options
// leaves TopK unset.
const DefaultTopK = 5

// Options configures a factory call. The zero value builds a weightless
// 1000-class architecture descriptor.
type Options struct {
	// Weights selects the pretrained entry to load. Nil builds the bare
	// architecture unless Pretrained is set.
	Weights *weights.Entry

	// Pretrained loads the variant's default weight entry.
	//
	// Deprecated: set Weights explicitly, e.g. weights.B0ImageNet1KTimmV1.
	Pretrained bool

	// NumClasses is the classifier output width. Zero means inferred: the
	// weight entry's category count when loading weights, 1000 otherwise.
	NumClasses int

	// CacheDir overrides the checkpoint cache location.
	CacheDir string

	// DisableProgress silences the download progress bar.
	DisableProgress bool

	// TopK bounds the predictions returned by Classify. Zero means
	// DefaultTopK.
	TopK int

	// Provider selects the execution provider. Nil runs on CPU.
	Provider *providers.Config
}

// New builds a model of the given variant.
//
// The build resolves in order: the deprecated Pretrained flag (mapped to
// the variant's default weight entry when Weights is nil), verification
// that the entry belongs to the variant, class-count inference, stage
// scaling, and finally the optional checkpoint fetch and session open.
//
// Arguments:
//   - ctx: Governs the checkpoint download, cancellation aborts the fetch.
//   - variant: Family member to build, e.g. VariantB0.
//   - opts: Build options, nil for a weightless 1000-class descriptor.
//
// Returns:
//   - *Model: The constructed model, Close it when weights were loaded.
//   - error: An error for unknown variants, foreign or conflicting weight
//     options, or a failed fetch/session open.
func New(ctx context.Context, variant Variant, opts *Options) (*Model, error) {
	if opts == nil {
		opts = &Options{}
	}

	params, err := variant.Params()
	if err != nil {
		return nil, err
	}

	entry := opts.Weights
	if opts.Pretrained {
		if entry != nil {
			logrus.WithField("weights", entry.Name).
				Warn("the Pretrained option is deprecated and ignored because Weights is set")
		} else {
			entry, err = weights.Default(variant.String())
			if err != nil {
				return nil, err
			}
			logrus.WithFields(logrus.Fields{
				"variant": variant,
				"weights": entry.Name,
			}).Warn("the Pretrained option is deprecated, set Weights explicitly")
		}
	}

	if entry != nil {
		if err := entry.Verify(variant.String()); err != nil {
			return nil, err
		}
	}

	numClasses := opts.NumClasses
	if entry != nil {
		n := entry.NumClasses()
		switch {
		case numClasses == 0:
			numClasses = n
		case numClasses != n:
			return nil, fmt.Errorf("weights %s define %d classes but NumClasses is %d",
				entry.Name, n, numClasses)
		}
	} else if numClasses == 0 {
		numClasses = imagenet.NumCategories
	}

	var categories []string
	switch {
	case entry != nil:
		categories = entry.Meta.Categories
	case numClasses == imagenet.NumCategories:
		categories = imagenet.Categories
	}

	transform := evalTransform(params)
	if entry != nil {
		transform = entry.Transform
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > numClasses {
		topK = numClasses
	}

	m := &Model{
		variant:    variant,
		params:     params,
		stages:     params.Stages(),
		numClasses: numClasses,
		categories: categories,
		entry:      entry,
		transform:  transform,
		topK:       topK,
		provider:   opts.Provider,
	}

	if entry == nil {
		return m, nil
	}

	path, err := hub.Fetch(ctx, entry, &hub.Options{
		CacheDir:        opts.CacheDir,
		DisableProgress: opts.DisableProgress,
	})
	if err != nil {
		return nil, err
	}
	m.checkpointPath = path

	crop := int64(transform.CropSize)
	session, err := inference.NewSession(inference.SessionArgs{
		ModelPath:   path,
		InputShape:  []int64{1, 3, crop, crop},
		OutputShape: []int64{1, int64(numClasses)},
		Provider:    opts.Provider,
	})
	if err != nil {
		return nil, err
	}
	m.session = session

	logrus.WithFields(logrus.Fields{
		"variant": variant,
		"weights": entry.Name,
		"classes": numClasses,
	}).Debug("model ready")
	return m, nil
}

// evalTransform is the preprocessing used when no weight entry supplies
// one: bicubic resize and center crop at the variant's training
// resolution with the ImageNet normalization stats.
func evalTransform(p Params) images.Transform {
	return images.Transform{
		CropSize:      p.TrainSize,
		ResizeSize:    p.TrainSize,
		Interpolation: images.InterpolationBicubic,
		Mean:          imagenet.Mean,
		Std:           imagenet.Std,
	}
}

// B0 builds an EfficientNet-B0 (224px, 5.3M parameters).
func B0(ctx context.Context, opts *Options) (*Model, error) {
	return New(ctx, VariantB0, opts)
}

// B1 builds an EfficientNet-B1 (240px, 7.8M parameters).
func B1(ctx context.Context, opts *Options) (*Model, error) {
	return New(ctx, VariantB1, opts)
}

// B2 builds an EfficientNet-B2 (288px, 9.1M parameters).
func B2(ctx context.Context, opts *Options) (*Model, error) {
	return New(ctx, VariantB2, opts)
}

// B3 builds an EfficientNet-B3 (300px, 12.2M parameters).
func B3(ctx context.Context, opts *Options) (*Model, error) {
	return New(ctx, VariantB3, opts)
}

// B4 builds an EfficientNet-B4 (380px, 19.3M parameters).
func B4(ctx context.Context, opts *Options) (*Model, error) {
	return New(ctx, VariantB4, opts)
}

// B5 builds an EfficientNet-B5 (456px, 30.4M parameters).
func B5(ctx context.Context, opts *Options) (*Model, error) {
	return New(ctx, VariantB5, opts)
}

// B6 builds an EfficientNet-B6 (528px, 43.0M parameters).
func B6(ctx context.Context, opts *Options) (*Model, error) {
	return New(ctx, VariantB6, opts)
}

// B7 builds an EfficientNet-B7 (600px, 66.3M parameters).
func B7(ctx context.Context, opts *Options) (*Model, error) {
	return New(ctx, VariantB7, opts)
}
