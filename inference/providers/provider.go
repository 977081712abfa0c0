// Package providers - execution provider selection for ONNX Runtime
// sessions. A Config names the backend and its tuning options; Apply
// translates it onto native session options.
package providers

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// ProviderBackend represents an ONNX Runtime execution provider.
type ProviderBackend string

const (
	// CPUProviderBackend runs on the default CPU provider.
	CPUProviderBackend ProviderBackend = "cpu"
	// CUDAProviderBackend uses NVIDIA CUDA.
	CUDAProviderBackend ProviderBackend = "cuda"
	// CoreMLProviderBackend uses Apple CoreML.
	CoreMLProviderBackend ProviderBackend = "coreml"
	// OpenVINOProviderBackend uses Intel OpenVINO.
	OpenVINOProviderBackend ProviderBackend = "openvino"
)

// Precision represents the numeric precision a provider computes in.
type Precision string

// Supported precisions.
const (
	PrecisionFP32 Precision = "FP32"
	PrecisionFP16 Precision = "FP16"
	PrecisionINT8 Precision = "INT8"
)

// ProviderOptions is a marker interface for provider-specific config.
type ProviderOptions interface {
	isProviderOptions()
}

// Config selects and tunes the execution provider for a session.
type Config struct {
	// Backend specifies the execution provider to use.
	Backend ProviderBackend `json:"backend" yaml:"backend"`

	// Options contains provider-specific configuration options. May be nil
	// for providers with sensible defaults.
	Options ProviderOptions `json:"options,omitempty" yaml:"options,omitempty"`

	// IntraOpThreads bounds parallelism inside a single graph node.
	// 0 lets the runtime decide.
	IntraOpThreads int `json:"intra_op_threads" yaml:"intra_op_threads"`

	// InterOpThreads bounds parallelism across independent graph nodes.
	// 0 lets the runtime decide.
	InterOpThreads int `json:"inter_op_threads" yaml:"inter_op_threads"`
}

// NewConfig validates a provider configuration, defaulting to CPU.
func NewConfig(args Config) (*Config, error) {
	if args.Backend == "" {
		args.Backend = CPUProviderBackend
	}

	switch args.Backend {
	case CPUProviderBackend, CUDAProviderBackend, CoreMLProviderBackend, OpenVINOProviderBackend:
	default:
		return nil, fmt.Errorf("unsupported execution provider %q", args.Backend)
	}

	if args.IntraOpThreads < 0 || args.InterOpThreads < 0 {
		return nil, fmt.Errorf("thread counts cannot be negative")
	}

	switch opts := args.Options.(type) {
	case nil:
	case CPUOptions, CoreMLOptions:
	case CUDAOptions:
		if args.Backend != CUDAProviderBackend {
			return nil, fmt.Errorf("CUDA options given for backend %q", args.Backend)
		}
	case OpenVINOOptions:
		if args.Backend != OpenVINOProviderBackend {
			return nil, fmt.Errorf("OpenVINO options given for backend %q", args.Backend)
		}
		if err := opts.validate(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported provider options type %T", opts)
	}

	return &args, nil
}

// Apply configures native session options for the selected provider:
// threading, graph optimization level and the execution provider itself.
//
// Arguments:
//   - options: Freshly created native session options to mutate.
//
// Returns:
//   - error: An error if the provider could not be enabled.
func (c *Config) Apply(options *ort.SessionOptions) error {
	// Intra-op parallelism covers execution inside one graph node (e.g. a
	// convolution); inter-op covers independent nodes running concurrently.
	if err := options.SetIntraOpNumThreads(c.IntraOpThreads); err != nil {
		return fmt.Errorf("error setting intra-op threads: %w", err)
	}
	if err := options.SetInterOpNumThreads(c.InterOpThreads); err != nil {
		return fmt.Errorf("error setting inter-op threads: %w", err)
	}

	// Extended rewrites (fusion, constant folding) pay off on conv-heavy
	// classifier graphs.
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		return fmt.Errorf("error setting graph optimization level: %w", err)
	}

	switch c.Backend {
	case CPUProviderBackend:
		// Default provider, nothing to append.

	case CoreMLProviderBackend:
		var flags uint32
		if opts, ok := c.Options.(CoreMLOptions); ok {
			flags = opts.Flags
		}
		if err := options.AppendExecutionProviderCoreML(flags); err != nil {
			return fmt.Errorf("error enabling CoreML: %w", err)
		}

	case OpenVINOProviderBackend:
		opts, ok := c.Options.(OpenVINOOptions)
		if !ok {
			opts = OpenVINOOptions{}
		}
		if err := options.AppendExecutionProviderOpenVINO(opts.toProviderConfig()); err != nil {
			return fmt.Errorf("error enabling OpenVINO: %w", err)
		}

	case CUDAProviderBackend:
		opts, ok := c.Options.(CUDAOptions)
		if !ok {
			opts = CUDAOptions{}
		}
		cuda, err := opts.ToNativeProviderOptions()
		if err != nil {
			return fmt.Errorf("error converting CUDA options: %w", err)
		}
		defer cuda.Destroy()
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return fmt.Errorf("error enabling CUDA: %w", err)
		}

	default:
		return fmt.Errorf("unsupported execution provider %q", c.Backend)
	}

	return nil
}
