// Package providers - NVIDIA CUDA execution provider.
package providers

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// CUDAOptions contains arguments for the CUDA provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/CUDA-ExecutionProvider.html#configuration-options
type CUDAOptions struct {
	// The device ID.
	DeviceID int `json:"device_id"                yaml:"device_id"`
	// The size limit of the device memory arena in bytes. Zero means
	// unlimited. This limit only covers the provider's arena; total device
	// memory usage may be higher.
	GPUMemLimit int64 `json:"gpu_mem_limit"            yaml:"gpu_mem_limit"`
	// The strategy for extending the device memory arena.
	// 0: kNextPowerOfTwo - extensions grow by powers of two
	// 1: kSameAsRequested - extend by the requested amount
	ArenaExtendStrategy int `json:"arena_extend_strategy"    yaml:"arena_extend_strategy"`
	// The search performed for cuDNN convolution algorithms.
	// 0: EXHAUSTIVE - benchmark every algorithm
	// 1: HEURISTIC - lightweight heuristic search
	// 2: DEFAULT - fixed implicit precomputed GEMM
	CudnnConvAlgoSearch int `json:"cudnn_conv_algo_search"   yaml:"cudnn_conv_algo_search"`
	// Whether to do copies in the default stream. The recommended setting
	// is true; false risks race conditions for possibly better performance.
	DoCopyInDefaultStream bool `json:"do_copy_in_default_stream" yaml:"do_copy_in_default_stream"`
	// Captures the classifier graph into a CUDA graph, cutting launch
	// overhead for fixed-shape inputs.
	EnableCudaGraph bool `json:"enable_cuda_graph"        yaml:"enable_cuda_graph"`
	// TF32 runs float32 matmuls and convolutions on tensor cores with
	// reduced mantissa precision, available since Ampere.
	UseTF32 bool `json:"use_tf32"                 yaml:"use_tf32"`
	// Prefer NHWC operators over NCHW, applying layout transformations to
	// the model automatically.
	PreferNHWC bool `json:"prefer_nhwc"              yaml:"prefer_nhwc"`
}

// ToNativeProviderOptions converts the options into their native form. The
// caller owns the returned value and must Destroy it.
func (o *CUDAOptions) ToNativeProviderOptions() (*ort.CUDAProviderOptions, error) {
	opts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return nil, err
	}

	config := map[string]string{
		"device_id":                 fmt.Sprintf("%d", o.DeviceID),
		"arena_extend_strategy":     fmt.Sprintf("%d", o.ArenaExtendStrategy),
		"cudnn_conv_algo_search":    fmt.Sprintf("%d", o.CudnnConvAlgoSearch),
		"do_copy_in_default_stream": fmt.Sprintf("%d", boolToInt(o.DoCopyInDefaultStream)),
		"enable_cuda_graph":         fmt.Sprintf("%d", boolToInt(o.EnableCudaGraph)),
		"use_tf32":                  fmt.Sprintf("%d", boolToInt(o.UseTF32)),
		"prefer_nhwc":               fmt.Sprintf("%d", boolToInt(o.PreferNHWC)),
	}
	if o.GPUMemLimit > 0 {
		config["gpu_mem_limit"] = fmt.Sprintf("%d", o.GPUMemLimit)
	}

	if err := opts.Update(config); err != nil {
		opts.Destroy()
		return nil, err
	}
	return opts, nil
}

// isProviderOptions is a marker function to ensure the options are valid.
func (CUDAOptions) isProviderOptions() {}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
