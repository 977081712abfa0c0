// Package providers - Intel OpenVINO execution provider.
package providers

import "fmt"

// OpenVINOOptions contains arguments for the OpenVINO provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type OpenVINOOptions struct {
	// DeviceType selects the OpenVINO device, e.g. "CPU", "GPU", "NPU" or a
	// heterogeneous spec like "HETERO:GPU,CPU". Empty uses the default.
	DeviceType string `json:"device_type"            yaml:"device_type"`
	// Precision of execution: FP32, FP16 or INT8 depending on the device.
	Precision Precision `json:"precision"              yaml:"precision"`
	// NumOfThreads bounds the provider's thread pool. Zero uses the default.
	NumOfThreads int `json:"num_of_threads"         yaml:"num_of_threads"`
	// CacheDir enables compiled-model caching when set, cutting session
	// startup on subsequent loads.
	CacheDir string `json:"cache_dir"              yaml:"cache_dir"`
	// DisableDynamicShapes forces static shape execution. Classifier inputs
	// are fixed-shape so this is usually a free win on OpenVINO.
	DisableDynamicShapes bool `json:"disable_dynamic_shapes" yaml:"disable_dynamic_shapes"`
}

func (o OpenVINOOptions) validate() error {
	switch o.Precision {
	case "", PrecisionFP32, PrecisionFP16, PrecisionINT8:
		return nil
	default:
		return fmt.Errorf("unsupported OpenVINO precision %q", o.Precision)
	}
}

// toProviderConfig renders the options as the string map the native
// provider consumes, omitting unset values.
func (o OpenVINOOptions) toProviderConfig() map[string]string {
	config := map[string]string{}
	if o.DeviceType != "" {
		config["device_type"] = o.DeviceType
	}
	if o.Precision != "" {
		config["precision"] = string(o.Precision)
	}
	if o.NumOfThreads > 0 {
		config["num_of_threads"] = fmt.Sprintf("%d", o.NumOfThreads)
	}
	if o.CacheDir != "" {
		config["cache_dir"] = o.CacheDir
	}
	if o.DisableDynamicShapes {
		config["disable_dynamic_shapes"] = "true"
	}
	return config
}

// isProviderOptions is a marker function to ensure the options are valid.
func (OpenVINOOptions) isProviderOptions() {}
