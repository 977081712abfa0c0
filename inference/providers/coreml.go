// Package providers - Apple CoreML execution provider.
package providers

// CoreML provider flag bits, combined into CoreMLOptions.Flags.
// See:
// https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
const (
	// CoreMLFlagUseCPUOnly restricts CoreML to the CPU compute unit.
	CoreMLFlagUseCPUOnly uint32 = 0x001
	// CoreMLFlagOnlyEnableDeviceWithANE only enables CoreML on devices with
	// an Apple Neural Engine.
	CoreMLFlagOnlyEnableDeviceWithANE uint32 = 0x004
	// CoreMLFlagCreateMLProgram creates an MLProgram format model, requiring
	// Core ML 5 or later.
	CoreMLFlagCreateMLProgram uint32 = 0x010
)

// CoreMLOptions contains arguments for the CoreML provider.
type CoreMLOptions struct {
	// Flags is a bitwise OR of the CoreMLFlag constants. Zero accepts the
	// provider defaults.
	Flags uint32 `json:"flags" yaml:"flags"`
}

// isProviderOptions is a marker function to ensure the options are valid.
func (CoreMLOptions) isProviderOptions() {}
