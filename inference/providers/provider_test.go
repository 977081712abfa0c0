package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfigDefaultsToCPU tests that an empty config resolves to CPU.
func TestNewConfigDefaultsToCPU(t *testing.T) {
	cfg, err := NewConfig(Config{})
	require.NoError(t, err, "Empty config should be valid")
	assert.Equal(t, CPUProviderBackend, cfg.Backend, "Default backend should be CPU")
}

// TestNewConfigRejectsUnknownBackend tests the backend whitelist.
func TestNewConfigRejectsUnknownBackend(t *testing.T) {
	_, err := NewConfig(Config{Backend: "tpu"})
	require.Error(t, err, "Unknown backends should be rejected")
	assert.Contains(t, err.Error(), "tpu", "Error should name the backend")
}

// TestNewConfigRejectsNegativeThreads tests thread count validation.
func TestNewConfigRejectsNegativeThreads(t *testing.T) {
	_, err := NewConfig(Config{IntraOpThreads: -1})
	assert.Error(t, err, "Negative intra-op threads should be rejected")

	_, err = NewConfig(Config{InterOpThreads: -2})
	assert.Error(t, err, "Negative inter-op threads should be rejected")
}

// TestNewConfigRejectsMismatchedOptions tests the backend/options cross
// check.
func TestNewConfigRejectsMismatchedOptions(t *testing.T) {
	_, err := NewConfig(Config{
		Backend: CPUProviderBackend,
		Options: CUDAOptions{DeviceID: 1},
	})
	assert.Error(t, err, "CUDA options on the CPU backend should be rejected")

	_, err = NewConfig(Config{
		Backend: CUDAProviderBackend,
		Options: OpenVINOOptions{DeviceType: "GPU"},
	})
	assert.Error(t, err, "OpenVINO options on the CUDA backend should be rejected")
}

// TestNewConfigAcceptsMatchingOptions tests well-formed provider configs.
func TestNewConfigAcceptsMatchingOptions(t *testing.T) {
	cfg, err := NewConfig(Config{
		Backend: CUDAProviderBackend,
		Options: CUDAOptions{DeviceID: 0, GPUMemLimit: 1 << 30},
	})
	require.NoError(t, err, "Matching CUDA options should pass")
	assert.Equal(t, CUDAProviderBackend, cfg.Backend)

	cfg, err = NewConfig(Config{
		Backend: OpenVINOProviderBackend,
		Options: OpenVINOOptions{DeviceType: "CPU", Precision: PrecisionFP16},
	})
	require.NoError(t, err, "Matching OpenVINO options should pass")
	assert.Equal(t, OpenVINOProviderBackend, cfg.Backend)
}

// TestNewConfigRejectsBadOpenVINOPrecision tests precision validation.
func TestNewConfigRejectsBadOpenVINOPrecision(t *testing.T) {
	_, err := NewConfig(Config{
		Backend: OpenVINOProviderBackend,
		Options: OpenVINOOptions{Precision: "FP8"},
	})
	require.Error(t, err, "Unsupported precision should be rejected")
	assert.Contains(t, err.Error(), "FP8", "Error should name the precision")
}

// TestOpenVINOProviderConfigOmitsUnset tests the rendered option map.
func TestOpenVINOProviderConfigOmitsUnset(t *testing.T) {
	config := OpenVINOOptions{}.toProviderConfig()
	assert.Empty(t, config, "Zero options should render an empty map")

	config = OpenVINOOptions{
		DeviceType:           "GPU",
		Precision:            PrecisionFP16,
		NumOfThreads:         4,
		DisableDynamicShapes: true,
	}.toProviderConfig()
	assert.Equal(t, map[string]string{
		"device_type":            "GPU",
		"precision":              "FP16",
		"num_of_threads":         "4",
		"disable_dynamic_shapes": "true",
	}, config, "Set options should render with native keys")
}

// TestGetSharedLibPathHonorsOverride tests the env var override.
func TestGetSharedLibPathHonorsOverride(t *testing.T) {
	t.Setenv(SharedLibPathEnv, "/opt/custom/libonnxruntime.so")
	assert.Equal(t, "/opt/custom/libonnxruntime.so", GetSharedLibPath(),
		"Env override should win over platform defaults")
}
