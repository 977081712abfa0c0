// Package providers - Runtime library discovery and initialization.
package providers

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// SharedLibPathEnv overrides the bundled ONNX Runtime library location.
const SharedLibPathEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// GetSharedLibPath returns the path to the ONNX Runtime shared library for
// the current platform, honoring the env override.
func GetSharedLibPath() string {
	if path := os.Getenv(SharedLibPathEnv); path != "" {
		return path
	}
	if runtime.GOOS == "windows" {
		if runtime.GOARCH == "amd64" {
			return "third_party/onnxruntime.dll"
		}
	}
	if runtime.GOOS == "darwin" {
		if runtime.GOARCH == "arm64" || runtime.GOARCH == "amd64" {
			return "third_party/libonnxruntime.dylib"
		}
	}
	if runtime.GOOS == "linux" {
		if runtime.GOARCH == "arm64" {
			return "third_party/onnxruntime_arm64.so"
		}
		return "third_party/onnxruntime.so"
	}
	panic("Unable to find a version of the onnxruntime library supporting this system.")
}

var (
	initOnce sync.Once
	initErr  error
)

// EnsureRuntime loads the native library and initializes the runtime
// environment, once per process. Safe to call from every session
// constructor.
func EnsureRuntime() error {
	initOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}

		libPath := GetSharedLibPath()
		if _, err := os.Stat(libPath); os.IsNotExist(err) {
			initErr = fmt.Errorf(
				"ONNX Runtime library not found at %s (set %s to override): %w",
				libPath, SharedLibPathEnv, err,
			)
			return
		}

		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			initErr = fmt.Errorf("error initializing ORT environment: %w", err)
		}
	})
	return initErr
}
