// Package inference - ONNX Runtime sessions for classification graphs, with
// preallocated tensors and rolling latency accounting.
package inference

import (
	"context"
	"fmt"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-efficientnet/inference/providers"
)

// Default tensor node names of the module's checkpoint exports.
const (
	DefaultInputName  = "input"
	DefaultOutputName = "logits"
)

// SessionArgs represents the arguments for creating a new session.
type SessionArgs struct {
	// The path to the ONNX model file.
	ModelPath string
	// InputName is the graph's input node name. Defaults to "input".
	InputName string
	// OutputName is the graph's output node name. Defaults to "logits".
	OutputName string
	// InputShape sizes the preallocated input tensor, e.g. [1,3,224,224].
	InputShape []int64
	// OutputShape sizes the preallocated output tensor, e.g. [1,1000].
	OutputShape []int64
	// Provider selects and tunes the execution provider. Nil runs on CPU.
	Provider *providers.Config
}

// Metrics summarizes a session's inference history.
type Metrics struct {
	// InferenceCount is the number of completed Run calls.
	InferenceCount int64
	// TotalTime is the summed wall time of all runs.
	TotalTime time.Duration
	// AverageLatency is TotalTime divided by InferenceCount.
	AverageLatency time.Duration
	// Throughput is the average in runs per second.
	Throughput float64
}

// Session wraps a native runtime session with fixed-shape input and output
// tensors. Data flows by writing into Input(), calling Run, and reading
// Output(); the buffers are reused across runs.
type Session struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]

	mu             sync.Mutex
	inferenceCount int64
	totalTime      time.Duration
}

// NewSession creates a runtime session with preallocated tensors.
//
// Order of operations:
//  1. Runtime init: loads the native library once per process.
//  2. Tensor allocation: fixed-shape input/output buffers bound for
//     zero-copy exchange with the graph.
//  3. Session options: threading, graph optimization and the execution
//     provider from the provider config.
//  4. Session creation: loads the model and binds the tensors.
//
// Arguments:
//   - args: Model path, node names, tensor shapes and provider config.
//
// Returns:
//   - *Session: The runnable session; Close it to release native memory.
//   - error: An error if the runtime, tensors or session could not be set up.
func NewSession(args SessionArgs) (*Session, error) {
	if err := providers.EnsureRuntime(); err != nil {
		return nil, err
	}

	if args.ModelPath == "" {
		return nil, fmt.Errorf("model path is required")
	}
	if len(args.InputShape) == 0 || len(args.OutputShape) == 0 {
		return nil, fmt.Errorf("input and output shapes are required")
	}
	if args.InputName == "" {
		args.InputName = DefaultInputName
	}
	if args.OutputName == "" {
		args.OutputName = DefaultOutputName
	}

	provider := args.Provider
	if provider == nil {
		var err error
		provider, err = providers.NewConfig(providers.Config{})
		if err != nil {
			return nil, err
		}
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(args.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(args.OutputShape...))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("error creating output tensor: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("error creating ORT session options: %w", err)
	}
	defer options.Destroy()

	if err := provider.Apply(options); err != nil {
		input.Destroy()
		output.Destroy()
		return nil, err
	}

	session, err := ort.NewAdvancedSession(
		args.ModelPath,
		[]string{args.InputName},
		[]string{args.OutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("error creating ORT session: %w", err)
	}

	return &Session{
		session: session,
		input:   input,
		output:  output,
	}, nil
}

// Input exposes the input tensor's backing slice. Fill it before Run.
func (s *Session) Input() []float32 {
	return s.input.GetData()
}

// Output exposes the output tensor's backing slice, valid after Run until
// the next Run.
func (s *Session) Output() []float32 {
	return s.output.GetData()
}

// Run executes the graph over the current input buffer. Runs are serialized;
// a cancelled context returns before touching the native session.
func (s *Session) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if err := s.session.Run(); err != nil {
		return fmt.Errorf("inference failed: %w", err)
	}

	s.inferenceCount++
	s.totalTime += time.Since(start)
	return nil
}

// Metrics returns the session's latency counters.
func (s *Session) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := Metrics{
		InferenceCount: s.inferenceCount,
		TotalTime:      s.totalTime,
	}
	if s.inferenceCount > 0 {
		m.AverageLatency = s.totalTime / time.Duration(s.inferenceCount)
		if s.totalTime > 0 {
			m.Throughput = float64(s.inferenceCount) / s.totalTime.Seconds()
		}
	}
	return m
}

// ResetMetrics clears the latency counters.
func (s *Session) ResetMetrics() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inferenceCount = 0
	s.totalTime = 0
}

// Close releases the native session and tensors. The session goes first,
// it references the tensors.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var destroyErr error
	if s.session != nil {
		destroyErr = s.session.Destroy()
		s.session = nil
	}
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	if destroyErr != nil {
		return fmt.Errorf("error destroying ORT session: %w", destroyErr)
	}
	return nil
}
