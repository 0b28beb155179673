package inference

import (
	"fmt"
	"os"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/vision-ai-lab/go-classify/inference/providers"
)

// runner is the adapter's seam to the native runtime: it owns the
// preallocated input and output buffers and executes the loaded graph.
type runner interface {
	// Run executes the graph against the current input buffer contents.
	Run() error
	// InputData exposes the input tensor's backing buffer for filling.
	InputData() []float32
	// OutputData exposes the backing buffer of the output at index.
	OutputData(index int) []float32
	// Close releases native resources deterministically.
	Close() error
}

// ortRunner wraps an onnxruntime session with preallocated tensors bound
// for zero-copy data exchange.
type ortRunner struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	outputs []*ort.Tensor[float32]
}

// newORTRunner loads a serialized graph and binds fixed-shape tensors.
//
// Order of operations mirrors the runtime's requirements: environment
// setup, tensor allocation, session options, execution provider, session
// creation. Provider failures are reported as ErrBackendUnavailable so the
// caller can retry on the generic backend; everything else is ErrModelLoad.
//
// Arguments:
//   - modelBytes: The serialized model graph.
//   - cfg: The validated load-time configuration.
//   - provider: The resolved execution provider.
//
// Returns:
//   - *ortRunner: The bound runner. Cleanup via Close.
//   - error: ErrBackendUnavailable or ErrModelLoad.
func newORTRunner(modelBytes []byte, cfg Config, provider providers.ExecutionProvider) (*ortRunner, error) {
	if !ort.IsInitialized() {
		libPath := providers.GetSharedLibPath()
		if _, err := os.Stat(libPath); err == nil {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("%w: initializing runtime environment: %v", ErrModelLoad, err)
		}
	}

	var inputShape ort.Shape
	if cfg.ChannelOrder == ChannelFirst {
		inputShape = ort.NewShape(1, 3, int64(cfg.InputHeight), int64(cfg.InputWidth))
	} else {
		inputShape = ort.NewShape(1, int64(cfg.InputHeight), int64(cfg.InputWidth), 3)
	}

	input, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("%w: creating input tensor: %v", ErrModelLoad, err)
	}

	outputs := make([]*ort.Tensor[float32], 0, len(cfg.OutputNames))
	destroyAll := func() {
		input.Destroy()
		for _, o := range outputs {
			o.Destroy()
		}
	}
	for range cfg.OutputNames {
		output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.ClassCount)))
		if err != nil {
			destroyAll()
			return nil, fmt.Errorf("%w: creating output tensor: %v", ErrModelLoad, err)
		}
		outputs = append(outputs, output)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		destroyAll()
		return nil, fmt.Errorf("%w: creating session options: %v", ErrModelLoad, err)
	}
	defer options.Destroy()

	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	if err := provider.Apply(options); err != nil {
		destroyAll()
		return nil, fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, provider.Backend(), err)
	}

	arbitraryOutputs := make([]ort.ArbitraryTensor, len(outputs))
	for i, o := range outputs {
		arbitraryOutputs[i] = o
	}

	session, err := ort.NewAdvancedSessionWithONNXData(
		modelBytes,
		[]string{cfg.InputName},
		cfg.OutputNames,
		[]ort.ArbitraryTensor{input},
		arbitraryOutputs,
		options,
	)
	if err != nil {
		destroyAll()
		return nil, fmt.Errorf("%w: creating session: %v", ErrModelLoad, err)
	}

	return &ortRunner{
		session: session,
		input:   input,
		outputs: outputs,
	}, nil
}

func (r *ortRunner) Run() error {
	return r.session.Run()
}

func (r *ortRunner) InputData() []float32 {
	return r.input.GetData()
}

func (r *ortRunner) OutputData(index int) []float32 {
	return r.outputs[index].GetData()
}

// Close releases the tensors and session. Safe to call once; the adapter
// guards against double close.
func (r *ortRunner) Close() error {
	if r.input != nil {
		r.input.Destroy()
		r.input = nil
	}
	for _, o := range r.outputs {
		o.Destroy()
	}
	r.outputs = nil

	if r.session != nil {
		if err := r.session.Destroy(); err != nil {
			return fmt.Errorf("error destroying session: %w", err)
		}
		r.session = nil
	}
	return nil
}
