// Package providers - NVIDIA CUDA execution provider.
package providers

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	// CUDAProviderBackend uses NVIDIA CUDA for inference acceleration.
	CUDAProviderBackend ProviderBackend = "cuda"
)

// CUDAOptions contains arguments for the CUDA provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/CUDA-ExecutionProvider.html#configuration-options
type CUDAOptions struct {
	// DeviceID selects the GPU.
	DeviceID int `json:"deviceID" yaml:"deviceID"`
	// DoCopyInDefaultStream controls whether copies run on the default
	// stream. The recommended setting is true; false risks race conditions
	// for possibly better performance.
	DoCopyInDefaultStream bool `json:"doCopyInDefaultStream" yaml:"doCopyInDefaultStream"`
	// GPUMemLimit caps the provider's device memory arena in bytes. Total
	// device memory usage may be higher.
	GPUMemLimit int64 `json:"gpuMemLimit" yaml:"gpuMemLimit"`
	// ArenaExtendStrategy picks how the arena grows.
	// 0: kNextPowerOfTwo. 1: kSameAsRequested.
	ArenaExtendStrategy int `json:"arenaExtendStrategy" yaml:"arenaExtendStrategy"`
	// CudnnConvAlgoSearch selects the cuDNN convolution algorithm search.
	// 0: EXHAUSTIVE. 1: HEURISTIC. 2: DEFAULT.
	CudnnConvAlgoSearch int `json:"cudnnConvAlgoSearch" yaml:"cudnnConvAlgoSearch"`
	// PreferNHWC makes the provider prefer NHWC operators over NCHW, with
	// layout transformations applied to the model automatically.
	PreferNHWC int `json:"preferNHWC" yaml:"preferNHWC"`
}

func (CUDAOptions) isProviderOptions() {}

// ToNativeProviderOptions converts the options into the runtime's CUDA
// provider options.
func (o *CUDAOptions) ToNativeProviderOptions() (*ort.CUDAProviderOptions, error) {
	opts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return nil, err
	}

	err = opts.Update(map[string]string{
		"device_id":                 fmt.Sprintf("%d", o.DeviceID),
		"do_copy_in_default_stream": boolFlag(o.DoCopyInDefaultStream),
		"gpu_mem_limit":             fmt.Sprintf("%d", o.GPUMemLimit),
		"arena_extend_strategy":     fmt.Sprintf("%d", o.ArenaExtendStrategy),
		"cudnn_conv_algo_search":    fmt.Sprintf("%d", o.CudnnConvAlgoSearch),
		"prefer_nhwc":               fmt.Sprintf("%d", o.PreferNHWC),
	})
	if err != nil {
		opts.Destroy()
		return nil, err
	}
	return opts, nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// CUDAProvider implements the ExecutionProvider interface.
type CUDAProvider struct {
	options CUDAOptions
}

// Backend returns the backend of the CUDA provider.
func (p *CUDAProvider) Backend() ProviderBackend {
	return CUDAProviderBackend
}

// Options returns the options of the CUDA provider.
func (p *CUDAProvider) Options() ProviderOptions {
	return p.options
}

// Apply appends the CUDA execution provider to the session options.
func (p *CUDAProvider) Apply(options *ort.SessionOptions) error {
	cuda, err := p.options.ToNativeProviderOptions()
	if err != nil {
		return err
	}
	defer cuda.Destroy()
	return options.AppendExecutionProviderCUDA(cuda)
}

// NewCUDAProvider creates a new CUDA provider.
func NewCUDAProvider(options CUDAOptions) *CUDAProvider {
	return &CUDAProvider{options: options}
}
