// Package providers - Execution provider capability negotiation.
//
// A provider is resolved once at model load time and never changes per
// call. Accelerated providers append their execution provider to the
// runtime session options; the CPU provider is the generic fallback and
// always succeeds.
package providers

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// ProviderBackend identifies a runtime execution provider.
type ProviderBackend string

// ProviderOptions is a marker interface for provider-specific config.
type ProviderOptions interface {
	isProviderOptions()
}

// ExecutionProvider represents the contract that all execution providers
// must implement.
type ExecutionProvider interface {
	// Backend returns the provider's identifier.
	Backend() ProviderBackend
	// Options returns the provider-specific configuration.
	Options() ProviderOptions
	// Apply appends the provider to the runtime session options. The CPU
	// provider is a no-op; accelerated providers fail here when the
	// platform lacks support.
	Apply(options *ort.SessionOptions) error
}

// Accelerated reports whether a backend uses specialized hardware rather
// than the generic CPU path.
func Accelerated(backend ProviderBackend) bool {
	return backend != CPUProviderBackend && backend != ""
}

// NewProvider creates a provider from its options type.
//
// Arguments:
//   - options: The provider-specific configuration options.
//
// Returns:
//   - ExecutionProvider: The new provider.
//   - error: An error if the options type is unsupported.
func NewProvider(options ProviderOptions) (ExecutionProvider, error) {
	switch opts := options.(type) {
	case CPUOptions:
		return NewCPUProvider(opts), nil
	case CoreMLOptions:
		return NewCoreMLProvider(opts), nil
	case OpenVINOOptions:
		return NewOpenVINOProvider(opts), nil
	case CUDAOptions:
		return NewCUDAProvider(opts), nil
	default:
		return nil, fmt.Errorf("unsupported provider options type: %T", opts)
	}
}

// Resolve maps a backend name to a provider with default options.
//
// Arguments:
//   - backend: The requested backend. An empty name resolves to CPU.
//
// Returns:
//   - ExecutionProvider: The resolved provider.
//   - error: An error if the backend name is unknown.
func Resolve(backend ProviderBackend) (ExecutionProvider, error) {
	switch backend {
	case CPUProviderBackend, "":
		return NewCPUProvider(CPUOptions{}), nil
	case CoreMLProviderBackend:
		return NewCoreMLProvider(CoreMLOptions{}), nil
	case OpenVINOProviderBackend:
		return NewOpenVINOProvider(OpenVINOOptions{
			DeviceType:   "CPU",
			Precision:    "FP32",
			NumOfThreads: 4,
		}), nil
	case CUDAProviderBackend:
		return NewCUDAProvider(CUDAOptions{DoCopyInDefaultStream: true}), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", backend)
	}
}
