// Package providers - Intel OpenVINO execution provider.
package providers

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	// OpenVINOProviderBackend uses Intel OpenVINO for inference
	// optimization.
	OpenVINOProviderBackend ProviderBackend = "openvino"
)

// OpenVINOOptions contains arguments for the OpenVINO provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type OpenVINOOptions struct {
	DeviceID string `json:"deviceID" yaml:"deviceID"`
	// DeviceType overrides the accelerator hardware type at runtime. When
	// unset, the default hardware selected at build time is used.
	DeviceType string `json:"deviceType" yaml:"deviceType"`
	// Precision per hardware: CPU supports FP32; GPU supports FP32, FP16
	// and ACCURACY; NPU supports FP16. ACCURACY keeps the model's default
	// input precision.
	Precision string `json:"precision" yaml:"precision"`
	// NumOfThreads overrides the accelerator's default thread count.
	NumOfThreads int `json:"numOfThreads" yaml:"numOfThreads"`
	// DisableDynamicShapes rewrites dynamic shaped models to static shape
	// at runtime.
	DisableDynamicShapes bool `json:"disableDynamicShapes" yaml:"disableDynamicShapes"`
	// ModelPriority configures which models get the best resource
	// allocation.
	ModelPriority int `json:"modelPriority" yaml:"modelPriority"`
}

func (OpenVINOOptions) isProviderOptions() {}

// OpenVINOProvider implements the ExecutionProvider interface.
type OpenVINOProvider struct {
	options OpenVINOOptions
}

// Backend returns the backend of the OpenVINO provider.
func (p *OpenVINOProvider) Backend() ProviderBackend {
	return OpenVINOProviderBackend
}

// Options returns the options of the OpenVINO provider.
func (p *OpenVINOProvider) Options() ProviderOptions {
	return p.options
}

// Apply appends the OpenVINO execution provider to the session options.
func (p *OpenVINOProvider) Apply(options *ort.SessionOptions) error {
	return options.AppendExecutionProviderOpenVINO(map[string]string{
		"device_id":              p.options.DeviceID,
		"device_type":            p.options.DeviceType,
		"precision":              p.options.Precision,
		"num_of_threads":         fmt.Sprintf("%d", p.options.NumOfThreads),
		"disable_dynamic_shapes": fmt.Sprintf("%t", p.options.DisableDynamicShapes),
		"model_priority":         fmt.Sprintf("%d", p.options.ModelPriority),
	})
}

// NewOpenVINOProvider creates a new OpenVINO provider.
func NewOpenVINOProvider(options OpenVINOOptions) *OpenVINOProvider {
	return &OpenVINOProvider{options: options}
}
