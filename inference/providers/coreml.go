// Package providers - Apple CoreML execution provider.
package providers

import (
	ort "github.com/yalue/onnxruntime_go"
)

const (
	// CoreMLProviderBackend uses Apple CoreML for macOS/iOS acceleration.
	CoreMLProviderBackend ProviderBackend = "coreml"
)

// CoreMLOptions contains arguments for the CoreML provider.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
type CoreMLOptions struct {
	// RequireStaticInputShapes restricts CoreML to nodes whose inputs have
	// static shapes. Dynamic shapes are allowed by default but may hurt
	// performance.
	// 0: allow dynamic shapes. 1: static shapes only. Default: 0
	RequireStaticInputShapes int `json:"requireStaticInputShapes" yaml:"requireStaticInputShapes"`
	// EnableOnSubgraphs lets CoreML run on subgraphs inside control flow
	// operators (Loop, Scan, If).
	// 0: disabled. 1: enabled. Default: 0
	EnableOnSubgraphs int `json:"enableOnSubgraphs" yaml:"enableOnSubgraphs"`
}

func (CoreMLOptions) isProviderOptions() {}

// CoreMLProvider implements the ExecutionProvider interface.
type CoreMLProvider struct {
	options CoreMLOptions
}

// Backend returns the backend of the CoreML provider.
func (p *CoreMLProvider) Backend() ProviderBackend {
	return CoreMLProviderBackend
}

// Options returns the options of the CoreML provider.
func (p *CoreMLProvider) Options() ProviderOptions {
	return p.options
}

// Apply appends the CoreML execution provider to the session options.
// Fails on platforms without CoreML support; callers fall back to the
// generic provider.
func (p *CoreMLProvider) Apply(options *ort.SessionOptions) error {
	flags := uint32(0)
	if p.options.RequireStaticInputShapes != 0 {
		flags |= 1
	}
	if p.options.EnableOnSubgraphs != 0 {
		flags |= 2
	}
	return options.AppendExecutionProviderCoreML(flags)
}

// NewCoreMLProvider creates a new CoreML provider.
func NewCoreMLProvider(options CoreMLOptions) *CoreMLProvider {
	return &CoreMLProvider{options: options}
}
