// Package providers - CPU based execution provider.
package providers

import (
	ort "github.com/yalue/onnxruntime_go"
)

const (
	// CPUProviderBackend is the generic execution provider. Always
	// available; every accelerated backend degrades to it.
	CPUProviderBackend ProviderBackend = "cpu"
)

// CPUOptions contains arguments for the CPU provider.
type CPUOptions struct {
	// IntraOpThreads parallelizes execution inside graph nodes. Zero uses
	// the runtime default.
	IntraOpThreads int `json:"intraOpThreads" yaml:"intraOpThreads"`
	// InterOpThreads parallelizes execution across independent graph nodes.
	// Zero uses the runtime default.
	InterOpThreads int `json:"interOpThreads" yaml:"interOpThreads"`
}

func (CPUOptions) isProviderOptions() {}

// CPUProvider implements the ExecutionProvider interface.
type CPUProvider struct {
	options CPUOptions
}

// Backend returns the backend of the CPU provider.
func (p *CPUProvider) Backend() ProviderBackend {
	return CPUProviderBackend
}

// Options returns the options of the CPU provider.
func (p *CPUProvider) Options() ProviderOptions {
	return p.options
}

// Apply configures threading on the session options. The generic backend
// never fails.
func (p *CPUProvider) Apply(options *ort.SessionOptions) error {
	if p.options.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(p.options.IntraOpThreads); err != nil {
			return err
		}
	}
	if p.options.InterOpThreads > 0 {
		if err := options.SetInterOpNumThreads(p.options.InterOpThreads); err != nil {
			return err
		}
	}
	return nil
}

// NewCPUProvider creates a new CPU provider.
func NewCPUProvider(options CPUOptions) *CPUProvider {
	return &CPUProvider{options: options}
}
