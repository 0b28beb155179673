package inference

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vision-ai-lab/go-classify/inference/providers"
	"github.com/vision-ai-lab/go-classify/preprocess"
)

// ChannelOrder is the memory layout of the model's input tensor.
type ChannelOrder string

const (
	// ChannelFirst is channel-height-width ordering (NCHW, common for ONNX).
	ChannelFirst ChannelOrder = "chw"
	// ChannelLast is height-width-channel ordering (NHWC).
	ChannelLast ChannelOrder = "hwc"
)

// Config fixes the adapter's load-time choices. Backend and channel order
// are configuration resolved once at load, never changeable per call.
//
// The struct doubles as the model's metadata document: the demo ships a
// JSON file next to each model asset describing its input geometry,
// normalization constants, and output layout.
type Config struct {
	// InputWidth is the width of the model's input tensor.
	InputWidth int `json:"inputWidth" yaml:"inputWidth"`
	// InputHeight is the height of the model's input tensor.
	InputHeight int `json:"inputHeight" yaml:"inputHeight"`
	// ChannelOrder is the input tensor layout. Defaults to ChannelFirst.
	ChannelOrder ChannelOrder `json:"channelOrder" yaml:"channelOrder"`
	// ClassCount is the number of classes in the model's score vector.
	ClassCount int `json:"classCount" yaml:"classCount"`
	// InputName is the graph's input node name. Defaults to "input".
	InputName string `json:"inputName" yaml:"inputName"`
	// OutputNames are the graph's declared output node names. Defaults to
	// ["output"].
	OutputNames []string `json:"outputNames" yaml:"outputNames"`
	// OutputIndex selects which declared output carries the class scores.
	OutputIndex int `json:"outputIndex" yaml:"outputIndex"`
	// OutputsProbabilities declares that the graph already ends in a
	// probability distribution. When false a softmax stage is appended at
	// load time so execution always returns probabilities.
	OutputsProbabilities bool `json:"outputsProbabilities" yaml:"outputsProbabilities"`
	// Backend is the requested execution provider. Defaults to the generic
	// CPU backend; unavailable accelerated backends fall back to it.
	Backend providers.ProviderBackend `json:"backend" yaml:"backend"`
	// Normalization carries the per-channel constants the model was
	// trained with. Consumed by the preprocessing stage, stored here so
	// the model asset and its constants travel together.
	Normalization preprocess.NormalizationParams `json:"normalization" yaml:"normalization"`
	// MinConfidence is the decode threshold below which the label is
	// reported as the sentinel "none".
	MinConfidence float32 `json:"minConfidence" yaml:"minConfidence"`
}

// LoadConfig reads a model metadata document from disk.
//
// Arguments:
//   - path: The metadata JSON path.
//
// Returns:
//   - Config: The parsed configuration with defaults applied.
//   - error: ErrModelLoad if the document is unreadable or invalid.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: reading metadata: %v", ErrModelLoad, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing metadata: %v", ErrModelLoad, err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalize applies defaults and validates the load-time invariants.
func (c *Config) normalize() error {
	if c.InputName == "" {
		c.InputName = "input"
	}
	if len(c.OutputNames) == 0 {
		c.OutputNames = []string{"output"}
	}
	if c.ChannelOrder == "" {
		c.ChannelOrder = ChannelFirst
	}
	if c.Backend == "" {
		c.Backend = providers.CPUProviderBackend
	}

	if c.InputWidth <= 0 || c.InputHeight <= 0 {
		return fmt.Errorf("%w: invalid input dimensions %dx%d",
			ErrModelLoad, c.InputWidth, c.InputHeight)
	}
	if c.ClassCount <= 0 {
		return fmt.Errorf("%w: class count must be positive, got %d",
			ErrModelLoad, c.ClassCount)
	}
	if c.ChannelOrder != ChannelFirst && c.ChannelOrder != ChannelLast {
		return fmt.Errorf("%w: unknown channel order %q", ErrModelLoad, c.ChannelOrder)
	}
	if c.OutputIndex < 0 || c.OutputIndex >= len(c.OutputNames) {
		return fmt.Errorf("%w: output index %d out of range for %d declared outputs",
			ErrModelLoad, c.OutputIndex, len(c.OutputNames))
	}
	return nil
}
