// Package preprocess - Per-channel normalization of image buffers.
//
// Normalization is a pure transform: the source buffer is never mutated and
// every call writes into a fresh output destination. Two interchangeable
// execution paths produce identical numeric results; the batched path
// operates on the whole buffer at once and the scalar path is the portable
// fallback.
package preprocess

import (
	"log"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/vision-ai-lab/go-classify/images"
)

// ExecutionPath selects how the normalizer walks the pixel buffer.
type ExecutionPath string

const (
	// PathAuto lets the normalizer pick a path at construction time.
	PathAuto ExecutionPath = "auto"
	// PathBatched normalizes the whole buffer at once through tensor ops.
	PathBatched ExecutionPath = "batched"
	// PathScalar walks the buffer pixel by pixel.
	PathScalar ExecutionPath = "scalar"
)

// NormalizationParams holds one mean and one standard deviation per channel.
type NormalizationParams struct {
	Mean [images.Channels]float32 `json:"mean" yaml:"mean"`
	Std  [images.Channels]float32 `json:"std"  yaml:"std"`
}

// Validate rejects parameter sets that would make normalization undefined.
//
// Returns:
//   - error: An error if any std entry is zero or negative.
func (p NormalizationParams) Validate() error {
	for i, s := range p.Std {
		if s <= 0 {
			return errors.Errorf("std[%d] must be positive, got %f", i, s)
		}
	}
	return nil
}

// Normalizer computes (pixel - mean[channel]) / std[channel] over a buffer.
// The execution path is negotiated once at construction and never changes
// per call.
type Normalizer struct {
	params NormalizationParams
	path   ExecutionPath
}

// NewNormalizer creates a normalizer with validated parameters.
//
// Arguments:
//   - params: Per-channel mean and std. Std entries must be positive.
//   - path: The execution path. PathAuto resolves to the batched path.
//
// Returns:
//   - *Normalizer: The configured normalizer.
//   - error: An error if the parameters are invalid.
func NewNormalizer(params NormalizationParams, path ExecutionPath) (*Normalizer, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid normalization params")
	}
	switch path {
	case PathBatched, PathScalar:
	case PathAuto, "":
		path = PathBatched
	default:
		return nil, errors.Errorf("unknown execution path: %s", path)
	}
	return &Normalizer{params: params, path: path}, nil
}

// Params returns the parameters the normalizer was built with.
func (n *Normalizer) Params() NormalizationParams {
	return n.params
}

// Path returns the execution path resolved at construction.
func (n *Normalizer) Path() ExecutionPath {
	return n.path
}

// Apply normalizes src into a newly allocated buffer of identical
// dimensions. The source is never written to; a failure on the batched path
// degrades to the scalar walk instead of aborting the frame.
//
// Arguments:
//   - src: The buffer to normalize. Retained unmodified by the caller.
//
// Returns:
//   - *images.ImageBuffer: The normalized output buffer, owned by the caller.
//   - error: ErrInvalidDimension via images if src is degenerate.
func (n *Normalizer) Apply(src *images.ImageBuffer) (*images.ImageBuffer, error) {
	if src == nil {
		return nil, errors.New("source buffer is nil")
	}
	if src.Width <= 0 || src.Height <= 0 {
		return nil, errors.Wrapf(images.ErrInvalidDimension, "%dx%d", src.Width, src.Height)
	}
	if len(src.Pix) != src.Width*src.Height*images.Channels {
		return nil, errors.Errorf("buffer holds %d floats, needs %d",
			len(src.Pix), src.Width*src.Height*images.Channels)
	}

	dst := src.Clone()

	if n.path == PathBatched {
		if err := n.batched(dst); err != nil {
			log.Printf("normalize: batched path failed, falling back to scalar: %v", err)
			copy(dst.Pix, src.Pix)
			n.scalar(dst.Pix)
		}
		return dst, nil
	}

	n.scalar(dst.Pix)
	return dst, nil
}

// batched normalizes through per-channel strided tensor views. The views
// share dst's backing array, so unsafe in-place ops write straight into the
// output buffer.
func (n *Normalizer) batched(dst *images.ImageBuffer) error {
	t := tensor.New(
		tensor.WithShape(dst.Width*dst.Height, images.Channels),
		tensor.WithBacking(dst.Pix),
	)

	for c := 0; c < images.Channels; c++ {
		view, err := t.Slice(nil, tensor.S(c))
		if err != nil {
			return errors.Wrapf(err, "slicing channel %d", c)
		}
		if _, err := tensor.Sub(view, n.params.Mean[c], tensor.UseUnsafe()); err != nil {
			return errors.Wrapf(err, "subtracting mean for channel %d", c)
		}
		if _, err := tensor.Div(view, n.params.Std[c], tensor.UseUnsafe()); err != nil {
			return errors.Wrapf(err, "dividing by std for channel %d", c)
		}
	}
	return nil
}

// scalar is the sequential fallback walk over the interleaved buffer.
func (n *Normalizer) scalar(pix []float32) {
	for i := 0; i < len(pix); i += images.Channels {
		for c := 0; c < images.Channels; c++ {
			pix[i+c] = (pix[i+c] - n.params.Mean[c]) / n.params.Std[c]
		}
	}
}
