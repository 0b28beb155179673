// Package pipeline drives the per-frame classification loop: preprocess a
// source frame, run the model, decode the score vector, and push the
// prediction to a presenter. The loop itself is owned by the host (webcam
// reader, frame-directory walker); the classifier exposes an explicit
// Initialize / Step / Shutdown contract instead of hiding work in lifecycle
// callbacks.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"log"

	"github.com/pkg/errors"

	"github.com/vision-ai-lab/go-classify/decode"
	"github.com/vision-ai-lab/go-classify/images"
	"github.com/vision-ai-lab/go-classify/inference"
	"github.com/vision-ai-lab/go-classify/labels"
	"github.com/vision-ai-lab/go-classify/preprocess"
	"github.com/vision-ai-lab/go-classify/profiler"
)

// Model is the inference surface the classifier drives. Satisfied by
// *inference.Adapter; alternative implementations (remote runtimes, fakes)
// produce readback handles through inference.NewReadback.
type Model interface {
	Config() inference.Config
	Execute(ctx context.Context, buf *images.ImageBuffer) (decode.ScoreVector, error)
	ExecuteAsync(ctx context.Context, buf *images.ImageBuffer) (*inference.Readback, error)
	Close() error
}

// Presenter receives each frame's prediction for display. Implementations
// belong to the host application; the classifier only pushes.
type Presenter interface {
	Present(result decode.PredictionResult, fps int)
}

// Options assembles a classifier.
type Options struct {
	// Model is the loaded inference adapter. Required.
	Model Model
	// Labels is the ordered class name table. Required, must be non-empty.
	Labels labels.Table
	// Presenter receives per-frame predictions. Optional.
	Presenter Presenter
	// Profiler records per-stage latencies. Optional.
	Profiler *profiler.StageProfiler
}

// Classifier is the frame-loop glue. Not safe for concurrent use; it is
// built for a single-threaded frame loop.
type Classifier struct {
	model     Model
	table     labels.Table
	presenter Presenter
	prof      *profiler.StageProfiler

	normalizer    *preprocess.Normalizer
	minConfidence float32

	// last is the most recent decoded prediction. Async steps keep
	// returning it until a readback delivers fresher scores.
	last    decode.PredictionResult
	pending *inference.Readback

	fps         fpsCounter
	initialized bool
}

// New assembles a classifier from its parts. Call Initialize before the
// first Step.
func New(opts Options) *Classifier {
	return &Classifier{
		model:     opts.Model,
		table:     opts.Labels,
		presenter: opts.Presenter,
		prof:      opts.Profiler,
	}
}

// Initialize validates the assembly and builds the preprocessing stages
// from the model's metadata.
//
// Returns:
//   - error: An error if the model is missing, the label table is empty,
//     or the normalization constants are invalid.
func (c *Classifier) Initialize() error {
	if c.model == nil {
		return fmt.Errorf("pipeline: no model configured")
	}
	if len(c.table) == 0 {
		return fmt.Errorf("pipeline: label table is empty")
	}

	cfg := c.model.Config()
	normalizer, err := preprocess.NewNormalizer(cfg.Normalization, preprocess.PathAuto)
	if err != nil {
		return errors.Wrap(err, "pipeline: building normalizer")
	}

	c.normalizer = normalizer
	c.minConfidence = cfg.MinConfidence
	c.last = decode.PredictionResult{ClassIndex: -1, Label: decode.NoneLabel}
	c.initialized = true
	return nil
}

// Step classifies one frame synchronously: resize, normalize, execute,
// decode, present.
//
// Arguments:
//   - ctx: Cancellation context for the inference call.
//   - frame: The source frame at its native resolution.
//
// Returns:
//   - decode.PredictionResult: The decoded prediction for this frame. On
//     error the previous result is returned unchanged.
//   - error: An error if preprocessing or inference fails.
func (c *Classifier) Step(ctx context.Context, frame image.Image) (decode.PredictionResult, error) {
	if !c.initialized {
		return c.last, fmt.Errorf("pipeline: classifier not initialized")
	}

	buf, err := c.preprocess(frame)
	if err != nil {
		return c.last, err
	}

	stop := c.profile("inference")
	scores, err := c.model.Execute(ctx, buf)
	stop()
	if err != nil {
		return c.last, err
	}

	stop = c.profile("decode")
	c.last = decode.Decode(scores, c.table, c.minConfidence)
	stop()

	c.present()
	return c.last, nil
}

// StepAsync classifies one frame in async readback mode. A completed
// readback from an earlier frame is decoded first; while one is still in
// flight the frame is skipped and the previous result returned, keeping at
// most one request outstanding. A failed readback is logged and the
// previous result retained.
//
// Arguments:
//   - ctx: Cancellation context for the inference call.
//   - frame: The source frame at its native resolution.
//
// Returns:
//   - decode.PredictionResult: The freshest available prediction, which
//     lags the frame the scores were computed from.
//   - error: An error if preprocessing or issuing the request fails.
func (c *Classifier) StepAsync(ctx context.Context, frame image.Image) (decode.PredictionResult, error) {
	if !c.initialized {
		return c.last, fmt.Errorf("pipeline: classifier not initialized")
	}

	if c.pending != nil {
		scores, done, err := c.pending.Poll()
		if !done {
			c.present()
			return c.last, nil
		}
		c.pending = nil
		if err != nil {
			log.Printf("pipeline: readback failed, keeping previous result: %v", err)
		} else {
			stop := c.profile("decode")
			c.last = decode.Decode(scores, c.table, c.minConfidence)
			stop()
		}
	}

	buf, err := c.preprocess(frame)
	if err != nil {
		return c.last, err
	}

	rb, err := c.model.ExecuteAsync(ctx, buf)
	if err != nil {
		return c.last, err
	}
	c.pending = rb

	c.present()
	return c.last, nil
}

// Result returns the most recent decoded prediction.
func (c *Classifier) Result() decode.PredictionResult {
	return c.last
}

// Shutdown releases the model. A readback still in flight becomes a no-op;
// its handle completes with an error rather than never firing.
func (c *Classifier) Shutdown() error {
	c.initialized = false
	c.pending = nil
	if c.model == nil {
		return nil
	}
	return c.model.Close()
}

// preprocess maps a source frame onto the model's input buffer: an
// aspect-preserving resize to the model's minimum side, then per-channel
// normalization. The model's input geometry is expected to share the
// source's aspect ratio; a mismatch surfaces as a dimension error from the
// adapter.
func (c *Classifier) preprocess(frame image.Image) (*images.ImageBuffer, error) {
	defer c.profile("preprocess")()

	cfg := c.model.Config()
	targetMin := cfg.InputHeight
	if cfg.InputWidth < targetMin {
		targetMin = cfg.InputWidth
	}

	resized, err := images.ResizeToMinSide(frame, targetMin)
	if err != nil {
		return nil, errors.Wrap(err, "pipeline: resizing frame")
	}
	return c.normalizer.Apply(resized)
}

// profile wraps one stage timing, a no-op without a profiler.
func (c *Classifier) profile(stage string) func() {
	if c.prof == nil {
		return func() {}
	}
	return c.prof.StartStage(stage)
}

func (c *Classifier) present() {
	fps := c.fps.tick()
	if c.presenter != nil {
		c.presenter.Present(c.last, fps)
	}
}
