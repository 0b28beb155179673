package inference

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/vision-ai-lab/go-classify/decode"
	"github.com/vision-ai-lab/go-classify/images"
	"github.com/vision-ai-lab/go-classify/inference/providers"
)

// Adapter owns the black-box model runtime. It accepts preprocessed
// fixed-layout image buffers and produces per-class probability vectors.
//
// Backend capability and channel ordering are fixed once at load time.
// When the raw graph ends in logits a softmax stage is attached at load so
// Execute always returns values interpretable as probabilities.
type Adapter struct {
	cfg      Config
	provider providers.ExecutionProvider
	run      runner
	// stage is the output normalization attached at load time, nil when
	// the graph already ends in probabilities.
	stage func([]float32) []float32

	mu      sync.Mutex
	pending *Readback
	closed  bool
}

// LoadModel loads a serialized model graph and fixes the adapter's
// configuration.
//
// An unavailable accelerated backend is not fatal: the load logs a warning
// and retries on the generic CPU backend.
//
// Arguments:
//   - modelBytes: The opaque serialized graph.
//   - cfg: Input geometry, channel order, output layout, and backend.
//
// Returns:
//   - *Adapter: The loaded adapter. Release with Close.
//   - error: ErrModelLoad if the asset or configuration is invalid.
func LoadModel(modelBytes []byte, cfg Config) (*Adapter, error) {
	if len(modelBytes) == 0 {
		return nil, fmt.Errorf("%w: empty model asset", ErrModelLoad)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	provider, err := providers.Resolve(cfg.Backend)
	if err != nil {
		log.Printf("inference: %v, using generic backend", err)
		provider, _ = providers.Resolve(providers.CPUProviderBackend)
	}

	run, err := newORTRunner(modelBytes, cfg, provider)
	if err != nil && providers.Accelerated(provider.Backend()) {
		log.Printf("inference: %v, falling back to generic backend", err)
		provider, _ = providers.Resolve(providers.CPUProviderBackend)
		run, err = newORTRunner(modelBytes, cfg, provider)
	}
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		cfg:      cfg,
		provider: provider,
		run:      run,
	}
	if !cfg.OutputsProbabilities {
		a.stage = Softmax
	}
	return a, nil
}

// Config returns the load-time configuration.
func (a *Adapter) Config() Config {
	return a.cfg
}

// Backend returns the backend the adapter actually resolved to after
// capability negotiation.
func (a *Adapter) Backend() providers.ProviderBackend {
	return a.provider.Backend()
}

// Execute runs one synchronous inference.
//
// Arguments:
//   - ctx: Cancellation context, checked before the graph runs.
//   - buf: A preprocessed buffer matching the model's input dimensions.
//
// Returns:
//   - decode.ScoreVector: A fresh per-class probability vector owned by
//     the caller; never shared across calls.
//   - error: An error if the adapter is closed, a readback is in flight,
//     or the run fails.
func (a *Adapter) Execute(ctx context.Context, buf *images.ImageBuffer) (decode.ScoreVector, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.prepareLocked(ctx, buf); err != nil {
		return nil, err
	}
	if err := a.run.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	return a.collectLocked(), nil
}

// ExecuteAsync issues one inference whose completion is delivered on a
// later frame through the returned readback handle.
//
// At most one request may be outstanding; the frame loop issues the next
// request only after the previous handle completes. If the adapter is
// closed mid-flight the pending request becomes a no-op and the handle
// completes with ErrReadback, leaving the caller's previous result intact.
//
// Arguments:
//   - ctx: Cancellation context, checked before the request is issued.
//   - buf: A preprocessed buffer matching the model's input dimensions.
//
// Returns:
//   - *Readback: The in-flight request handle.
//   - error: An error if a request is already outstanding or the adapter
//     is closed.
func (a *Adapter) ExecuteAsync(ctx context.Context, buf *images.ImageBuffer) (*Readback, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.prepareLocked(ctx, buf); err != nil {
		return nil, err
	}

	rb := NewReadback()
	a.pending = rb

	go a.completeAsync(rb)

	return rb, nil
}

// completeAsync runs the issued request and publishes its result. A close
// that won the lock first turns the request into a no-op.
func (a *Adapter) completeAsync(rb *Readback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = nil

	if a.closed {
		rb.Complete(nil, fmt.Errorf("%w: adapter closed mid-flight", ErrReadback))
		return
	}
	if err := a.run.Run(); err != nil {
		rb.Complete(nil, fmt.Errorf("%w: %v", ErrReadback, err))
		return
	}
	// Scores are handed off as a separately buffered copy so a decode on a
	// later frame never observes the runtime overwriting its output tensor.
	rb.Complete(a.collectLocked(), nil)
}

// prepareLocked validates state and fills the input tensor. Callers hold
// a.mu.
func (a *Adapter) prepareLocked(ctx context.Context, buf *images.ImageBuffer) error {
	if a.closed {
		return fmt.Errorf("adapter is closed")
	}
	if a.pending != nil {
		return fmt.Errorf("a readback is already in flight")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return fillInput(a.run.InputData(), buf, a.cfg)
}

// collectLocked copies the selected output into a fresh score vector and
// applies the attached softmax stage. Callers hold a.mu.
func (a *Adapter) collectLocked() decode.ScoreVector {
	out := a.run.OutputData(a.cfg.OutputIndex)
	scores := make(decode.ScoreVector, len(out))
	copy(scores, out)
	if a.stage != nil {
		scores = a.stage(scores)
	}
	return scores
}

// Close releases backend handles deterministically. A run in flight holds
// the adapter lock, so Close blocks until it finishes and its readback is
// resolved; requests issued after Close fail immediately.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true
	return a.run.Close()
}

// fillInput marshals an HWC image buffer into the runtime's input tensor
// using the configured channel order.
func fillInput(dst []float32, buf *images.ImageBuffer, cfg Config) error {
	if buf == nil {
		return fmt.Errorf("input buffer is nil")
	}
	if buf.Width != cfg.InputWidth || buf.Height != cfg.InputHeight {
		return fmt.Errorf("input buffer is %dx%d, model expects %dx%d",
			buf.Width, buf.Height, cfg.InputWidth, cfg.InputHeight)
	}
	need := buf.Width * buf.Height * images.Channels
	if len(dst) < need {
		return fmt.Errorf("destination tensor only holds %d floats, needs %d "+
			"(make sure it's the right shape!)", len(dst), need)
	}

	if cfg.ChannelOrder == ChannelLast {
		copy(dst, buf.Pix)
		return nil
	}

	plane := buf.Width * buf.Height
	for p := 0; p < plane; p++ {
		for c := 0; c < images.Channels; c++ {
			dst[c*plane+p] = buf.Pix[p*images.Channels+c]
		}
	}
	return nil
}
