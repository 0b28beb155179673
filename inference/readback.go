package inference

import (
	"context"

	"github.com/vision-ai-lab/go-classify/decode"
)

// Readback is the handle for one in-flight asynchronous inference. The
// request is issued on one frame and completes on a later frame boundary;
// no fixed latency is guaranteed, and a handle whose adapter is torn down
// mid-flight completes with ErrReadback instead of never firing.
//
// The scores delivered through a handle are a private buffered copy: they
// are written exactly once before the handle signals completion and are
// never overwritten afterwards, so decoding them on any later frame is
// safe.
type Readback struct {
	done   chan struct{}
	scores decode.ScoreVector
	err    error
}

// NewReadback creates an unresolved handle. Model implementations resolve
// it with Complete exactly once.
func NewReadback() *Readback {
	return &Readback{done: make(chan struct{})}
}

// Complete publishes the result. Called exactly once, before done closes,
// which orders the writes ahead of any Poll or Await observation.
func (r *Readback) Complete(scores decode.ScoreVector, err error) {
	r.scores = scores
	r.err = err
	close(r.done)
}

// Done returns a channel closed when the request completes. Suits frame
// loops that select rather than poll.
func (r *Readback) Done() <-chan struct{} {
	return r.done
}

// Poll checks for completion without blocking.
//
// Returns:
//   - decode.ScoreVector: The buffered scores when complete, else nil.
//   - bool: Whether the request has completed.
//   - error: ErrReadback when the request failed or was abandoned.
func (r *Readback) Poll() (decode.ScoreVector, bool, error) {
	select {
	case <-r.done:
		return r.scores, true, r.err
	default:
		return nil, false, nil
	}
}

// Await blocks until the request completes or the context is canceled.
//
// Arguments:
//   - ctx: Cancellation context.
//
// Returns:
//   - decode.ScoreVector: The buffered scores.
//   - error: ErrReadback on failure, or the context's error.
func (r *Readback) Await(ctx context.Context) (decode.ScoreVector, error) {
	select {
	case <-r.done:
		return r.scores, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
