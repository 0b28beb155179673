package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vision-ai-lab/go-classify/decode"
	"github.com/vision-ai-lab/go-classify/images"
	"github.com/vision-ai-lab/go-classify/inference"
	"github.com/vision-ai-lab/go-classify/labels"
	"github.com/vision-ai-lab/go-classify/preprocess"
)

// fakeModel substitutes the inference adapter so the frame loop can be
// exercised without a model asset.
type fakeModel struct {
	cfg     inference.Config
	scores  decode.ScoreVector
	execErr error

	lastBuf  *images.ImageBuffer
	rb       *inference.Readback
	executes int
	asyncs   int
	closed   bool
}

func (m *fakeModel) Config() inference.Config { return m.cfg }

func (m *fakeModel) Execute(ctx context.Context, buf *images.ImageBuffer) (decode.ScoreVector, error) {
	m.executes++
	m.lastBuf = buf
	if m.execErr != nil {
		return nil, m.execErr
	}
	return m.scores, nil
}

func (m *fakeModel) ExecuteAsync(ctx context.Context, buf *images.ImageBuffer) (*inference.Readback, error) {
	m.asyncs++
	m.lastBuf = buf
	m.rb = inference.NewReadback()
	return m.rb, nil
}

func (m *fakeModel) Close() error {
	m.closed = true
	return nil
}

// recordingPresenter captures every push for assertion.
type recordingPresenter struct {
	results []decode.PredictionResult
	fps     []int
}

func (p *recordingPresenter) Present(result decode.PredictionResult, fps int) {
	p.results = append(p.results, result)
	p.fps = append(p.fps, fps)
}

func newFakeModel(scores decode.ScoreVector) *fakeModel {
	return &fakeModel{
		cfg: inference.Config{
			InputWidth:  512,
			InputHeight: 288,
			ClassCount:  len(scores),
			Normalization: preprocess.NormalizationParams{
				Mean: [images.Channels]float32{0.485, 0.456, 0.406},
				Std:  [images.Channels]float32{0.229, 0.224, 0.225},
			},
			MinConfidence: 0.5,
		},
		scores: scores,
	}
}

func cameraFrame() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 1280, 720))
	for y := 0; y < 720; y++ {
		for x := 0; x < 1280; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 64, B: 32, A: 255})
		}
	}
	return img
}

var handSigns = labels.Table{"rock", "paper", "scissors"}

// TestStepEndToEnd walks one full synchronous frame: a camera-resolution
// source lands on the model's input geometry and the decoded prediction
// reaches the presenter.
func TestStepEndToEnd(t *testing.T) {
	model := newFakeModel(decode.ScoreVector{0.1, 0.8, 0.1})
	presenter := &recordingPresenter{}

	c := New(Options{Model: model, Labels: handSigns, Presenter: presenter})
	require.NoError(t, c.Initialize())

	result, err := c.Step(context.Background(), cameraFrame())
	require.NoError(t, err)

	assert.Equal(t, "paper", result.Label)
	assert.Equal(t, 1, result.ClassIndex)
	assert.InDelta(t, 0.8, result.Confidence, 1e-6)
	assert.True(t, result.Ready)

	require.NotNil(t, model.lastBuf)
	assert.Equal(t, 512, model.lastBuf.Width, "1280x720 should land on 512x288 for a 288 min side")
	assert.Equal(t, 288, model.lastBuf.Height)

	require.Len(t, presenter.results, 1)
	assert.Equal(t, result, presenter.results[0])
}

// TestStepNormalizesInput validates that the buffer handed to the model
// went through per-channel normalization, not just the resize.
func TestStepNormalizesInput(t *testing.T) {
	model := newFakeModel(decode.ScoreVector{1, 0, 0})

	c := New(Options{Model: model, Labels: handSigns})
	require.NoError(t, c.Initialize())

	_, err := c.Step(context.Background(), cameraFrame())
	require.NoError(t, err)

	// Red channel: (128*257/65535 - 0.485) / 0.229 on a uniform frame.
	want := (float32(128*257)/65535 - 0.485) / 0.229
	assert.InDelta(t, want, model.lastBuf.At(0, 0, 0), 1e-4)
}

// TestStepFailureRetainsPreviousResult validates that an inference error
// leaves the last good prediction in place.
func TestStepFailureRetainsPreviousResult(t *testing.T) {
	model := newFakeModel(decode.ScoreVector{0.1, 0.8, 0.1})

	c := New(Options{Model: model, Labels: handSigns})
	require.NoError(t, c.Initialize())

	first, err := c.Step(context.Background(), cameraFrame())
	require.NoError(t, err)

	model.execErr = fmt.Errorf("device lost")
	second, err := c.Step(context.Background(), cameraFrame())
	require.Error(t, err)
	assert.Equal(t, first, second, "a failed frame must not disturb the last result")
	assert.Equal(t, first, c.Result())
}

// TestStepAsyncLifecycle validates the one-outstanding-request loop: issue,
// skip while in flight, decode on completion, issue again.
func TestStepAsyncLifecycle(t *testing.T) {
	model := newFakeModel(nil)

	c := New(Options{Model: model, Labels: handSigns})
	require.NoError(t, c.Initialize())

	// Frame 1 issues the request; no scores exist yet.
	result, err := c.StepAsync(context.Background(), cameraFrame())
	require.NoError(t, err)
	assert.Equal(t, 1, model.asyncs)
	assert.Equal(t, decode.NoneLabel, result.Label)
	assert.Equal(t, -1, result.ClassIndex)

	// Frame 2 arrives while the request is still in flight: skipped.
	result, err = c.StepAsync(context.Background(), cameraFrame())
	require.NoError(t, err)
	assert.Equal(t, 1, model.asyncs, "no new request while one is outstanding")
	assert.Equal(t, decode.NoneLabel, result.Label)

	model.rb.Complete(decode.ScoreVector{0.1, 0.8, 0.1}, nil)

	// Frame 3 decodes the completed readback and issues the next request.
	result, err = c.StepAsync(context.Background(), cameraFrame())
	require.NoError(t, err)
	assert.Equal(t, 2, model.asyncs)
	assert.Equal(t, "paper", result.Label)
	assert.InDelta(t, 0.8, result.Confidence, 1e-6)
}

// TestStepAsyncFailureKeepsPreviousResult validates that a failed readback
// is swallowed with a log line and the prior prediction survives.
func TestStepAsyncFailureKeepsPreviousResult(t *testing.T) {
	model := newFakeModel(nil)

	c := New(Options{Model: model, Labels: handSigns})
	require.NoError(t, c.Initialize())

	_, err := c.StepAsync(context.Background(), cameraFrame())
	require.NoError(t, err)
	model.rb.Complete(decode.ScoreVector{0.1, 0.8, 0.1}, nil)

	result, err := c.StepAsync(context.Background(), cameraFrame())
	require.NoError(t, err)
	require.Equal(t, "paper", result.Label)

	model.rb.Complete(nil, fmt.Errorf("%w: adapter closed mid-flight", inference.ErrReadback))

	result, err = c.StepAsync(context.Background(), cameraFrame())
	require.NoError(t, err)
	assert.Equal(t, "paper", result.Label, "failed readback must not clear the last result")
	assert.InDelta(t, 0.8, result.Confidence, 1e-6)
}

// TestInitializeValidation walks the assembly errors.
func TestInitializeValidation(t *testing.T) {
	t.Run("missing model", func(t *testing.T) {
		c := New(Options{Labels: handSigns})
		require.Error(t, c.Initialize())
	})

	t.Run("empty label table", func(t *testing.T) {
		c := New(Options{Model: newFakeModel(nil)})
		require.Error(t, c.Initialize())
	})

	t.Run("invalid normalization constants", func(t *testing.T) {
		model := newFakeModel(nil)
		model.cfg.Normalization.Std = [images.Channels]float32{0, 1, 1}
		c := New(Options{Model: model, Labels: handSigns})
		require.Error(t, c.Initialize())
	})

	t.Run("step before initialize", func(t *testing.T) {
		c := New(Options{Model: newFakeModel(nil), Labels: handSigns})
		_, err := c.Step(context.Background(), cameraFrame())
		require.Error(t, err)
	})
}

// TestShutdownClosesModel validates deterministic teardown.
func TestShutdownClosesModel(t *testing.T) {
	model := newFakeModel(decode.ScoreVector{1, 0, 0})

	c := New(Options{Model: model, Labels: handSigns})
	require.NoError(t, c.Initialize())
	require.NoError(t, c.Shutdown())

	assert.True(t, model.closed)

	_, err := c.Step(context.Background(), cameraFrame())
	require.Error(t, err, "a shut down classifier must reject frames")
}

// TestFPSCounter validates the once-a-second refresh against a fake clock.
func TestFPSCounter(t *testing.T) {
	now := time.Unix(0, 0)
	counter := fpsCounter{now: func() time.Time { return now }}

	// 30 frames over the first second; the reading holds at zero until a
	// full second has elapsed.
	for i := 0; i < 30; i++ {
		assert.Zero(t, counter.tick())
		now = now.Add(33 * time.Millisecond)
	}

	now = time.Unix(1, 0)
	fps := counter.tick()
	assert.InDelta(t, 30, fps, 2)

	// The reading persists between refreshes.
	now = now.Add(33 * time.Millisecond)
	assert.Equal(t, fps, counter.tick())
}
