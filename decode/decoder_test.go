package decode

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vision-ai-lab/go-classify/labels"
)

var rpsLabels = labels.Table{"rock", "paper", "scissors"}

// TestDecodeArgmax validates the basic top-score decode.
func TestDecodeArgmax(t *testing.T) {
	result := Decode(ScoreVector{0.1, 0.8, 0.1}, rpsLabels, 0.5)

	assert.Equal(t, 1, result.ClassIndex)
	assert.Equal(t, "paper", result.Label)
	assert.Equal(t, float32(0.8), result.Confidence)
	assert.True(t, result.Ready)
}

// TestDecodeTieBreak validates that ties resolve to the first occurrence.
func TestDecodeTieBreak(t *testing.T) {
	result := Decode(ScoreVector{0.5, 0.5, 0.3}, rpsLabels, 0)

	assert.Equal(t, 0, result.ClassIndex, "first occurrence should win the tie")
	assert.Equal(t, "rock", result.Label)
	assert.Equal(t, float32(0.5), result.Confidence)
}

// TestDecodeThresholdGating validates that below-threshold predictions
// report the sentinel label while keeping index and confidence for
// telemetry.
func TestDecodeThresholdGating(t *testing.T) {
	result := Decode(ScoreVector{0.9, 0.05, 0.05}, rpsLabels, 0.95)

	assert.Equal(t, NoneLabel, result.Label)
	assert.Equal(t, 0, result.ClassIndex, "class index is still reported below threshold")
	assert.Equal(t, float32(0.9), result.Confidence, "confidence is still reported below threshold")
	assert.True(t, result.Ready)
}

// TestDecodeReadinessHeuristic validates the documented quirk: an all-zero
// vector is considered ready output, decoding to class 0 with confidence 0.
func TestDecodeReadinessHeuristic(t *testing.T) {
	result := Decode(make(ScoreVector, 5), labels.Table{"a", "b", "c", "d", "e"}, 0)

	assert.True(t, result.Ready, "all-zero scores lie in [0,1] and count as ready")
	assert.Equal(t, 0, result.ClassIndex)
	assert.Equal(t, float32(0), result.Confidence)
}

// TestDecodeNotReady validates that out-of-range and NaN scores mark the
// vector as placeholder output.
func TestDecodeNotReady(t *testing.T) {
	cases := map[string]ScoreVector{
		"above one":  {0.2, 1.5, 0.1},
		"below zero": {-0.1, 0.6, 0.5},
		"nan":        {0.3, float32(math.NaN()), 0.2},
	}

	for name, scores := range cases {
		t.Run(name, func(t *testing.T) {
			result := Decode(scores, rpsLabels, 0)
			assert.False(t, result.Ready, "scores %v should not be ready", scores)
		})
	}
}

// TestDecodeIdempotent validates that decoding the same vector twice yields
// identical results.
func TestDecodeIdempotent(t *testing.T) {
	scores := ScoreVector{0.25, 0.4, 0.35}

	first := Decode(scores, rpsLabels, 0.3)
	second := Decode(scores, rpsLabels, 0.3)

	require.Equal(t, first, second)
}

// TestDecodeEmptyVector validates the degenerate no-scores case.
func TestDecodeEmptyVector(t *testing.T) {
	result := Decode(nil, rpsLabels, 0.5)

	assert.Equal(t, -1, result.ClassIndex)
	assert.Equal(t, NoneLabel, result.Label)
	assert.False(t, result.Ready)
}

// TestDecodeBufferedCopyMatchesOriginal validates that decoding a
// separately buffered copy (the async readback delivery mode) matches
// decoding the original vector.
func TestDecodeBufferedCopyMatchesOriginal(t *testing.T) {
	original := ScoreVector{0.1, 0.2, 0.7}
	buffered := make(ScoreVector, len(original))
	copy(buffered, original)

	// Simulate the producer overwriting its own buffer after handoff.
	direct := Decode(original, rpsLabels, 0.5)
	original[2] = 0

	assert.Equal(t, direct, Decode(buffered, rpsLabels, 0.5),
		"buffered copy must decode identically regardless of producer reuse")
}
