package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSoftmaxDistribution validates the basic probability properties.
func TestSoftmaxDistribution(t *testing.T) {
	probs := Softmax([]float32{1, 2, 3})
	require.Len(t, probs, 3)

	var sum float32
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, float32(0))
		assert.LessOrEqual(t, p, float32(1))
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
	assert.Greater(t, probs[2], probs[1])
	assert.Greater(t, probs[1], probs[0])
}

// TestSoftmaxLargeLogits validates the max-subtraction guard: logits far
// beyond float32 exponential range must not produce Inf or NaN.
func TestSoftmaxLargeLogits(t *testing.T) {
	probs := Softmax([]float32{1000, 1001, 1002})
	require.Len(t, probs, 3)

	var sum float32
	for _, p := range probs {
		require.False(t, p != p, "probability must not be NaN")
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-5)
	assert.Greater(t, probs[2], probs[0])
}

// TestSoftmaxUniform validates that equal logits yield a uniform
// distribution.
func TestSoftmaxUniform(t *testing.T) {
	probs := Softmax([]float32{0.5, 0.5, 0.5, 0.5})
	for _, p := range probs {
		assert.InDelta(t, 0.25, p, 1e-6)
	}
}

// TestSoftmaxInputUntouched validates that the logits slice is not
// modified.
func TestSoftmaxInputUntouched(t *testing.T) {
	logits := []float32{3, 1, 2}
	Softmax(logits)
	assert.Equal(t, []float32{3, 1, 2}, logits)
}

func TestSoftmaxEmpty(t *testing.T) {
	assert.Nil(t, Softmax(nil))
	assert.Nil(t, Softmax([]float32{}))
}
