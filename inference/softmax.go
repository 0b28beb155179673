package inference

import (
	"github.com/chewxy/math32"
)

// Softmax converts logits into a probability distribution summing to one.
// The maximum logit is subtracted first so large values cannot overflow the
// exponential.
//
// Arguments:
//   - logits: The raw scores. Not modified.
//
// Returns:
//   - []float32: A fresh probability vector of the same length.
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}

	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	probs := make([]float32, len(logits))
	var sum float32
	for i, v := range logits {
		probs[i] = math32.Exp(v - maxVal)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
