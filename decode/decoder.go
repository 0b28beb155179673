// Package decode - Conversion of raw score vectors into prediction results.
package decode

import (
	"github.com/vision-ai-lab/go-classify/labels"
)

// ScoreVector is an ordered per-class score vector. After the model
// adapter's softmax stage every value lies in [0,1] and the vector sums to
// roughly one. A fresh vector is produced per inference call and owned by
// the caller; decoding never retains it.
type ScoreVector []float32

// NoneLabel is the sentinel label reported when the top score falls below
// the confidence threshold.
const NoneLabel = "none"

// PredictionResult is the decoded outcome of one inference. It is derived
// purely from a score vector, a label table, and a threshold; it has no
// lifecycle of its own and is recomputed every frame.
type PredictionResult struct {
	// ClassIndex is the argmax index, or -1 when no scores were available.
	ClassIndex int `json:"classIndex"`
	// Label is the class name, or NoneLabel below the threshold.
	Label string `json:"label"`
	// Confidence is the top score. Reported even when the label is gated to
	// NoneLabel so callers can still log it.
	Confidence float32 `json:"confidence"`
	// Ready reports whether every score lies in [0,1]. Placeholder output
	// buffers read before the first inference completes carry garbage or
	// zero-initialized values; an all-zero vector still counts as ready.
	// This distinguishes the "loading" UI state from the "predicted" one,
	// it is not a correctness check on the model.
	Ready bool `json:"isModelReady"`
}

// Decode turns a score vector into a prediction result.
//
// The maximum score wins, first occurrence on ties. When the top score is
// below minConfidence the label is reported as NoneLabel while the class
// index and confidence are still returned for telemetry. Decoding the same
// vector twice yields the same result, whether the scores arrived
// synchronously or through an asynchronous readback copy.
//
// Arguments:
//   - scores: The per-class score vector.
//   - table: The class label table, index-aligned with scores.
//   - minConfidence: The minimum top score required to report a label.
//
// Returns:
//   - PredictionResult: The decoded result. An empty vector yields
//     ClassIndex -1, NoneLabel, and Ready false.
func Decode(scores ScoreVector, table labels.Table, minConfidence float32) PredictionResult {
	if len(scores) == 0 {
		return PredictionResult{ClassIndex: -1, Label: NoneLabel}
	}

	maxIdx := 0
	maxVal := scores[0]
	ready := true
	for i, v := range scores {
		if v > maxVal {
			maxVal = v
			maxIdx = i
		}
		// NaN fails both bounds and marks the vector not ready.
		if !(v >= 0 && v <= 1) {
			ready = false
		}
	}

	result := PredictionResult{
		ClassIndex: maxIdx,
		Confidence: maxVal,
		Ready:      ready,
	}
	if maxVal < minConfidence {
		result.Label = NoneLabel
	} else {
		result.Label = table.Name(maxIdx)
	}
	return result
}
