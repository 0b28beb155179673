package images

import (
	"fmt"
	"image"
	"math"

	"github.com/nfnt/resize"
)

// MinTargetSide is the floor applied to every requested minimum-side length.
// Models in this pipeline never consume inputs smaller than this.
const MinTargetSide = 64

// ErrInvalidDimension reports a zero or negative source dimension. Callers
// feeding live frames should treat this as a contract violation, not a
// recoverable condition.
var ErrInvalidDimension = fmt.Errorf("invalid source dimension")

func invalidDimension(width, height int) error {
	return fmt.Errorf("%w: %dx%d", ErrInvalidDimension, width, height)
}

// TargetDims is a pair of positive output dimensions computed from a source
// size and a minimum-side target.
type TargetDims struct {
	Width  int `json:"width"  yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// FitToMinSide computes output dimensions whose minimum side equals the
// clamped target while preserving the source aspect ratio up to integer
// rounding.
//
// The target is clamped to at least MinTargetSide. The scale factor is
// target / min(srcWidth, srcHeight) and both dimensions are rounded
// component-wise.
//
// Arguments:
//   - srcWidth: The source width in pixels.
//   - srcHeight: The source height in pixels.
//   - targetMin: The requested minimum-side length.
//
// Returns:
//   - TargetDims: The computed output dimensions.
//   - error: ErrInvalidDimension if the source has a zero or negative side.
func FitToMinSide(srcWidth, srcHeight, targetMin int) (TargetDims, error) {
	if srcWidth <= 0 || srcHeight <= 0 {
		return TargetDims{}, invalidDimension(srcWidth, srcHeight)
	}

	if targetMin < MinTargetSide {
		targetMin = MinTargetSide
	}

	minSide := srcWidth
	if srcHeight < minSide {
		minSide = srcHeight
	}

	scale := float64(targetMin) / float64(minSide)
	return TargetDims{
		Width:  int(math.Round(float64(srcWidth) * scale)),
		Height: int(math.Round(float64(srcHeight) * scale)),
	}, nil
}

// Resize scales a decoded image to the given dimensions using the Lanczos3
// kernel and converts it into a fresh ImageBuffer.
//
// Arguments:
//   - img: The source image.
//   - dims: The output dimensions, typically from FitToMinSide.
//
// Returns:
//   - *ImageBuffer: The resized buffer.
//   - error: ErrInvalidDimension if dims is degenerate.
func Resize(img image.Image, dims TargetDims) (*ImageBuffer, error) {
	if dims.Width <= 0 || dims.Height <= 0 {
		return nil, invalidDimension(dims.Width, dims.Height)
	}
	scaled := resize.Resize(uint(dims.Width), uint(dims.Height), img, resize.Lanczos3)
	return FromImage(scaled), nil
}

// ResizeToMinSide combines FitToMinSide and Resize for the common
// frame-loop case.
func ResizeToMinSide(img image.Image, targetMin int) (*ImageBuffer, error) {
	bounds := img.Bounds()
	dims, err := FitToMinSide(bounds.Dx(), bounds.Dy(), targetMin)
	if err != nil {
		return nil, err
	}
	return Resize(img, dims)
}
