// Package images - Pixel buffers and resizing primitives for the
// classification pipeline.
package images

import (
	"image"
)

// Channels is the fixed channel count of every pipeline buffer.
const Channels = 3

// ImageBuffer is a W x H x 3 row-major (HWC interleaved) float32 pixel
// buffer. Channel values are in [0,1] until normalization rescales them.
//
// Buffers are owned exclusively by whichever pipeline stage currently holds
// them; ownership transfers stage to stage. Use Clone when a stage needs to
// retain data past the handoff.
type ImageBuffer struct {
	// Width is the width of the buffer in pixels.
	Width int
	// Height is the height of the buffer in pixels.
	Height int
	// Pix holds Width*Height*Channels floats in HWC order.
	Pix []float32
}

// NewImageBuffer allocates a zeroed buffer with the given dimensions.
//
// Arguments:
//   - width: The width in pixels.
//   - height: The height in pixels.
//
// Returns:
//   - *ImageBuffer: The allocated buffer.
//   - error: ErrInvalidDimension if either dimension is not positive.
func NewImageBuffer(width, height int) (*ImageBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, invalidDimension(width, height)
	}
	return &ImageBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*Channels),
	}, nil
}

// FromImage converts a decoded image into a fresh ImageBuffer.
//
// Pixel values are reduced from 16-bit premultiplied color to 8-bit and
// scaled into [0,1], matching the layout the model adapter consumes.
//
// Arguments:
//   - img: The source image.
//
// Returns:
//   - *ImageBuffer: A new buffer; the source image is not retained.
func FromImage(img image.Image) *ImageBuffer {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	buf := &ImageBuffer{
		Width:  w,
		Height: h,
		Pix:    make([]float32, w*h*Channels),
	}

	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			buf.Pix[i+0] = float32(r>>8) / 255.0
			buf.Pix[i+1] = float32(g>>8) / 255.0
			buf.Pix[i+2] = float32(b>>8) / 255.0
			i += Channels
		}
	}
	return buf
}

// Clone returns a deep copy of the buffer.
func (b *ImageBuffer) Clone() *ImageBuffer {
	pix := make([]float32, len(b.Pix))
	copy(pix, b.Pix)
	return &ImageBuffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// At returns the value of channel c at pixel (x, y). No bounds checking
// beyond the slice index itself.
func (b *ImageBuffer) At(x, y, c int) float32 {
	return b.Pix[(y*b.Width+x)*Channels+c]
}
