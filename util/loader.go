// Package util - Frame-sequence loading for static demo runs.
package util

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chai2010/webp"
	pkgerrors "github.com/pkg/errors"
)

// FrameFile is one decoded frame of an extracted image sequence.
type FrameFile struct {
	// Path is the path the frame was read from.
	Path string
	// Image is the decoded frame.
	Image image.Image
	// Frame is the sequence number parsed from the file name, -1 when the
	// name carries no number.
	Frame int
}

// LoadFrameDirectory reads and decodes every supported image in a
// directory, ordered by the frame number embedded in the file name
// (frame-0001.png, 17.webp). Files without a number sort ahead of numbered
// ones, then by name.
//
// Arguments:
//   - dir: Directory containing the extracted frames.
//
// Returns:
//   - []FrameFile: The decoded frames in playback order.
//   - error: An error if the directory is unreadable or a frame fails to
//     decode.
func LoadFrameDirectory(dir string) ([]FrameFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "reading frame directory")
	}

	var frames []FrameFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".webp":
		default:
			continue
		}

		path := filepath.Join(dir, entry.Name())
		img, err := DecodeImageFile(path)
		if err != nil {
			return nil, err
		}

		frames = append(frames, FrameFile{
			Path:  path,
			Image: img,
			Frame: frameNumber(entry.Name(), ext),
		})
	}

	sort.Slice(frames, func(i, j int) bool {
		if frames[i].Frame != frames[j].Frame {
			return frames[i].Frame < frames[j].Frame
		}
		return frames[i].Path < frames[j].Path
	})

	return frames, nil
}

// DecodeImageFile decodes one image file by extension.
//
// Arguments:
//   - path: A .jpg, .jpeg, .png, or .webp file.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: An error if the file is unreadable, unsupported, or corrupt.
func DecodeImageFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "reading %s", path)
	}

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(bytes.NewReader(data))
	case ".png":
		img, err = png.Decode(bytes.NewReader(data))
	case ".webp":
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		return nil, pkgerrors.Errorf("unsupported image extension: %s", path)
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "decoding %s", path)
	}
	return img, nil
}

// frameNumber extracts the trailing digit run of the base name, so both
// frame-0042.png and 42.webp map to 42.
func frameNumber(name, ext string) int {
	base := strings.TrimSuffix(name, ext)

	end := len(base)
	start := end
	for start > 0 && base[start-1] >= '0' && base[start-1] <= '9' {
		start--
	}
	if start == end {
		return -1
	}

	n := 0
	for _, d := range base[start:end] {
		n = n*10 + int(d-'0')
	}
	return n
}
