// Package resize rescales raster images on disk.
package resize

import (
	"fmt"
	"os"

	"github.com/disintegration/imaging"
)

// DefaultQuality is the JPEG quality used when Imaging.Quality is unset.
const DefaultQuality = 100

// Imaging resizes images with disintegration/imaging. The zero value uses
// Lanczos resampling and DefaultQuality.
type Imaging struct {
	// JPEG quality of the re-encoded image, 1-100.
	Quality int
	// Resampling filter, Lanczos when nil.
	Filter *imaging.ResampleFilter
}

// Resize scales the image at src to exactly width x height pixels and writes
// it to dst. src and dst may be the same file. The output format follows
// dst's extension, falling back to JPEG when the extension is not an image
// type.
func (r Imaging) Resize(src, dst string, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid target size %dx%d", width, height)
	}

	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open image %s: %w", src, err)
	}

	filter := imaging.Lanczos
	if r.Filter != nil {
		filter = *r.Filter
	}
	resized := imaging.Resize(img, width, height, filter)

	quality := r.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	format, err := imaging.FormatFromFilename(dst)
	if err != nil {
		format = imaging.JPEG
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if err := imaging.Encode(f, resized, format, imaging.JPEGQuality(quality)); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", dst, err)
	}
	return f.Close()
}
