package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/thywilljoshua/pdftools/internal/ghostscript"
)

// antialiasOversample is the factor pages are rendered at before being
// downsampled to the requested size. Ghostscript's jpeg device does not
// reliably apply TextAlphaBits/GraphicsAlphaBits at the target geometry, which
// leaves jagged text and line art; resampling a larger render smooths it.
const antialiasOversample = 2

// Rasterizer renders single PDF pages to JPEG.
type Rasterizer struct {
	Engine   RasterEngine
	Measurer Measurer
	Resizer  Resizer
	Logger   *logrus.Logger
}

// ConvertToImage renders one page of doc to targetPath. Unless opts gives
// both Width and Height, the missing dimensions are measured from the page at
// opts.DPI. Unless opts.NoOversample is set the engine renders at
// antialiasOversample times that size and the image is then resized in place.
//
// Engine failures other than timeouts, cancellation and a missing binary are
// only logged: a missing or unreadable targetPath is how they show.
func (r *Rasterizer) ConvertToImage(ctx context.Context, doc Document, targetPath string, opts RasterOptions) error {
	opts = opts.withDefaults()
	if opts.Page < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPage, opts.Page)
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidQuality, opts.Quality)
	}
	if err := checkSource(doc.Path()); err != nil {
		return err
	}

	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		var err error
		if width <= 0 {
			if width, err = r.Measurer.WidthInPixels(doc.Path(), opts.Page, opts.DPI); err != nil {
				return fmt.Errorf("failed to measure page width: %w", err)
			}
		}
		if height <= 0 {
			if height, err = r.Measurer.HeightInPixels(doc.Path(), opts.Page, opts.DPI); err != nil {
				return fmt.Errorf("failed to measure page height: %w", err)
			}
		}
	}

	multiplier := 1
	if !opts.NoOversample {
		multiplier = antialiasOversample
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logger := loggerOrDiscard(r.Logger).WithFields(logrus.Fields{
		"source": doc.Path(),
		"target": targetPath,
		"page":   opts.Page,
	})

	req := ghostscript.RasterRequest{
		InputPath:  doc.Path(),
		OutputPath: targetPath,
		Page:       opts.Page,
		DPI:        opts.DPI,
		Quality:    opts.Quality,
		Width:      width * multiplier,
		Height:     height * multiplier,
	}
	if err := r.Engine.Rasterize(ctx, req); err != nil {
		if errors.Is(err, ghostscript.ErrTimeout) || errors.Is(err, ghostscript.ErrNotFound) || ctx.Err() != nil {
			return fmt.Errorf("failed to rasterize %s: %w", doc.Path(), err)
		}
		logger.WithError(err).Warn("Ghostscript reported an error while rasterizing")
	}

	if multiplier > 1 {
		if err := r.Resizer.Resize(targetPath, targetPath, width, height); err != nil {
			return fmt.Errorf("failed to downsample %s: %w", targetPath, err)
		}
	}

	logger.WithFields(logrus.Fields{"width": width, "height": height}).Info("Page rasterized")
	return nil
}
