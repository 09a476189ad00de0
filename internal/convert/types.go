package convert

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/thywilljoshua/pdftools/internal/ghostscript"
)

var (
	// ErrSourceNotFound is returned when the document path does not name a
	// readable regular file.
	ErrSourceNotFound = errors.New("source document not found")
	// ErrInvalidPage is returned for page indices below 1 or past the last page.
	ErrInvalidPage = errors.New("invalid page index")
	// ErrNoPagesReported is returned when the engine's split output names no
	// pages for a document that has more than one.
	ErrNoPagesReported = errors.New("engine reported no split pages")
	// ErrInvalidQuality is returned for JPEG qualities outside 1..100.
	ErrInvalidQuality = errors.New("invalid JPEG quality")
)

// Document identifies a source PDF by path. Page count and dimensions are
// measured on demand and never cached.
type Document struct {
	path string
}

// NewDocument returns a handle for the PDF at path, which must exist.
func NewDocument(path string) (Document, error) {
	if err := checkSource(path); err != nil {
		return Document{}, err
	}
	return Document{path: path}, nil
}

func (d Document) Path() string { return d.path }

// BaseName is the document's file name without its directory.
func (d Document) BaseName() string { return baseName(d.path) }

func checkSource(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSourceNotFound, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, path)
	}
	return nil
}

// Measurer reports page count and pixel dimensions of a document. Every call
// measures the file afresh.
type Measurer interface {
	PageCount(path string) (int, error)
	WidthInPixels(path string, page, dpi int) (int, error)
	HeightInPixels(path string, page, dpi int) (int, error)
}

// Resizer rescales the image at src to width x height and writes it to dst.
type Resizer interface {
	Resize(src, dst string, width, height int) error
}

// SplitEngine writes one file per page of inputPath following outputPattern
// and returns its textual output.
type SplitEngine interface {
	Split(ctx context.Context, inputPath, outputPattern string) (string, error)
}

// RasterEngine renders a single page to a JPEG.
type RasterEngine interface {
	Rasterize(ctx context.Context, req ghostscript.RasterRequest) error
}

// OutputParser counts the pages a split run reports having written.
type OutputParser interface {
	Count(output string) int
}

// SplitResult describes the files a split produced.
type SplitResult struct {
	// Existing page files in ascending page order.
	Paths []string `json:"paths"`
	// Pages the engine reported writing.
	Reported int `json:"reported_pages"`
	// Reported page numbers with no file on disk.
	Missing []int `json:"missing_pages,omitempty"`
	// True when a single-page document was copied instead of split.
	Copied bool `json:"copied"`
}

const (
	DefaultPage    = 1
	DefaultQuality = 100
	DefaultDPI     = 300
)

// RasterOptions controls ConvertToImage. The zero value is usable: zero Page,
// Quality and DPI take the defaults and antialias oversampling is on unless
// NoOversample is set. Width and Height, when both set, bypass measurement.
type RasterOptions struct {
	Page         int  `json:"page"`
	Quality      int  `json:"jpeg_quality"`
	DPI          int  `json:"dpi"`
	NoOversample bool `json:"no_oversample,omitempty"`
	Width        int  `json:"width_px,omitempty"`
	Height       int  `json:"height_px,omitempty"`
}

// DefaultRasterOptions renders page 1 at 300 DPI, quality 100, with
// antialias oversampling.
func DefaultRasterOptions() RasterOptions {
	return RasterOptions{
		Page:    DefaultPage,
		Quality: DefaultQuality,
		DPI:     DefaultDPI,
	}
}

func (o RasterOptions) withDefaults() RasterOptions {
	if o.Page == 0 {
		o.Page = DefaultPage
	}
	if o.Quality == 0 {
		o.Quality = DefaultQuality
	}
	if o.DPI == 0 {
		o.DPI = DefaultDPI
	}
	return o
}
