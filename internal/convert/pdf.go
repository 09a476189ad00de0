package convert

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/sirupsen/logrus"
	rpdf "rsc.io/pdf"
)

const pointsPerInch = 72

// maxTreeDepth bounds the walk up /Parent links when resolving inherited page
// attributes, so a cyclic page tree cannot loop forever.
const maxTreeDepth = 64

// PDFMeasurer reads page count and page size straight from the PDF. It parses
// with rsc.io/pdf and falls back to pdfcpu for files rsc.io/pdf rejects, such
// as those using cross-reference streams.
type PDFMeasurer struct {
	Logger *logrus.Logger
}

func (m PDFMeasurer) PageCount(path string) (int, error) {
	if err := checkSource(path); err != nil {
		return 0, err
	}
	n, err := rscPageCount(path)
	if err == nil {
		return n, nil
	}
	loggerOrDiscard(m.Logger).WithError(err).WithField("path", path).Debug("rsc.io/pdf failed, counting pages with pdfcpu")

	n, err = api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages of %s: %w", path, err)
	}
	return n, nil
}

func (m PDFMeasurer) WidthInPixels(path string, page, dpi int) (int, error) {
	width, _, err := m.pageSize(path, page)
	if err != nil {
		return 0, err
	}
	return pointsToPixels(width, dpi), nil
}

func (m PDFMeasurer) HeightInPixels(path string, page, dpi int) (int, error) {
	_, height, err := m.pageSize(path, page)
	if err != nil {
		return 0, err
	}
	return pointsToPixels(height, dpi), nil
}

// pageSize returns the displayed width and height of page in points.
func (m PDFMeasurer) pageSize(path string, page int) (float64, float64, error) {
	if err := checkSource(path); err != nil {
		return 0, 0, err
	}
	if page < 1 {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}

	w, h, err := rscPageSize(path, page)
	if err == nil {
		return w, h, nil
	}
	if errors.Is(err, ErrInvalidPage) {
		return 0, 0, err
	}
	loggerOrDiscard(m.Logger).WithError(err).WithFields(logrus.Fields{
		"path": path,
		"page": page,
	}).Debug("rsc.io/pdf failed, measuring page with pdfcpu")

	dims, err := api.PageDimsFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to measure %s: %w", path, err)
	}
	if page > len(dims) {
		return 0, 0, fmt.Errorf("%w: page %d of %d", ErrInvalidPage, page, len(dims))
	}
	return dims[page-1].Width, dims[page-1].Height, nil
}

func pointsToPixels(points float64, dpi int) int {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return int(math.Round(points / pointsPerInch * float64(dpi)))
}

func openRSC(path string) (*rpdf.Reader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	doc, err := rpdf.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return doc, f, nil
}

// rsc.io/pdf panics on some malformed input instead of returning errors.
func recoverRSC(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("rsc.io/pdf: %v", r)
	}
}

func rscPageCount(path string) (n int, err error) {
	defer recoverRSC(&err)
	doc, f, err := openRSC(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return doc.NumPage(), nil
}

func rscPageSize(path string, page int) (w, h float64, err error) {
	defer recoverRSC(&err)
	doc, f, err := openRSC(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	if n := doc.NumPage(); page > n {
		return 0, 0, fmt.Errorf("%w: page %d of %d", ErrInvalidPage, page, n)
	}
	p := doc.Page(page)
	if p.V.IsNull() {
		return 0, 0, fmt.Errorf("page %d not found in page tree", page)
	}

	box := inherited(p.V, "MediaBox")
	if box.Kind() != rpdf.Array || box.Len() != 4 {
		return 0, 0, fmt.Errorf("page %d has no usable MediaBox", page)
	}
	w = math.Abs(box.Index(2).Float64() - box.Index(0).Float64())
	h = math.Abs(box.Index(3).Float64() - box.Index(1).Float64())

	rotate := inherited(p.V, "Rotate").Int64() % 360
	if rotate < 0 {
		rotate += 360
	}
	if rotate == 90 || rotate == 270 {
		w, h = h, w
	}
	return w, h, nil
}

// inherited looks key up on v and then on its page tree ancestors.
func inherited(v rpdf.Value, key string) rpdf.Value {
	for i := 0; i < maxTreeDepth && !v.IsNull(); i++ {
		if x := v.Key(key); !x.IsNull() {
			return x
		}
		v = v.Key("Parent")
	}
	return rpdf.Value{}
}
