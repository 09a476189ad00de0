package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/thywilljoshua/pdftools/internal/ghostscript"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type testPage struct {
	mediaBox []float64
	rotate   int
}

// buildPDF assembles a minimal but well-formed PDF whose page tree carries
// defaultBox on the /Pages node, so pages without their own box inherit it.
func buildPDF(defaultBox []float64, pages []testPage) []byte {
	box := func(b []float64) string {
		parts := make([]string, len(b))
		for i, v := range b {
			parts[i] = fmt.Sprintf("%g", v)
		}
		return "[" + strings.Join(parts, " ") + "]"
	}

	var kids []string
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", i+3))
	}
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox %s >>", strings.Join(kids, " "), len(pages), box(defaultBox)),
	}
	for _, p := range pages {
		obj := "<< /Type /Page /Parent 2 0 R"
		if p.mediaBox != nil {
			obj += " /MediaBox " + box(p.mediaBox)
		}
		if p.rotate != 0 {
			obj += fmt.Sprintf(" /Rotate %d", p.rotate)
		}
		objects = append(objects, obj+" >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func writePDF(t *testing.T, path string, pageCount int) Document {
	t.Helper()
	pages := make([]testPage, pageCount)
	require.NoError(t, os.WriteFile(path, buildPDF([]float64{0, 0, 612, 792}, pages), 0o644))
	doc, err := NewDocument(path)
	require.NoError(t, err)
	return doc
}

type fakeMeasurer struct {
	mu     sync.Mutex
	pages  int
	width  int
	height int
	err    error
	calls  []string
}

func (m *fakeMeasurer) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *fakeMeasurer) PageCount(path string) (int, error) {
	m.record("PageCount")
	return m.pages, m.err
}

func (m *fakeMeasurer) WidthInPixels(path string, page, dpi int) (int, error) {
	m.record(fmt.Sprintf("WidthInPixels page=%d dpi=%d", page, dpi))
	return m.width, m.err
}

func (m *fakeMeasurer) HeightInPixels(path string, page, dpi int) (int, error) {
	m.record(fmt.Sprintf("HeightInPixels page=%d dpi=%d", page, dpi))
	return m.height, m.err
}

type resizeCall struct {
	src, dst      string
	width, height int
}

type fakeResizer struct {
	calls []resizeCall
	err   error
}

func (r *fakeResizer) Resize(src, dst string, width, height int) error {
	r.calls = append(r.calls, resizeCall{src, dst, width, height})
	return r.err
}

// argAfter returns the argument following flag.
func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// fakeSplit imitates a pdfwrite run over pages pages: it prints a marker for
// each page and writes the page file, except for the pages in skip.
func fakeSplit(pages int, skip ...int) func(context.Context, *ghostscript.Command) error {
	skipped := map[int]bool{}
	for _, p := range skip {
		skipped[p] = true
	}
	return func(ctx context.Context, cmd *ghostscript.Command) error {
		pattern := argAfter(cmd.Args, "-o")
		fmt.Fprintf(cmd.CombinedOutput, "GPL Ghostscript 10.02.1 (2023-11-01)\nProcessing pages 1 through %d.\n", pages)
		for p := 1; p <= pages; p++ {
			fmt.Fprintf(cmd.CombinedOutput, "Page %d\n", p)
			if skipped[p] {
				continue
			}
			if err := os.WriteFile(fmt.Sprintf(pattern, p), []byte(fmt.Sprintf("page %d", p)), 0o644); err != nil {
				return err
			}
		}
		return nil
	}
}

func newTestEngine(delegate func(context.Context, *ghostscript.Command) error) (*ghostscript.Engine, *ghostscript.CommandCollector) {
	collector := &ghostscript.CommandCollector{}
	collector.SetDelegateRun(delegate)
	return &ghostscript.Engine{Runner: collector, Logger: quietLogger()}, collector
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, filepath.Base(e.Name()))
	}
	return names
}
