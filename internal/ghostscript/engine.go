// Package ghostscript drives the ghostscript binary for page splitting and
// JPEG rasterization.
package ghostscript

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBinary is looked up on PATH when no explicit binary is configured.
const DefaultBinary = "gs"

// antialiasBits is the subsample depth passed to TextAlphaBits and
// GraphicsAlphaBits.
const antialiasBits = 4

// Engine invokes ghostscript. The zero value runs DefaultBinary with no
// timeout through ExecRunner and does not log.
type Engine struct {
	Binary    string
	Timeout   time.Duration
	ExtraArgs []string
	Runner    Runner
	Logger    *logrus.Logger
}

// New returns an Engine running binary with the given per-invocation timeout.
func New(binary string, timeout time.Duration, logger *logrus.Logger) *Engine {
	return &Engine{Binary: binary, Timeout: timeout, Logger: logger}
}

// RasterRequest holds the parameters of a single-page JPEG export. Width and
// Height are the exact output geometry in pixels.
type RasterRequest struct {
	InputPath  string
	OutputPath string
	Page       int
	DPI        int
	Quality    int
	Width      int
	Height     int
}

// SplitArgs builds the argv (without the binary) that writes every page of
// inputPath to its own file. outputPattern must contain a printf-style page
// slot such as %02d.
func SplitArgs(inputPath, outputPattern string, extra []string) []string {
	args := []string{
		"-sDEVICE=pdfwrite",
		"-dSAFER",
		"-o", outputPattern,
	}
	args = append(args, extra...)
	return append(args, inputPath)
}

// RasterArgs builds the argv (without the binary) for a single-page JPEG
// export.
func RasterArgs(req RasterRequest, extra []string) []string {
	page := strconv.Itoa(req.Page)
	args := []string{
		"-sDEVICE=jpeg",
		"-dSAFER",
		"-o", req.OutputPath,
		"-dFirstPage=" + page,
		"-dLastPage=" + page,
		"-r" + strconv.Itoa(req.DPI),
		"-dTextAlphaBits=" + strconv.Itoa(antialiasBits),
		"-dGraphicsAlphaBits=" + strconv.Itoa(antialiasBits),
		"-dJPEGQ=" + strconv.Itoa(req.Quality),
		fmt.Sprintf("-g%dx%d", req.Width, req.Height),
		"-dPDFFitPage",
	}
	args = append(args, extra...)
	return append(args, req.InputPath)
}

// Split runs the engine in split mode and returns its combined output, which
// names each page as it is written. The output is returned even when the
// invocation fails.
func (e *Engine) Split(ctx context.Context, inputPath, outputPattern string) (string, error) {
	var output bytes.Buffer
	cmd := e.command(SplitArgs(inputPath, outputPattern, e.ExtraArgs), &output)
	err := e.run(ctx, cmd)
	return output.String(), err
}

// Rasterize runs the engine in JPEG mode. Diagnostics are discarded.
func (e *Engine) Rasterize(ctx context.Context, req RasterRequest) error {
	return e.run(ctx, e.command(RasterArgs(req, e.ExtraArgs), io.Discard))
}

// Version reports the engine's version string, which doubles as a check that
// the binary is runnable.
func (e *Engine) Version(ctx context.Context) (string, error) {
	var output bytes.Buffer
	if err := e.run(ctx, e.command([]string{"--version"}, &output)); err != nil {
		return "", err
	}
	return strings.TrimSpace(output.String()), nil
}

func (e *Engine) command(args []string, output io.Writer) *Command {
	binary := e.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	return &Command{
		Name:           binary,
		Args:           args,
		CombinedOutput: output,
		Timeout:        e.Timeout,
	}
}

func (e *Engine) run(ctx context.Context, cmd *Command) error {
	logger := e.logger()
	runner := e.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	start := time.Now()
	logger.WithFields(logrus.Fields{
		"command": cmd.String(),
		"timeout": cmd.Timeout,
	}).Debug("Running ghostscript")

	err := runner.Run(ctx, cmd)

	fields := logrus.Fields{"binary": cmd.Name, "duration": time.Since(start)}
	if err != nil {
		logger.WithFields(fields).WithError(err).Debug("Ghostscript failed")
		return err
	}
	logger.WithFields(fields).Debug("Ghostscript finished")
	return nil
}

func (e *Engine) logger() *logrus.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard
}
