package ghostscript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSplitArgs(t *testing.T) {
	args := SplitArgs("/in/report.pdf", "/out/report_page%02d.pdf", nil)
	assert.Equal(t, []string{
		"-sDEVICE=pdfwrite",
		"-dSAFER",
		"-o", "/out/report_page%02d.pdf",
		"/in/report.pdf",
	}, args)
}

func TestSplitArgs_ExtraArgsPrecedeInput(t *testing.T) {
	args := SplitArgs("/in/report.pdf", "/out/p%02d.pdf", []string{"-dNOPLATFONTS"})
	require.Len(t, args, 6)
	assert.Equal(t, "-dNOPLATFONTS", args[4])
	assert.Equal(t, "/in/report.pdf", args[5])
}

func TestRasterArgs(t *testing.T) {
	args := RasterArgs(RasterRequest{
		InputPath:  "/in/report.pdf",
		OutputPath: "/out/cover.jpg",
		Page:       2,
		DPI:        300,
		Quality:    90,
		Width:      1600,
		Height:     1200,
	}, nil)
	assert.Equal(t, []string{
		"-sDEVICE=jpeg",
		"-dSAFER",
		"-o", "/out/cover.jpg",
		"-dFirstPage=2",
		"-dLastPage=2",
		"-r300",
		"-dTextAlphaBits=4",
		"-dGraphicsAlphaBits=4",
		"-dJPEGQ=90",
		"-g1600x1200",
		"-dPDFFitPage",
		"/in/report.pdf",
	}, args)
}

func TestEngineSplit_ReturnsCombinedOutput(t *testing.T) {
	collector := &CommandCollector{}
	collector.SetDelegateRun(func(ctx context.Context, cmd *Command) error {
		_, err := fmt.Fprint(cmd.CombinedOutput, "Processing pages 1 through 2.\nPage 1\nPage 2\n")
		return err
	})
	engine := &Engine{Binary: "/opt/gs/bin/gs", Timeout: time.Minute, Runner: collector, Logger: quietLogger()}

	output, err := engine.Split(context.Background(), "in.pdf", "out_page%02d.pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, ParseSplitOutput(output))

	commands := collector.Commands()
	require.Len(t, commands, 1)
	assert.Equal(t, "/opt/gs/bin/gs", commands[0].Name)
	assert.Equal(t, time.Minute, commands[0].Timeout)
	assert.Equal(t, SplitArgs("in.pdf", "out_page%02d.pdf", nil), commands[0].Args)
}

func TestEngineSplit_OutputKeptOnFailure(t *testing.T) {
	collector := &CommandCollector{}
	collector.SetDelegateRun(func(ctx context.Context, cmd *Command) error {
		fmt.Fprint(cmd.CombinedOutput, "Page 1\n")
		return errors.New("exit status 1")
	})
	engine := &Engine{Runner: collector, Logger: quietLogger()}

	output, err := engine.Split(context.Background(), "in.pdf", "p%02d.pdf")
	assert.Error(t, err)
	assert.Equal(t, "Page 1\n", output)
	assert.Equal(t, DefaultBinary, collector.Commands()[0].Name)
}

func TestEngineRasterize_DiscardsOutput(t *testing.T) {
	collector := &CommandCollector{}
	engine := &Engine{Runner: collector, ExtraArgs: []string{"-dNOINTERPOLATE"}, Logger: quietLogger()}

	req := RasterRequest{InputPath: "in.pdf", OutputPath: "out.jpg", Page: 1, DPI: 72, Quality: 100, Width: 10, Height: 20}
	require.NoError(t, engine.Rasterize(context.Background(), req))

	commands := collector.Commands()
	require.Len(t, commands, 1)
	assert.Equal(t, io.Discard, commands[0].CombinedOutput)
	assert.Equal(t, RasterArgs(req, []string{"-dNOINTERPOLATE"}), commands[0].Args)
}

func TestEngineVersion(t *testing.T) {
	collector := &CommandCollector{}
	collector.SetDelegateRun(func(ctx context.Context, cmd *Command) error {
		_, err := io.WriteString(cmd.CombinedOutput, "10.02.1\n")
		return err
	})
	engine := &Engine{Runner: collector, Logger: quietLogger()}

	version, err := engine.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10.02.1", version)
	assert.Equal(t, []string{"--version"}, collector.Commands()[0].Args)
}

func TestEngine_NilLoggerIsSilent(t *testing.T) {
	std := logrus.StandardLogger()
	var logged bytes.Buffer
	prevOut, prevLevel := std.Out, std.GetLevel()
	std.SetOutput(&logged)
	std.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		std.SetOutput(prevOut)
		std.SetLevel(prevLevel)
	})

	collector := &CommandCollector{}
	collector.SetDelegateRun(func(context.Context, *Command) error { return errors.New("exit status 1") })
	e := &Engine{Runner: collector}

	_, err := e.Split(context.Background(), "/in/a.pdf", "/out/a_page%02d.pdf")
	require.Error(t, err)
	assert.Error(t, e.Rasterize(context.Background(), RasterRequest{InputPath: "/in/a.pdf", OutputPath: "/out/a.jpg", Page: 1}))
	assert.Len(t, collector.Commands(), 2)
	assert.Empty(t, logged.String())
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunner_CapturesOutput(t *testing.T) {
	requireShell(t)

	var output bytes.Buffer
	err := ExecRunner{}.Run(context.Background(), &Command{
		Name:           "sh",
		Args:           []string{"-c", "echo Page 1; echo Page 2 >&2"},
		CombinedOutput: &output,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ParseSplitOutput(output.String()))
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	requireShell(t)

	err := ExecRunner{}.Run(context.Background(), &Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	require.Error(t, err)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestExecRunner_Timeout(t *testing.T) {
	requireShell(t)

	start := time.Now()
	err := ExecRunner{}.Run(context.Background(), &Command{
		Name:    "sh",
		Args:    []string{"-c", "sleep 10"},
		Timeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecRunner_Cancelled(t *testing.T) {
	requireShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	err := ExecRunner{}.Run(ctx, &Command{Name: "sh", Args: []string{"-c", "sleep 10"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	err := ExecRunner{}.Run(context.Background(), &Command{Name: "pdftools-no-such-binary-xyz"})
	assert.ErrorIs(t, err, ErrNotFound)

	err = ExecRunner{}.Run(context.Background(), &Command{Name: "/nonexistent/dir/gs"})
	assert.ErrorIs(t, err, ErrNotFound)
}
