package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/thywilljoshua/pdftools/internal/config"
	"github.com/thywilljoshua/pdftools/internal/convert"
	"github.com/thywilljoshua/pdftools/internal/ghostscript"
)

// app carries the configuration and logger every subcommand starts from.
type app struct {
	cfg    config.Config
	logger *logrus.Logger
	// runner executes engine commands; nil means ghostscript.ExecRunner.
	runner ghostscript.Runner
}

func (a *app) engine() *ghostscript.Engine {
	e := ghostscript.New(a.cfg.GhostscriptPath, a.cfg.Timeout, a.logger)
	e.ExtraArgs = a.cfg.ExtraArgs
	e.Runner = a.runner
	return e
}

func (a *app) measurer() convert.PDFMeasurer {
	return convert.PDFMeasurer{Logger: a.logger}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "pdftools",
		Short:         "Split PDFs into pages and render pages to JPEG with ghostscript",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(splitCmd(a))
	root.AddCommand(rasterCmd(a))
	root.AddCommand(infoCmd(a))
	root.AddCommand(checkCmd(a))
	return root
}

func main() {
	cfg, logger := config.Load()
	a := &app{cfg: cfg, logger: logger}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
