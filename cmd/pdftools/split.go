package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/thywilljoshua/pdftools/internal/convert"
)

func splitCmd(a *app) *cobra.Command {
	var out string
	var name string
	var lock bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "split <pdf>",
		Short: "Write every page of a PDF to its own file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := convert.NewDocument(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Dir(doc.Path())
			}

			engine := a.engine()
			if cmd.Flags().Changed("timeout") {
				engine.Timeout, _ = cmd.Flags().GetDuration("timeout")
			}
			splitter := &convert.Splitter{
				Engine:        engine,
				Measurer:      a.measurer(),
				Logger:        a.logger,
				LockTargetDir: lock || a.cfg.LockTargetDir,
			}

			res, err := splitter.Split(cmd.Context(), doc, out, name)
			if err != nil {
				return err
			}

			if asJSON {
				b, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode result: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}
			printSplitSummary(cmd, res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "directory for the page files (default: the PDF's directory)")
	cmd.Flags().StringVar(&name, "name", "", "base name for the page files (default: the PDF's name)")
	cmd.Flags().BoolVar(&lock, "lock", false, "hold an advisory lock on the output directory while splitting")
	cmd.Flags().Duration("timeout", 0, "ghostscript timeout, overriding PDFTOOLS_GS_TIMEOUT")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func printSplitSummary(cmd *cobra.Command, res convert.SplitResult) {
	w := cmd.OutOrStdout()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	var total int64
	for _, p := range res.Paths {
		fmt.Fprintln(w, p)
		if info, err := os.Stat(p); err == nil {
			total += info.Size()
		}
	}

	verb := "split into"
	if res.Copied {
		verb = "copied as"
	}
	fmt.Fprintf(w, "%s %s %d %s (%s)\n",
		green("✓"), verb, len(res.Paths), pluralPages(len(res.Paths)), humanize.Bytes(uint64(total)))
	if len(res.Missing) > 0 {
		fmt.Fprintf(w, "%s %d reported %s missing on disk: %v\n",
			yellow("!"), len(res.Missing), pluralPages(len(res.Missing)), res.Missing)
	}
}

func pluralPages(n int) string {
	if n == 1 {
		return "page"
	}
	return "pages"
}
